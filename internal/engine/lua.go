package engine

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/step"
)

type (
	// LuaEnv provides a Lua execution environment for scripted steps, with
	// bytecode caching and state pooling across runs
	LuaEnv struct {
		statePool chan *lua.State
		scripts   sync.Map
	}

	// CompiledLua is a compiled scripted-step body
	CompiledLua struct {
		bytecode []byte
	}
)

const (
	luaStatePoolSize    = 10
	luaGlobalTableIndex = -2
	luaTableIndex       = -3
	luaStatePrologue    = "local state = select(1, ...)"
	luaGlobalTableName  = "_G"
)

var (
	ErrLuaLoad      = errors.New("lua load error")
	ErrLuaExecution = errors.New("lua execution error")
)

// luaExclude strips the ambient capabilities a scripted step must not
// reach: the host filesystem, processes, and the module loader
var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

// NewLuaEnv creates a Lua execution environment with a pooled state cache
func NewLuaEnv() *LuaEnv {
	return &LuaEnv{
		statePool: make(chan *lua.State, luaStatePoolSize),
	}
}

// Step compiles a script body into a step factory. The script sees the
// run state as its `state` argument and may return a result table with
// `ok`, `detail`, `logs`, and `state` fields; returning nothing or true
// passes, returning false or `ok = false` fails
func (e *LuaEnv) Step(id api.StepID, script string) (step.Factory, error) {
	c, err := e.Compile(string(id), script)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", id, err)
	}
	return func() step.Step {
		return step.Func(func(sc *step.Context) error {
			return e.run(c, sc)
		})
	}, nil
}

// Compile compiles a script body to bytecode, caching by name and source
func (e *LuaEnv) Compile(name, script string) (*CompiledLua, error) {
	key := scriptCacheKey(name, script)
	if val, ok := e.scripts.Load(key); ok {
		return val.(*CompiledLua), nil
	}

	c, err := e.compile(script)
	if err == nil {
		e.scripts.Store(key, c)
	}
	return c, err
}

// Validate checks that a script body is syntactically correct without
// running it
func (e *LuaEnv) Validate(script string) error {
	_, err := e.compile(script)
	return err
}

func (e *LuaEnv) compile(script string) (*CompiledLua, error) {
	src := luaStatePrologue + "\n" + script

	L := lua.NewState()
	e.setupSandbox(L)

	if err := lua.LoadString(L, src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}
	return &CompiledLua{bytecode: buf.Bytes()}, nil
}

func (e *LuaEnv) run(c *CompiledLua, sc *step.Context) error {
	L := e.getState()
	defer e.returnState(L)

	e.setupSandbox(L)
	if err := L.Load(bytes.NewReader(c.bytecode), "chunk", "b"); err != nil {
		return fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	pushLuaMap(L, sc.State().Snapshot())
	if err := L.ProtectedCall(1, 1, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}
	defer L.Pop(1)

	switch {
	case L.IsNil(-1):
		return nil
	case L.IsBoolean(-1):
		if !L.ToBoolean(-1) {
			return step.Fail("script returned false")
		}
		return nil
	case L.IsTable(-1):
		return applyResult(sc, luaTableToMap(L, -1))
	default:
		return nil
	}
}

// applyResult interprets a scripted step's result table: logs are emitted
// in order, ok decides the outcome with detail as the failure message, and
// state entries merge into the run state only when the step passes
func applyResult(sc *step.Context, result map[string]any) error {
	if logs, ok := result["logs"].([]any); ok {
		for _, line := range logs {
			sc.Log(line)
		}
	}

	passed := true
	if ok, present := result["ok"].(bool); present {
		passed = ok
	}
	if passed {
		if state, ok := result["state"].(map[string]any); ok {
			sc.State().Merge(state)
		}
		return nil
	}
	if detail, ok := result["detail"].(string); ok && detail != "" {
		return step.Fail(detail)
	}
	return step.Fail("script reported failure")
}

func (e *LuaEnv) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func (e *LuaEnv) getState() *lua.State {
	select {
	case L := <-e.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (e *LuaEnv) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case e.statePool <- L:
	default:
	}
}

func scriptCacheKey(name, script string) string {
	return name + "\x00" + script
}

func goToLua(L *lua.State, value any) {
	switch v := value.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int:
		L.PushInteger(v)
	case int64:
		L.PushInteger(int(v))
	case float64:
		L.PushNumber(v)
	case []any:
		pushLuaArray(L, v)
	case map[string]any:
		pushLuaMap(L, v)
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaArray(L *lua.State, arr []any) {
	L.CreateTable(len(arr), 0)
	for i, item := range arr {
		L.PushInteger(i + 1)
		goToLua(L, item)
		L.SetTable(luaTableIndex)
	}
}

func pushLuaMap(L *lua.State, m map[string]any) {
	L.CreateTable(0, len(m))
	for k, val := range m {
		L.PushString(k)
		goToLua(L, val)
		L.SetTable(luaTableIndex)
	}
}

func luaNumberToGo(L *lua.State, index int) any {
	num, _ := L.ToNumber(index)
	if num == float64(int(num)) {
		return int(num)
	}
	return num
}

func luaToGo(L *lua.State, index int) any {
	switch {
	case L.IsNil(index):
		return nil
	case L.IsBoolean(index):
		return L.ToBoolean(index)
	case L.IsNumber(index):
		return luaNumberToGo(L, index)
	case L.IsString(index):
		s, _ := L.ToString(index)
		return s
	case L.IsTable(index):
		return luaTableToAny(L, index)
	default:
		return nil
	}
}

func luaTableToMap(L *lua.State, index int) map[string]any {
	result := map[string]any{}

	L.PushNil()
	for L.Next(index - 1) {
		if L.IsString(-2) {
			key, _ := L.ToString(-2)
			result[key] = luaToGo(L, -1)
		}
		L.Pop(1)
	}
	return result
}

func luaTableToAny(L *lua.State, index int) any {
	isArray := true
	length := 0

	L.PushNil()
	for L.Next(index - 1) {
		if !L.IsNumber(-2) {
			isArray = false
			L.Pop(2)
			break
		}
		length++
		L.Pop(1)
	}

	if isArray && length > 0 {
		return convertLuaArray(L, index, length)
	}

	result := map[string]any{}
	L.PushNil()
	for L.Next(index - 1) {
		var key string
		if !L.IsString(-2) {
			key = fmt.Sprintf("%v", luaToGo(L, -2))
			result[key] = luaToGo(L, -1)
			L.Pop(1)
			continue
		}
		key, _ = L.ToString(-2)
		result[key] = luaToGo(L, -1)
		L.Pop(1)
	}
	return result
}

func convertLuaArray(L *lua.State, index, length int) []any {
	arr := make([]any, length)
	absIndex := index
	if index < 0 {
		absIndex = L.Top() + index + 1
	}
	for i := 1; i <= length; i++ {
		L.RawGetInt(absIndex, i)
		arr[i-1] = luaToGo(L, -1)
		L.Pop(1)
	}
	return arr
}
