package step

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hwbench/station/pkg/api"
)

type (
	// LogSink receives every log line a step emits, in call order. The
	// sequencer uses it to capture lines into the execution record
	LogSink func(api.LogLine)

	// Context is the execution context handed to a step's Run. It exposes
	// the shared run state, the operator console, the secret store, and a
	// log sink bound to the current execution record
	Context struct {
		ctx     context.Context
		state   *RunState
		console Console
		secrets Secrets
		sink    LogSink
		now     func() time.Time
	}
)

// NewContext binds a step execution context to its collaborators
func NewContext(
	ctx context.Context, state *RunState, console Console, secrets Secrets,
	sink LogSink,
) *Context {
	return &Context{
		ctx:     ctx,
		state:   state,
		console: console,
		secrets: secrets,
		sink:    sink,
		now:     time.Now,
	}
}

// Context returns the run-scoped context for cancellation-aware work
func (c *Context) Context() context.Context {
	return c.ctx
}

// State returns the run's shared mutable state
func (c *Context) State() *RunState {
	return c.state
}

// Secret resolves a named secret for the current run. A missing secret
// returns an error the step may handle or propagate
func (c *Context) Secret(name string) (string, error) {
	return c.secrets.Get(c.ctx, name)
}

// Log emits a line to the operator's stdout text box
func (c *Context) Log(args ...any) {
	c.emit(api.StreamOut, sprint(args...))
}

// Logf emits a formatted line to the operator's stdout text box
func (c *Context) Logf(format string, args ...any) {
	c.emit(api.StreamOut, fmt.Sprintf(format, args...))
}

// LogErr emits a line to the operator's stderr text box
func (c *Context) LogErr(args ...any) {
	c.emit(api.StreamErr, sprint(args...))
}

// LogErrf emits a formatted line to the operator's stderr text box
func (c *Context) LogErrf(format string, args ...any) {
	c.emit(api.StreamErr, fmt.Sprintf(format, args...))
}

func (c *Context) emit(stream api.Stream, text string) {
	line := api.LogLine{Time: c.now(), Stream: stream, Text: text}
	if c.sink != nil {
		c.sink(line)
	}
	if c.console != nil {
		c.console.SendLog(stream, text)
	}
}

// sprint joins operands with spaces, print-style
func sprint(args ...any) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}
