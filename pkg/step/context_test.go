package step_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/step"
)

type (
	// scriptedConsole answers each request by echoing back a canned value
	// and records everything sent through it
	scriptedConsole struct {
		answers  []any
		requests []*api.InteractionRequest
		logs     []api.LogLine
	}
)

func (c *scriptedConsole) SendLog(stream api.Stream, text string) {
	c.logs = append(c.logs, api.LogLine{Stream: stream, Text: text})
}

func (c *scriptedConsole) Request(
	_ context.Context, req *api.InteractionRequest,
) (*api.InteractionResponse, error) {
	c.requests = append(c.requests, req)
	answer := c.answers[0]
	c.answers = c.answers[1:]
	data, err := json.Marshal(answer)
	if err != nil {
		return nil, err
	}
	return &api.InteractionResponse{ID: req.ID, Value: data}, nil
}

type staticSecrets map[string]string

func (s staticSecrets) Get(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", assert.AnError
	}
	return v, nil
}

func newTestContext(
	console *scriptedConsole, sink step.LogSink,
) *step.Context {
	return step.NewContext(
		context.Background(), step.NewRunState(), console,
		staticSecrets{"FOO": "BAR"}, sink,
	)
}

func TestContextLogging(t *testing.T) {
	var captured []api.LogLine
	console := &scriptedConsole{}
	c := newTestContext(console, func(line api.LogLine) {
		captured = append(captured, line)
	})

	c.Log("This goes to", "stdout")
	c.LogErr("This goes to stderr")
	c.Logf("got %d and %q", 42, "Bar")

	require.Len(t, captured, 3)
	assert.Equal(t, api.StreamOut, captured[0].Stream)
	assert.Equal(t, "This goes to stdout", captured[0].Text)
	assert.Equal(t, api.StreamErr, captured[1].Stream)
	assert.Equal(t, `got 42 and "Bar"`, captured[2].Text)

	// every captured line is also forwarded to the console
	require.Len(t, console.logs, 3)
	assert.Equal(t, captured[0].Text, console.logs[0].Text)
}

func TestContextSecret(t *testing.T) {
	c := newTestContext(&scriptedConsole{}, nil)

	v, err := c.Secret("FOO")
	require.NoError(t, err)
	assert.Equal(t, "BAR", v)

	_, err = c.Secret("MISSING")
	assert.Error(t, err)
}

func TestPresentButtons(t *testing.T) {
	console := &scriptedConsole{answers: []any{"Button 2"}}
	c := newTestContext(console, nil)

	value, err := c.PresentButtons("Button 1", "Button 2", "Button 3")
	require.NoError(t, err)
	assert.Equal(t, "Button 2", value)

	req := console.requests[0]
	assert.Equal(t, api.KindButtons, req.Kind)
	assert.NotEmpty(t, req.ID)
	require.Len(t, req.Options, 3)
	assert.Equal(t, "Button 1", req.Options[0].Name)
}

func TestPresentButtonsPairs(t *testing.T) {
	console := &scriptedConsole{answers: []any{42}}
	c := newTestContext(console, nil)

	value, err := c.PresentButtons(
		api.Opt("Button 4", "Value 1"),
		api.Opt("This is green", true),
		api.Opt("Button 6", 42),
	)
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestPresentPassFail(t *testing.T) {
	console := &scriptedConsole{answers: []any{true}}
	c := newTestContext(console, nil)

	ok, err := c.PresentPassFail()
	require.NoError(t, err)
	assert.True(t, ok)

	req := console.requests[0]
	assert.Equal(t, api.KindPassFail, req.Kind)
	assert.Equal(t, api.PassFailOptions(), req.Options)
}

func TestPresentTextInput(t *testing.T) {
	console := &scriptedConsole{answers: []any{"Grace"}}
	c := newTestContext(console, nil)

	name, err := c.PresentTextInput("What is your name?", step.WithSize(25))
	require.NoError(t, err)
	assert.Equal(t, "Grace", name)

	req := console.requests[0]
	assert.Equal(t, api.KindTextInput, req.Kind)
	assert.Equal(t, "What is your name?", req.Prompt)
	assert.Equal(t, 25, req.Size)
}

func TestPresentTextInputDefaultSize(t *testing.T) {
	console := &scriptedConsole{answers: []any{""}}
	c := newTestContext(console, nil)

	_, err := c.PresentTextInput("Serial number?")
	require.NoError(t, err)
	assert.Equal(t, api.DefaultTextInputSize, console.requests[0].Size)
}

func TestPresentRadios(t *testing.T) {
	console := &scriptedConsole{
		answers: []any{api.Opt("Choice 2", "Choice 2")},
	}
	c := newTestContext(console, nil)

	opt, err := c.PresentRadios("Choose exactly 1",
		"Choice 1", "Choice 2", "Choice 3")
	require.NoError(t, err)
	assert.Equal(t, "Choice 2", opt.Name)
	assert.Equal(t, "Choice 2", opt.Value)
}

func TestPresentCheckboxes(t *testing.T) {
	console := &scriptedConsole{
		answers: []any{[]api.Option{
			api.Opt("Choice 3", "Choice 3"),
			api.Opt("Choice 1", "Choice 1"),
		}},
	}
	c := newTestContext(console, nil)

	opts, err := c.PresentCheckboxes("Choose as many as you want",
		"Choice 1", "Choice 2", "Choice 3")
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "Choice 3", opts[0].Name)
	assert.Equal(t, "Choice 1", opts[1].Name)
}

func TestPresentSelect(t *testing.T) {
	console := &scriptedConsole{
		answers: []any{api.Opt("Choice 1", "Choice 1")},
	}
	c := newTestContext(console, nil)

	opt, err := c.PresentSelect("Choose from the dropdown",
		"Choice 1", "Choice 2")
	require.NoError(t, err)
	assert.Equal(t, "Choice 1", opt.Name)
	assert.False(t, console.requests[0].AllowMultiple)
}

func TestPresentMultiSelect(t *testing.T) {
	console := &scriptedConsole{
		answers: []any{[]api.Option{api.Opt("Choice 2", "Choice 2")}},
	}
	c := newTestContext(console, nil)

	opts, err := c.PresentMultiSelect("Choose any",
		"Choice 1", "Choice 2")
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.True(t, console.requests[0].AllowMultiple)
}

func TestPresentNoOptions(t *testing.T) {
	c := newTestContext(&scriptedConsole{}, nil)

	_, err := c.PresentButtons()
	assert.ErrorIs(t, err, api.ErrNoOptions)
}

func TestRunState(t *testing.T) {
	s := step.NewRunState()

	_, ok := s.Get("Foo")
	assert.False(t, ok)

	s.Set("Foo", "Bar")
	s.Set("Baz", 42)

	v, ok := s.Get("Foo")
	assert.True(t, ok)
	assert.Equal(t, "Bar", v)
	assert.Equal(t, 2, s.Len())

	snap := s.Snapshot()
	snap["Foo"] = "mutated"
	v, _ = s.Get("Foo")
	assert.Equal(t, "Bar", v)

	s.Merge(map[string]any{"Qux": true})
	assert.Equal(t, 3, s.Len())

	s.Delete("Baz")
	_, ok = s.Get("Baz")
	assert.False(t, ok)
}
