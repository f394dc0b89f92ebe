package step

import (
	"context"
	"errors"
	"fmt"

	"github.com/hwbench/station/pkg/api"
)

type (
	// Step is a single unit of test logic. Run receives a Context bound to
	// the current run and execution record. Returning nil marks the step
	// passed; an error built with Fail marks it failed; any other error
	// marks it errored
	Step interface {
		Run(*Context) error
	}

	// Factory instantiates a fresh Step for one execution
	Factory func() Step

	// Func adapts a plain function to the Step interface
	Func func(*Context) error

	// Failure is the explicit failure signal a step returns to mark its
	// check failed, as opposed to erroring
	Failure struct {
		Detail string
	}

	// Console is the engine's sole suspension point: log emission is
	// fire-and-forget, Request blocks until a correlated response,
	// cancellation, or timeout
	Console interface {
		SendLog(stream api.Stream, text string)
		Request(
			ctx context.Context, req *api.InteractionRequest,
		) (*api.InteractionResponse, error)
	}

	// Secrets resolves named secrets read-only for the current run context
	Secrets interface {
		Get(ctx context.Context, name string) (string, error)
	}
)

// Run implements Step
func (f Func) Run(c *Context) error {
	return f(c)
}

func (f *Failure) Error() string {
	return f.Detail
}

// Fail returns the explicit failure signal with the given detail
func Fail(detail string) error {
	return &Failure{Detail: detail}
}

// Failf returns the explicit failure signal with a formatted detail
func Failf(format string, args ...any) error {
	return &Failure{Detail: fmt.Sprintf(format, args...)}
}

// IsFailure reports whether err carries the explicit failure signal,
// returning its detail when it does
func IsFailure(err error) (string, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Detail, true
	}
	return "", false
}
