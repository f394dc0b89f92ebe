package api

import (
	"errors"
	"fmt"
)

type (
	// OutcomeStatus is the terminal classification of one step execution
	OutcomeStatus string

	// Outcome records how a step execution ended. Detail carries the
	// author-supplied failure message, Cause the error that escaped Run
	Outcome struct {
		Status OutcomeStatus `json:"status"`
		Detail string        `json:"detail,omitempty"`
		Cause  string        `json:"cause,omitempty"`
	}

	// Verdict is the aggregate pass/fail result of an entire run
	Verdict string

	// InfraError marks a failure in engine plumbing rather than in a
	// step's own test logic. It always aborts the remaining regular steps,
	// independent of stop-on-fail policy
	InfraError struct {
		Err error
	}
)

const (
	StatusPassed  OutcomeStatus = "passed"
	StatusFailed  OutcomeStatus = "failed"
	StatusErrored OutcomeStatus = "errored"
	StatusSkipped OutcomeStatus = "skipped"

	VerdictPassed Verdict = "passed"
	VerdictFailed Verdict = "failed"
)

// Passed returns a successful outcome
func Passed() Outcome {
	return Outcome{Status: StatusPassed}
}

// Failed returns an outcome for an explicit failure signal
func Failed(detail string) Outcome {
	return Outcome{Status: StatusFailed, Detail: detail}
}

// Errored returns an outcome for an error escaping a step's Run
func Errored(cause error) Outcome {
	res := Outcome{Status: StatusErrored}
	if cause != nil {
		res.Cause = cause.Error()
	}
	return res
}

// Skipped returns an outcome for a step that was never instantiated
func Skipped() Outcome {
	return Outcome{Status: StatusSkipped}
}

// Bad reports whether the outcome counts against the run verdict
func (o Outcome) Bad() bool {
	return o.Status == StatusFailed || o.Status == StatusErrored
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("infrastructure error: %v", e.Err)
}

func (e *InfraError) Unwrap() error {
	return e.Err
}

// AsInfra wraps err as an InfraError unless it already is one
func AsInfra(err error) error {
	if err == nil || IsInfra(err) {
		return err
	}
	return &InfraError{Err: err}
}

// IsInfra reports whether err is classified as an infrastructure error
func IsInfra(err error) bool {
	var infra *InfraError
	return errors.As(err, &infra)
}
