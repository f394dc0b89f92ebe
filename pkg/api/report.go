package api

import "time"

type (
	// StopReason explains why a run's main loop ended
	StopReason string

	// RunResult aggregates everything the hosting system needs to report a
	// run: per-step outcomes, the finalizer's independent record, and the
	// aggregate verdict
	RunResult struct {
		StartedAt time.Time        `json:"started_at"`
		EndedAt   time.Time        `json:"ended_at"`
		Finalizer *StepExecution   `json:"finalizer,omitempty"`
		ID        RunID            `json:"id"`
		Station   string           `json:"station,omitempty"`
		Verdict   Verdict          `json:"verdict"`
		Stop      StopReason       `json:"stop"`
		Error     string           `json:"error,omitempty"`
		Steps     []*StepExecution `json:"steps"`
	}
)

const (
	// StopCompleted means every step in the plan was executed
	StopCompleted StopReason = "completed"

	// StopStepFailed means a failing step's stop-on-fail policy halted the
	// remaining steps
	StopStepFailed StopReason = "step_failed"

	// StopAborted means an infrastructure error halted the run,
	// independent of stop-on-fail policy
	StopAborted StopReason = "aborted"
)

// ComputeVerdict derives the aggregate verdict from the regular step
// records. Skipped steps carry no weight. When finalizerCounts is set, a
// bad finalizer outcome also fails the run
func (r *RunResult) ComputeVerdict(finalizerCounts bool) Verdict {
	for _, step := range r.Steps {
		if step.Outcome.Bad() {
			return VerdictFailed
		}
	}
	if r.Stop == StopAborted {
		return VerdictFailed
	}
	if finalizerCounts && r.Finalizer != nil && r.Finalizer.Outcome.Bad() {
		return VerdictFailed
	}
	return VerdictPassed
}

// Passed reports whether the run verdict is passing
func (r *RunResult) Passed() bool {
	return r.Verdict == VerdictPassed
}
