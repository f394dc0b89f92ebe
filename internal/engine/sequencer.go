package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/log"
	"github.com/hwbench/station/pkg/step"
)

type (
	// Sequencer executes one run at a time: every plan step in order on a
	// single worker, then the finalizer, regardless of what came before it
	Sequencer struct {
		console      Console
		secrets      step.Secrets
		now          func() time.Time
		newID        func() api.RunID
		station      string
		finalVerdict bool
	}

	// Console is the sequencer's view of the operator channel: the step
	// surface plus lifecycle announcements
	Console interface {
		step.Console
		Announce(*api.ConsoleMessage)
	}

	// Option adjusts sequencer behavior
	Option func(*Sequencer)
)

var (
	ErrStepPanicked = errors.New("step panicked")
	ErrNilStep      = errors.New("step factory returned nil")
	ErrRunAborted   = errors.New("run aborted")
)

// WithStation stamps every run record with the station identity
func WithStation(name string) Option {
	return func(s *Sequencer) {
		s.station = name
	}
}

// WithFinalizerVerdict makes a failed or errored finalizer fail the run
// verdict. By default the finalizer is recorded but does not weigh in
func WithFinalizerVerdict() Option {
	return func(s *Sequencer) {
		s.finalVerdict = true
	}
}

// WithClock overrides the sequencer's time source
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) {
		s.now = now
	}
}

// WithRunIDs overrides run identifier generation
func WithRunIDs(newID func() api.RunID) Option {
	return func(s *Sequencer) {
		s.newID = newID
	}
}

// NewSequencer creates a sequencer bound to an operator console and a
// secret store
func NewSequencer(
	console Console, secrets step.Secrets, opts ...Option,
) *Sequencer {
	s := &Sequencer{
		console: console,
		secrets: secrets,
		now:     time.Now,
		newID: func() api.RunID {
			return api.RunID(uuid.NewString())
		},
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Execute runs every step of the plan in declaration order against a fresh
// run state, then the finalizer. Steps after a stopping failure are
// recorded as skipped, never silently omitted. An infrastructure error
// aborts the remaining steps outright, bypassing stop-on-fail, but the
// finalizer still executes. Execute always returns a complete result
func (s *Sequencer) Execute(
	ctx context.Context, plan *step.Plan,
) *api.RunResult {
	res := &api.RunResult{
		ID:        s.newID(),
		Station:   s.station,
		StartedAt: s.now(),
		Stop:      api.StopCompleted,
	}
	state := step.NewRunState()

	slog.Info("Run started",
		log.RunID(res.ID),
		slog.Int("steps", plan.Len()))
	s.console.Announce(&api.ConsoleMessage{
		Type: api.MessageRunStarted,
		Run:  &api.RunEventPayload{ID: res.ID, Station: s.station},
	})

	specs := plan.Steps()
	count := len(specs)
	if plan.Finalizer() != nil {
		count++
	}

	var runErr error
	for i, spec := range specs {
		if res.Stop != api.StopCompleted {
			res.Steps = append(res.Steps, s.skipStep(i, count, spec))
			continue
		}

		exec, err := s.executeStep(ctx, i, count, spec, state)
		res.Steps = append(res.Steps, exec)

		switch {
		case aborted(err):
			res.Stop = api.StopAborted
			runErr = err
		case exec.Outcome.Bad() && spec.Meta.StopOnFail:
			res.Stop = api.StopStepFailed
		}
	}

	if fin := plan.Finalizer(); fin != nil {
		exec, err := s.executeStep(ctx, count-1, count, *fin, state)
		res.Finalizer = exec
		if runErr == nil && aborted(err) {
			res.Stop = api.StopAborted
			runErr = err
		}
	}

	if runErr != nil {
		res.Error = fmt.Errorf("%w: %w", ErrRunAborted, runErr).Error()
	}
	res.EndedAt = s.now()
	res.Verdict = res.ComputeVerdict(s.finalVerdict)

	slog.Info("Run completed",
		log.RunID(res.ID),
		log.Verdict(res.Verdict),
		slog.String("stop", string(res.Stop)),
		slog.Duration("elapsed", res.EndedAt.Sub(res.StartedAt)))
	s.console.Announce(&api.ConsoleMessage{
		Type: api.MessageRunCompleted,
		Run: &api.RunEventPayload{
			ID:      res.ID,
			Station: s.station,
			Verdict: res.Verdict,
		},
	})
	return res
}

func (s *Sequencer) executeStep(
	ctx context.Context, index, count int, spec step.Spec,
	state *step.RunState,
) (*api.StepExecution, error) {
	exec := &api.StepExecution{
		StepID:    spec.ID,
		Meta:      spec.Meta,
		StartedAt: s.now(),
	}

	slog.Info("Step started", log.StepID(spec.ID))
	s.console.Announce(&api.ConsoleMessage{
		Type: api.MessageStepStarted,
		Step: &api.StepEventPayload{
			StepID: spec.ID,
			Meta:   &exec.Meta,
			Index:  index,
			Count:  count,
		},
	})

	sink := func(line api.LogLine) {
		exec.Logs = append(exec.Logs, line)
	}
	sc := step.NewContext(ctx, state, s.console, s.secrets, sink)

	err := runStep(spec, sc)
	exec.Outcome = classify(err)
	exec.EndedAt = s.now()

	s.logOutcome(exec, err)
	s.console.Announce(&api.ConsoleMessage{
		Type: api.MessageStepCompleted,
		Step: &api.StepEventPayload{
			StepID:  spec.ID,
			Meta:    &exec.Meta,
			Outcome: &exec.Outcome,
			Index:   index,
			Count:   count,
		},
	})
	return exec, err
}

func (s *Sequencer) skipStep(
	index, count int, spec step.Spec,
) *api.StepExecution {
	exec := &api.StepExecution{
		StepID:  spec.ID,
		Meta:    spec.Meta,
		Outcome: api.Skipped(),
	}
	slog.Info("Step skipped", log.StepID(spec.ID))
	s.console.Announce(&api.ConsoleMessage{
		Type: api.MessageStepCompleted,
		Step: &api.StepEventPayload{
			StepID:  spec.ID,
			Meta:    &exec.Meta,
			Outcome: &exec.Outcome,
			Index:   index,
			Count:   count,
		},
	})
	return exec
}

func (s *Sequencer) logOutcome(exec *api.StepExecution, err error) {
	switch exec.Outcome.Status {
	case api.StatusPassed:
		slog.Info("Step passed", log.StepID(exec.StepID))
	case api.StatusFailed:
		slog.Warn("Step failed",
			log.StepID(exec.StepID),
			slog.String("detail", exec.Outcome.Detail))
	default:
		slog.Error("Step errored",
			log.StepID(exec.StepID),
			log.Error(err))
	}
}

// runStep instantiates and runs one step, converting a panic into an
// ordinary step error so a buggy step can never take the station down
func runStep(spec step.Spec, sc *step.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()
	inst := spec.New()
	if inst == nil {
		return fmt.Errorf("%w: %s", ErrNilStep, spec.ID)
	}
	return inst.Run(sc)
}

func classify(err error) api.Outcome {
	if err == nil {
		return api.Passed()
	}
	if detail, ok := step.IsFailure(err); ok {
		return api.Failed(detail)
	}
	return api.Errored(err)
}

// aborted reports whether a step error poisons the rest of the run:
// infrastructure failures and run cancellation, never ordinary step
// failures or errors
func aborted(err error) bool {
	return api.IsInfra(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
