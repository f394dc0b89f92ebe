package step

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/util"
)

type (
	// Spec is one registered step: a factory plus static metadata resolved
	// once at registration and never mutated during a run
	Spec struct {
		New  Factory
		ID   api.StepID
		Meta api.StepMeta
	}

	// Registry is the typed, ordered sequence of step factory entries a
	// plan is built from
	Registry struct {
		entries   []Spec
		ids       util.Set[api.StepID]
		finalizer *Spec
	}

	// Plan is the immutable ordered step list one run executes. It is
	// fixed once a run starts
	Plan struct {
		steps     []Spec
		finalizer *Spec
	}
)

var (
	ErrNilFactory     = errors.New("step factory nil")
	ErrDuplicateStep  = errors.New("duplicate step ID")
	ErrEmptyPlan      = errors.New("plan has no steps")
	ErrStepIDRequired = errors.New("step ID required")
)

// NewRegistry creates an empty step registry
func NewRegistry() *Registry {
	return &Registry{ids: util.Set[api.StepID]{}}
}

// Add registers a step factory under the given ID, resolving metadata
// defaults: display name from the ID, description from the display name,
// stop-on-fail true
func (r *Registry) Add(
	id api.StepID, factory Factory, opts ...MetaOption,
) error {
	spec, err := r.newSpec(id, factory, opts)
	if err != nil {
		return err
	}
	if r.ids.Contains(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, id)
	}
	r.ids.Add(id)
	r.entries = append(r.entries, *spec)
	return nil
}

// MustAdd registers a step factory and panics on error. Intended for
// static plan declarations at startup
func (r *Registry) MustAdd(
	id api.StepID, factory Factory, opts ...MetaOption,
) {
	if err := r.Add(id, factory, opts...); err != nil {
		panic(err)
	}
}

// SetFinalizer designates the step guaranteed to execute exactly once at
// the end of every run, regardless of earlier outcomes
func (r *Registry) SetFinalizer(
	id api.StepID, factory Factory, opts ...MetaOption,
) error {
	spec, err := r.newSpec(id, factory, opts)
	if err != nil {
		return err
	}
	r.finalizer = spec
	return nil
}

// MustSetFinalizer designates the finalizer and panics on error
func (r *Registry) MustSetFinalizer(
	id api.StepID, factory Factory, opts ...MetaOption,
) {
	if err := r.SetFinalizer(id, factory, opts...); err != nil {
		panic(err)
	}
}

// Len returns the number of registered regular steps
func (r *Registry) Len() int {
	return len(r.entries)
}

// Plan snapshots the registry into an immutable plan
func (r *Registry) Plan() (*Plan, error) {
	if len(r.entries) == 0 {
		return nil, ErrEmptyPlan
	}
	return &Plan{
		steps:     slices.Clone(r.entries),
		finalizer: r.finalizer,
	}, nil
}

func (r *Registry) newSpec(
	id api.StepID, factory Factory, opts []MetaOption,
) (*Spec, error) {
	if id == "" {
		return nil, ErrStepIDRequired
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilFactory, id)
	}

	meta := api.StepMeta{StopOnFail: true}
	for _, apply := range opts {
		apply(&meta)
	}
	meta = meta.Resolve(id)
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("step %s: %w", id, err)
	}
	return &Spec{ID: id, New: factory, Meta: meta}, nil
}

// Steps returns the plan's ordered step specs
func (p *Plan) Steps() []Spec {
	return slices.Clone(p.steps)
}

// Len returns the number of regular steps in the plan
func (p *Plan) Len() int {
	return len(p.steps)
}

// Finalizer returns the plan's finalizer spec, if any
func (p *Plan) Finalizer() *Spec {
	return p.finalizer
}
