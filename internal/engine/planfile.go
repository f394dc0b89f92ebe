package engine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/step"
)

type (
	// PlanFile is a plan declared in YAML, binding scripted steps and their
	// metadata to an execution order
	PlanFile struct {
		Station   string      `yaml:"station"`
		Steps     []*PlanStep `yaml:"steps"`
		Finalizer *PlanStep   `yaml:"finalizer"`
	}

	// PlanStep declares one scripted step
	PlanStep struct {
		ID          string    `yaml:"id"`
		DisplayName string    `yaml:"display_name"`
		Description string    `yaml:"description"`
		Image       string    `yaml:"image"`
		Link        *PlanLink `yaml:"link"`
		StopOnFail  *bool     `yaml:"stop_on_fail"`
		Script      string    `yaml:"script"`
	}

	// PlanLink declares a step's console link
	PlanLink struct {
		URL  string `yaml:"url"`
		Text string `yaml:"text"`
	}
)

var (
	ErrPlanDecode = errors.New("undecodable plan file")
	ErrNoScript   = errors.New("step has no script")
)

// LoadPlanFile reads a YAML plan declaration and compiles its scripted
// steps into an executable plan
func LoadPlanFile(path string, env *LuaEnv) (*PlanFile, *step.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var pf PlanFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrPlanDecode, err)
	}

	plan, err := pf.Compile(env)
	if err != nil {
		return nil, nil, err
	}
	return &pf, plan, nil
}

// Compile registers every declared step, compiling its script, and
// snapshots the registry into a plan
func (pf *PlanFile) Compile(env *LuaEnv) (*step.Plan, error) {
	reg := step.NewRegistry()
	for _, ps := range pf.Steps {
		factory, opts, err := ps.bind(env)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(api.StepID(ps.ID), factory, opts...); err != nil {
			return nil, err
		}
	}
	if pf.Finalizer != nil {
		factory, opts, err := pf.Finalizer.bind(env)
		if err != nil {
			return nil, err
		}
		fid := api.StepID(pf.Finalizer.ID)
		if err := reg.SetFinalizer(fid, factory, opts...); err != nil {
			return nil, err
		}
	}
	return reg.Plan()
}

func (ps *PlanStep) bind(
	env *LuaEnv,
) (step.Factory, []step.MetaOption, error) {
	if ps.Script == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoScript, ps.ID)
	}
	factory, err := env.Step(api.StepID(ps.ID), ps.Script)
	if err != nil {
		return nil, nil, err
	}
	return factory, ps.metaOptions(), nil
}

func (ps *PlanStep) metaOptions() []step.MetaOption {
	var opts []step.MetaOption
	if ps.DisplayName != "" {
		opts = append(opts, step.WithDisplayName(ps.DisplayName))
	}
	if ps.Description != "" {
		opts = append(opts, step.WithDescription(ps.Description))
	}
	if ps.Image != "" {
		opts = append(opts, step.WithImage(ps.Image))
	}
	if ps.Link != nil {
		if ps.Link.Text != "" {
			opts = append(opts, step.WithLinkText(ps.Link.URL, ps.Link.Text))
		} else {
			opts = append(opts, step.WithLink(ps.Link.URL))
		}
	}
	if ps.StopOnFail != nil && !*ps.StopOnFail {
		opts = append(opts, step.WithContinueOnFail())
	}
	return opts
}
