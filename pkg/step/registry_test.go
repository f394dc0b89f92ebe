package step_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/step"
)

func noop() step.Step {
	return step.Func(func(*step.Context) error { return nil })
}

func TestRegistryDefaults(t *testing.T) {
	r := step.NewRegistry()
	require.NoError(t, r.Add("ProbePowerRail", noop))

	plan, err := r.Plan()
	require.NoError(t, err)
	require.Equal(t, 1, plan.Len())

	spec := plan.Steps()[0]
	assert.Equal(t, api.StepID("ProbePowerRail"), spec.ID)
	assert.Equal(t, "Probe Power Rail", spec.Meta.DisplayName)
	assert.Equal(t, "Probe Power Rail", spec.Meta.Description)
	assert.True(t, spec.Meta.StopOnFail)
	assert.Nil(t, plan.Finalizer())
}

func TestRegistryMetaOptions(t *testing.T) {
	r := step.NewRegistry()
	require.NoError(t, r.Add("FlashFirmware", noop,
		step.WithDisplayName("Flash DUT Firmware"),
		step.WithDescription("Flashes the release image over SWD"),
		step.WithImage("station/img/jig.jpg"),
		step.WithLinkText("https://example.com/runbook", "Runbook"),
		step.WithContinueOnFail(),
	))

	plan, err := r.Plan()
	require.NoError(t, err)
	meta := plan.Steps()[0].Meta

	assert.Equal(t, "Flash DUT Firmware", meta.DisplayName)
	assert.Equal(t, "Flashes the release image over SWD", meta.Description)
	assert.Equal(t, "station/img/jig.jpg", meta.Image)
	require.NotNil(t, meta.Link)
	assert.Equal(t, "Runbook", meta.Link.Text)
	assert.False(t, meta.StopOnFail)
}

func TestRegistryErrors(t *testing.T) {
	r := step.NewRegistry()

	assert.ErrorIs(t, r.Add("", noop), step.ErrStepIDRequired)
	assert.ErrorIs(t, r.Add("X", nil), step.ErrNilFactory)

	require.NoError(t, r.Add("X", noop))
	assert.ErrorIs(t, r.Add("X", noop), step.ErrDuplicateStep)

	empty := step.NewRegistry()
	_, err := empty.Plan()
	assert.ErrorIs(t, err, step.ErrEmptyPlan)
}

func TestRegistryFinalizer(t *testing.T) {
	r := step.NewRegistry()
	require.NoError(t, r.Add("Probe", noop))
	require.NoError(t, r.SetFinalizer("Shutdown", noop))

	plan, err := r.Plan()
	require.NoError(t, err)
	require.NotNil(t, plan.Finalizer())
	assert.Equal(t, api.StepID("Shutdown"), plan.Finalizer().ID)
	assert.Equal(t, "Shutdown", plan.Finalizer().Meta.DisplayName)
}

func TestPlanIsSnapshot(t *testing.T) {
	r := step.NewRegistry()
	require.NoError(t, r.Add("A", noop))

	plan, err := r.Plan()
	require.NoError(t, err)

	// later registrations never mutate an existing plan
	require.NoError(t, r.Add("B", noop))
	assert.Equal(t, 1, plan.Len())
}

func TestFailureSignal(t *testing.T) {
	err := step.Failf("voltage %0.2fV out of range", 2.91)
	detail, ok := step.IsFailure(err)
	assert.True(t, ok)
	assert.Equal(t, "voltage 2.91V out of range", detail)

	_, ok = step.IsFailure(assert.AnError)
	assert.False(t, ok)
}
