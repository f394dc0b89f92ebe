package api_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hwbench/station/pkg/api"
)

func TestComputeVerdict(t *testing.T) {
	res := &api.RunResult{
		Stop: api.StopCompleted,
		Steps: []*api.StepExecution{
			{StepID: "A", Outcome: api.Passed()},
			{StepID: "B", Outcome: api.Skipped()},
		},
	}
	assert.Equal(t, api.VerdictPassed, res.ComputeVerdict(false))

	res.Steps = append(res.Steps, &api.StepExecution{
		StepID: "C", Outcome: api.Failed("out of tolerance"),
	})
	assert.Equal(t, api.VerdictFailed, res.ComputeVerdict(false))
}

func TestComputeVerdictAborted(t *testing.T) {
	res := &api.RunResult{
		Stop: api.StopAborted,
		Steps: []*api.StepExecution{
			{StepID: "A", Outcome: api.Passed()},
		},
	}
	assert.Equal(t, api.VerdictFailed, res.ComputeVerdict(false))
}

func TestComputeVerdictFinalizerWeight(t *testing.T) {
	res := &api.RunResult{
		Stop: api.StopCompleted,
		Steps: []*api.StepExecution{
			{StepID: "A", Outcome: api.Passed()},
		},
		Finalizer: &api.StepExecution{
			StepID:  "Shutdown",
			Outcome: api.Errored(errors.New("relay stuck")),
		},
	}

	// by default a failing finalizer never flips the verdict
	assert.Equal(t, api.VerdictPassed, res.ComputeVerdict(false))
	assert.Equal(t, api.VerdictFailed, res.ComputeVerdict(true))
}

func TestInfraErrorWrapping(t *testing.T) {
	base := errors.New("socket closed")
	infra := api.AsInfra(base)

	assert.True(t, api.IsInfra(infra))
	assert.ErrorIs(t, infra, base)

	// wrapping is idempotent
	assert.Same(t, infra, api.AsInfra(infra))

	// classification survives further wrapping
	wrapped := fmt.Errorf("request: %w", infra)
	assert.True(t, api.IsInfra(wrapped))

	assert.False(t, api.IsInfra(base))
	assert.False(t, api.IsInfra(nil))
}

func TestOutcomeBad(t *testing.T) {
	assert.False(t, api.Passed().Bad())
	assert.False(t, api.Skipped().Bad())
	assert.True(t, api.Failed("nope").Bad())
	assert.True(t, api.Errored(errors.New("boom")).Bad())
}
