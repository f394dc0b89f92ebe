package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hwbench/station/pkg/api"
)

func TestDisplayNameFor(t *testing.T) {
	tests := []struct {
		id       api.StepID
		expected string
	}{
		{"EmptyStep", "Empty Step"},
		{"StepWithButtons", "Step With Buttons"},
		{"ReadADCChannel", "Read ADC Channel"},
		{"ConnectToDUT", "Connect To DUT"},
		{"probe_power_rail", "probe power rail"},
		{"flash-firmware", "flash firmware"},
		{"Shutdown", "Shutdown"},
		{"ADC", "ADC"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, api.DisplayNameFor(tc.id), string(tc.id))
	}
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, api.RunID("run-42"), api.SanitizeID(api.RunID("Run 42")))
	assert.Equal(t, api.StepID("probe.rail"),
		api.SanitizeID(api.StepID("Probe.Rail!")))
	assert.Equal(t, api.StepID("x"), api.SanitizeID(api.StepID("--x--")))
}
