package log_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/log"
)

func TestAttrs(t *testing.T) {
	attr := log.RunID(api.RunID("run-1"))
	assert.Equal(t, "run_id", attr.Key)
	assert.Equal(t, "run-1", attr.Value.String())

	attr = log.StepID(api.StepID("ProbeRail"))
	assert.Equal(t, "step_id", attr.Key)

	attr = log.Stream(api.StreamErr)
	assert.Equal(t, "err", attr.Value.String())
}

func TestErrorAttr(t *testing.T) {
	attr := log.Error(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	attr = log.Error(nil)
	assert.Equal(t, "", attr.Value.String())
}

func TestNewWithLevel(t *testing.T) {
	logger := log.NewWithLevel("station", "test", "0.0.0", slog.LevelDebug)
	assert.NotNil(t, logger)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}
