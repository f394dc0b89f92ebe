package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/client"
)

func newStub(t *testing.T, handler http.Handler) *client.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	res, err := client.New(server.URL, client.WithTimeout(5*time.Second))
	require.NoError(t, err)
	return res
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := client.New("")
	assert.ErrorIs(t, err, client.ErrEmptyBaseURL)
}

func TestHealth(t *testing.T) {
	cl := newStub(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/health", r.URL.Path)
			writeJSON(t, w, http.StatusOK, api.HealthResponse{
				Service: "station",
				Status:  "ok",
				Active:  true,
			})
		},
	))

	res, err := cl.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "station", res.Service)
	assert.True(t, res.Active)
}

func TestStartRun(t *testing.T) {
	cl := newStub(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/runs", r.URL.Path)
			writeJSON(t, w, http.StatusAccepted, api.RunStartedResponse{
				Message: "run started",
				RunID:   "run-42",
			})
		},
	))

	id, err := cl.StartRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.RunID("run-42"), id)
}

func TestStartRunConflict(t *testing.T) {
	cl := newStub(t, http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusConflict, api.ErrorResponse{
				Error: "a run is already active",
			})
		},
	))

	_, err := cl.StartRun(context.Background())
	assert.ErrorIs(t, err, client.ErrRunActive)
}

func TestGetRun(t *testing.T) {
	cl := newStub(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/runs/run-42", r.URL.Path)
			writeJSON(t, w, http.StatusOK, &api.RunResult{
				ID:      "run-42",
				Station: "bench-1",
				Verdict: api.VerdictPassed,
				Stop:    api.StopCompleted,
			})
		},
	))

	res, err := cl.GetRun(context.Background(), "run-42")
	require.NoError(t, err)
	assert.Equal(t, api.RunID("run-42"), res.ID)
	assert.Equal(t, api.VerdictPassed, res.Verdict)
}

func TestGetRunNotFound(t *testing.T) {
	cl := newStub(t, http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusNotFound, api.ErrorResponse{
				Error: "run not found",
			})
		},
	))

	_, err := cl.GetRun(context.Background(), "run-42")
	assert.ErrorIs(t, err, client.ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	cl := newStub(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/runs", r.URL.Path)
			writeJSON(t, w, http.StatusOK, api.RunsListResponse{
				Runs: []*api.RunDigest{
					{ID: "run-2", Verdict: api.VerdictPassed},
					{ID: "run-1", Verdict: api.VerdictFailed},
				},
				Count: 2,
			})
		},
	))

	runs, err := cl.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, api.RunID("run-2"), runs[0].ID)
}

func TestReport(t *testing.T) {
	cl := newStub(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/runs/run-42/report", r.URL.Path)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("Run:      run-42\n"))
		},
	))

	text, err := cl.Report(context.Background(), "run-42")
	require.NoError(t, err)
	assert.Contains(t, text, "run-42")
}

func TestServerError(t *testing.T) {
	cl := newStub(t, http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError,
				api.ErrorResponse{Error: "history unavailable"})
		},
	))

	_, err := cl.Health(context.Background())
	assert.ErrorIs(t, err, client.ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "history unavailable")
}

func TestUndecodableReply(t *testing.T) {
	cl := newStub(t, http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("not json"))
		},
	))

	_, err := cl.Health(context.Background())
	assert.ErrorIs(t, err, client.ErrUndecodableReply)
}
