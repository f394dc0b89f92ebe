package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwbench/station/internal/report"
	"github.com/hwbench/station/internal/server"
	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/step"
)

type testEnv struct {
	Server  *server.Server
	HTTP    *httptest.Server
	History *report.History
}

func init() {
	gin.SetMode(gin.TestMode)
}

func (e *testEnv) Cleanup() {
	e.HTTP.Close()
	e.Server.Close()
	_ = e.History.Close()
}

func (e *testEnv) URL(path string) string {
	return e.HTTP.URL + path
}

func newTestEnv(t *testing.T, plan *step.Plan) *testEnv {
	t.Helper()
	history, err := report.NewHistory(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)

	srv := server.NewServer(plan, nil, history, nil, &server.Config{
		StationID:        "bench-1",
		HistoryListLimit: 50,
	})
	env := &testEnv{
		Server:  srv,
		HTTP:    httptest.NewServer(srv.SetupRoutes()),
		History: history,
	}
	t.Cleanup(env.Cleanup)
	return env
}

func passingPlan(t *testing.T) *step.Plan {
	t.Helper()
	reg := step.NewRegistry()
	reg.MustAdd("PowerOn", func() step.Step {
		return step.Func(func(c *step.Context) error {
			c.Log("rails stable")
			return nil
		})
	})
	reg.MustAdd("SelfTest", func() step.Step {
		return step.Func(func(c *step.Context) error { return nil })
	})
	plan, err := reg.Plan()
	require.NoError(t, err)
	return plan
}

func startRun(t *testing.T, env *testEnv) api.RunID {
	t.Helper()
	resp, err := http.Post(env.URL("/runs"), "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var started api.RunStartedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	require.NotEmpty(t, started.RunID)
	return started.RunID
}

func awaitRun(t *testing.T, env *testEnv, id api.RunID) *api.RunResult {
	t.Helper()
	var res *api.RunResult
	require.Eventually(t, func() bool {
		resp, err := http.Get(env.URL("/runs/" + string(id)))
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		res = &api.RunResult{}
		return json.NewDecoder(resp.Body).Decode(res) == nil
	}, 5*time.Second, 10*time.Millisecond)
	return res
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, passingPlan(t))

	resp, err := http.Get(env.URL("/health"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "station", health.Service)
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Active)
}

func TestStartRunAndFetchRecord(t *testing.T) {
	env := newTestEnv(t, passingPlan(t))

	id := startRun(t, env)
	res := awaitRun(t, env, id)

	assert.Equal(t, id, res.ID)
	assert.Equal(t, "bench-1", res.Station)
	assert.Equal(t, api.VerdictPassed, res.Verdict)
	require.Len(t, res.Steps, 2)
	require.Len(t, res.Steps[0].Logs, 1)
	assert.Equal(t, "rails stable", res.Steps[0].Logs[0].Text)
}

func TestRunReport(t *testing.T) {
	env := newTestEnv(t, passingPlan(t))

	id := startRun(t, env)
	awaitRun(t, env, id)

	resp, err := http.Get(env.URL("/runs/" + string(id) + "/report"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t,
		resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "Verdict:  passed")
	assert.Contains(t, text, "Power On")
	assert.Contains(t, text, "Self Test")
}

func TestListRuns(t *testing.T) {
	env := newTestEnv(t, passingPlan(t))

	id := startRun(t, env)
	awaitRun(t, env, id)

	resp, err := http.Get(env.URL("/runs"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list api.RunsListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, id, list.Runs[0].ID)
	assert.Equal(t, api.VerdictPassed, list.Runs[0].Verdict)
}

func TestRunNotFound(t *testing.T) {
	env := newTestEnv(t, passingPlan(t))

	resp, err := http.Get(env.URL("/runs/no-such-run"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, strings.Contains(body.Error, "run not found"))
}

func TestConcurrentRunConflict(t *testing.T) {
	release := make(chan struct{})
	reg := step.NewRegistry()
	reg.MustAdd("Holds", func() step.Step {
		return step.Func(func(c *step.Context) error {
			<-release
			return nil
		})
	})
	plan, err := reg.Plan()
	require.NoError(t, err)

	env := newTestEnv(t, plan)
	id := startRun(t, env)

	resp, err := http.Post(env.URL("/runs"), "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(release)
	res := awaitRun(t, env, id)
	assert.Equal(t, api.VerdictPassed, res.Verdict)
}
