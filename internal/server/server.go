package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/hwbench/station"
	"github.com/hwbench/station/internal/console"
	"github.com/hwbench/station/internal/report"
	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/step"
)

type (
	// Server implements the station's HTTP API. It owns the operator
	// console session and admits at most one active run at a time
	Server struct {
		session  *console.Session
		secrets  step.Secrets
		history  *report.History
		archiver *report.Archiver
		plan     *step.Plan
		config   *Config
		mu       sync.Mutex
		active   bool
	}

	// Config carries the run-facing settings the server needs
	Config struct {
		StationID        string
		HistoryListLimit int
		RequestTimeout   time.Duration
		FinalizerVerdict bool
	}
)

// NewServer creates the HTTP API server. The archiver may be nil when no
// archive bucket is configured
func NewServer(
	plan *step.Plan, secrets step.Secrets, history *report.History,
	archiver *report.Archiver, cfg *Config,
) *Server {
	var opts []console.Option
	if cfg.RequestTimeout > 0 {
		opts = append(opts, console.WithRequestTimeout(cfg.RequestTimeout))
	}
	return &Server{
		session:  console.NewSession(opts...),
		secrets:  secrets,
		history:  history,
		archiver: archiver,
		plan:     plan,
		config:   cfg,
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)

	runs := router.Group("/runs")
	{
		runs.POST("", s.startRun)
		runs.GET("", s.listRuns)
		runs.GET("/:runID", s.getRun)
		runs.GET("/:runID/report", s.getRunReport)
	}

	router.GET("/console/ws", s.handleWebSocket)

	return router
}

// Close tears down the operator console session, unblocking any run
// waiting on an interaction
func (s *Server) Close() {
	s.session.Close()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Service: station.Name,
		Status:  "ok",
		Active:  s.isActive(),
	})
}

func (s *Server) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
