package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/hwbench/station"
	"github.com/hwbench/station/internal/config"
	"github.com/hwbench/station/internal/engine"
	"github.com/hwbench/station/internal/report"
	"github.com/hwbench/station/internal/secret"
	"github.com/hwbench/station/internal/server"
	"github.com/hwbench/station/pkg/log"
	"github.com/hwbench/station/pkg/step"
)

type stationd struct {
	cfg        *config.Config
	secrets    step.Secrets
	keystore   *secret.Keystore
	history    *report.History
	archiver   *report.Archiver
	plan       *step.Plan
	stationID  string
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrMissingPlanPath = errors.New("plan path required")
	ErrLoadPlan        = errors.New("failed to load plan")
	ErrOpenHistory     = errors.New("failed to open run history")
	ErrOpenArchive     = errors.New("failed to open archive bucket")
	ErrOpenSecrets     = errors.New("failed to open secret store")
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			slog.Error("Invalid configuration", log.Error(err))
			os.Exit(1)
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &stationd{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start station", log.Error(err))
		os.Exit(1)
	}
}

func (s *stationd) run() error {
	if err := s.initializeSecrets(); err != nil {
		return err
	}
	if err := s.initializePlan(); err != nil {
		return err
	}
	if err := s.initializeReporting(); err != nil {
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *stationd) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Station starting",
		slog.String("log_level", s.cfg.LogLevel),
		slog.String("plan_path", s.cfg.PlanPath),
		slog.String("history_path", s.cfg.HistoryPath),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

// initializeSecrets picks the secret backend: a plain-text file for
// development when configured, otherwise the encrypted keystore when a
// station key is present, otherwise an empty store
func (s *stationd) initializeSecrets() error {
	if s.cfg.SecretsPath != "" {
		static, err := secret.LoadStatic(s.cfg.SecretsPath)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOpenSecrets, err)
		}
		slog.Warn("Using plain-text secrets file",
			slog.String("path", s.cfg.SecretsPath))
		s.secrets = static
		return nil
	}

	if s.cfg.Keystore.KeyHex != "" {
		ks, err := secret.NewKeystore(s.cfg.Keystore)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOpenSecrets, err)
		}
		s.keystore = ks
		s.secrets = ks
		return nil
	}

	s.secrets = secret.NewStatic(nil)
	return nil
}

func (s *stationd) initializePlan() error {
	if s.cfg.PlanPath == "" {
		return ErrMissingPlanPath
	}

	pf, plan, err := engine.LoadPlanFile(s.cfg.PlanPath, engine.NewLuaEnv())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadPlan, err)
	}

	s.plan = plan
	s.stationID = s.cfg.StationID
	if s.stationID == "" {
		s.stationID = pf.Station
	}

	slog.Info("Plan loaded",
		slog.String("station", s.stationID),
		slog.Int("steps", plan.Len()),
		slog.Bool("finalizer", plan.Finalizer() != nil))
	return nil
}

func (s *stationd) initializeReporting() error {
	history, err := report.NewHistory(s.cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenHistory, err)
	}
	s.history = history

	if s.cfg.ArchiveBucketURL != "" {
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()

		archiver, err := report.NewArchiver(
			ctx, s.cfg.ArchiveBucketURL, s.cfg.ArchivePrefix,
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOpenArchive, err)
		}
		s.archiver = archiver
	}
	return nil
}

func (s *stationd) startServer() {
	s.apiServer = server.NewServer(
		s.plan, s.secrets, s.history, s.archiver, &server.Config{
			StationID:        s.stationID,
			HistoryListLimit: s.cfg.HistoryListLimit,
			RequestTimeout:   time.Duration(s.cfg.RequestTimeout),
			FinalizerVerdict: s.cfg.FinalizerVerdict,
		})
	router := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *stationd) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), time.Duration(s.cfg.ShutdownTimeout),
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.Close()

	if err := s.history.Close(); err != nil {
		slog.Error("History close failed", log.Error(err))
	}
	if s.archiver != nil {
		if err := s.archiver.Close(); err != nil {
			slog.Error("Archive close failed", log.Error(err))
		}
	}
	if s.keystore != nil {
		if err := s.keystore.Close(); err != nil {
			slog.Error("Keystore close failed", log.Error(err))
		}
	}

	slog.Info("Station exited")
}
