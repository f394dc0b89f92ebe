package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hwbench/station/internal/engine"
	"github.com/hwbench/station/internal/report"
	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/log"
)

var ErrRunActive = errors.New("a run is already active")

func (s *Server) startRun(c *gin.Context) {
	runID := api.RunID(uuid.NewString())

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, api.ErrorResponse{
			Error:  ErrRunActive.Error(),
			Status: http.StatusConflict,
		})
		return
	}
	s.active = true
	s.mu.Unlock()

	go s.executeRun(runID)

	c.JSON(http.StatusAccepted, api.RunStartedResponse{
		Message: "run started",
		RunID:   runID,
	})
}

func (s *Server) executeRun(runID api.RunID) {
	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	opts := []engine.Option{
		engine.WithStation(s.config.StationID),
		engine.WithRunIDs(func() api.RunID { return runID }),
	}
	if s.config.FinalizerVerdict {
		opts = append(opts, engine.WithFinalizerVerdict())
	}
	seq := engine.NewSequencer(s.session, s.secrets, opts...)

	res := seq.Execute(context.Background(), s.plan)

	ctx := context.Background()
	if err := s.history.Save(ctx, res); err != nil {
		slog.Error("Failed to record run",
			log.RunID(res.ID),
			log.Error(err))
	}
	if s.archiver != nil {
		if err := s.archiver.Put(ctx, res); err != nil {
			slog.Error("Failed to archive run",
				log.RunID(res.ID),
				log.Error(err))
		}
	}
}

func (s *Server) listRuns(c *gin.Context) {
	digests, err := s.history.List(c.Request.Context(),
		s.config.HistoryListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, api.RunsListResponse{
		Runs:  digests,
		Count: len(digests),
	})
}

func (s *Server) getRun(c *gin.Context) {
	res, ok := s.lookupRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getRunReport(c *gin.Context) {
	res, ok := s.lookupRun(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", report.Render(res))
}

func (s *Server) lookupRun(c *gin.Context) (*api.RunResult, bool) {
	runID := api.RunID(c.Param("runID"))
	res, err := s.history.Get(c.Request.Context(), runID)
	if errors.Is(err, report.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusNotFound,
		})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusInternalServerError,
		})
		return nil, false
	}
	return res, true
}
