// Package server exposes the run executor over HTTP (gin) and gRPC.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/runstore"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
)

const maxListLimit = 1000

// HTTPServer serves the JSON API.
type HTTPServer struct {
	engine      *gin.Engine
	executor    *runstore.Executor
	logger      *slog.Logger
	createLimit *rate.Limiter
}

// HTTPOption configures an HTTPServer.
type HTTPOption func(*HTTPServer)

// WithCreateLimiter throttles POST /v1/runs; nil disables throttling.
func WithCreateLimiter(l *rate.Limiter) HTTPOption {
	return func(s *HTTPServer) { s.createLimit = l }
}

// CreateRunRequest is the body of POST /v1/runs.
type CreateRunRequest struct {
	RunID string          `json:"run_id,omitempty"`
	Input models.RunInput `json:"input"`
	// Start begins execution right after creation.
	Start bool `json:"start,omitempty"`
}

// RunResponse wraps a run and, when finished, its result without trajectory.
type RunResponse struct {
	Run    models.Run        `json:"run"`
	Result *models.RunResult `json:"result,omitempty"`
}

// NewHTTPServer builds the router. gatherer backs GET /metrics and may be nil.
func NewHTTPServer(executor *runstore.Executor, gatherer prometheus.Gatherer, l *slog.Logger, opts ...HTTPOption) *HTTPServer {
	if l == nil {
		l = logger.Discard()
	}
	s := &HTTPServer{
		engine:   gin.New(),
		executor: executor,
		logger:   l,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/healthz", s.handleHealthz)
	if gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.engine.Group("/v1")
	v1.POST("/runs", limitCreate(s.createLimit), s.handleCreateRun)
	v1.GET("/runs", s.handleListRuns)
	v1.GET("/runs/:id", s.handleGetRun)
	v1.POST("/runs/:id/start", s.handleStartRun)
	v1.POST("/runs/:id/stop", s.handleStopRun)
	v1.GET("/runs/:id/trajectory", s.handleTrajectory)

	return s
}

// Handler returns the http.Handler of the API.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *HTTPServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCreateRun handles POST /v1/runs
func (s *HTTPServer) handleCreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := s.executor.Submit(req.RunID, req.Input)
	if err != nil {
		if errors.Is(err, runstore.ErrRunExists) || errors.Is(err, runstore.ErrStoreFull) {
			s.writeError(c, statusFor(err), err.Error())
			return
		}
		s.writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("run created (HTTP)", "run_id", rec.Run.ID)

	if req.Start {
		if rec, err = s.executor.Start(rec.Run.ID); err != nil {
			s.writeError(c, statusFor(err), err.Error())
			return
		}
	}
	c.JSON(http.StatusCreated, toResponse(rec))
}

// handleListRuns handles GET /v1/runs?limit=n&status=s
func (s *HTTPServer) handleListRuns(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxListLimit)
	}
	status := models.RunStatus(c.Query("status"))

	recs := s.executor.Store().List(maxListLimit)
	runs := make([]models.Run, 0, min(limit, len(recs)))
	for _, rec := range recs {
		if status != "" && rec.Run.Status != status {
			continue
		}
		runs = append(runs, rec.Run)
		if len(runs) == limit {
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// handleGetRun handles GET /v1/runs/:id
func (s *HTTPServer) handleGetRun(c *gin.Context) {
	rec, ok := s.executor.Store().Get(c.Param("id"))
	if !ok {
		s.writeError(c, http.StatusNotFound, "run not found")
		return
	}
	c.JSON(http.StatusOK, toResponse(rec))
}

// handleStartRun handles POST /v1/runs/:id/start
func (s *HTTPServer) handleStartRun(c *gin.Context) {
	rec, err := s.executor.Start(c.Param("id"))
	if err != nil {
		s.writeError(c, statusFor(err), err.Error())
		return
	}
	s.logger.Info("run started (HTTP)", "run_id", rec.Run.ID)
	c.JSON(http.StatusOK, toResponse(rec))
}

// handleStopRun handles POST /v1/runs/:id/stop
func (s *HTTPServer) handleStopRun(c *gin.Context) {
	rec, err := s.executor.Stop(c.Param("id"))
	if err != nil {
		s.writeError(c, statusFor(err), err.Error())
		return
	}
	s.logger.Info("run cancelled (HTTP)", "run_id", rec.Run.ID)
	c.JSON(http.StatusOK, toResponse(rec))
}

// handleTrajectory handles GET /v1/runs/:id/trajectory
func (s *HTTPServer) handleTrajectory(c *gin.Context) {
	rec, ok := s.executor.Store().Get(c.Param("id"))
	if !ok {
		s.writeError(c, http.StatusNotFound, "run not found")
		return
	}
	if rec.Result == nil {
		s.writeError(c, http.StatusConflict, "run has no result yet")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id": rec.Run.ID,
		"points": rec.Result.Trajectory,
	})
}

func (s *HTTPServer) writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func toResponse(rec *runstore.Record) RunResponse {
	resp := RunResponse{Run: rec.Run}
	if rec.Result != nil {
		res := *rec.Result
		res.Trajectory = nil
		resp.Result = &res
	}
	return resp
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, runstore.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, runstore.ErrRunTerminal),
		errors.Is(err, runstore.ErrRunExists),
		errors.Is(err, runstore.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, runstore.ErrStoreFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, runstore.ErrRunIDMissing):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
