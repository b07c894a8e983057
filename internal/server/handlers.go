package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/asybalance/internal/providers/storage"
	"github.com/GriffinCanCode/asybalance/internal/rpc"
	"github.com/GriffinCanCode/asybalance/internal/runner"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "asybalance",
		"status":  "running",
		"endpoints": []string{
			"POST /v1/execute",
			"GET /v1/session",
			"GET /health",
			"GET /metrics",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.cfg.Metrics.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"uptime_seconds":  int64(time.Since(s.started).Seconds()),
		"active_sessions": snap.ActiveSessions,
		"total_sessions":  snap.TotalSessions,
		"total_requests":  snap.TotalRequests,
		"total_errors":    snap.TotalErrors,
	})
}

func (s *Server) handleExecute(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AccountID == "" {
		req.AccountID = c.GetHeader("X-Account-Id")
	}

	job, err := runner.JobFromRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	resp, err := s.cfg.Runner.Run(ctx, job)
	if resp != nil {
		c.Header("X-Session-Id", resp.SessionID)
	}
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case isBadJob(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case resp != nil:
		c.JSON(http.StatusInternalServerError, resp)
	default:
		s.log.Error("Execution setup failed",
			zap.String("trace_id", string(tracing.GetTraceID(ctx))),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// handleSession runs a remote session: the peer submits an execute frame
// and serves storage and trace calls until the result frame.
func (s *Server) handleSession(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	opts := []rpc.Option{
		rpc.WithLogger(s.log),
		rpc.WithFrameObserver(s.cfg.Metrics),
	}
	if s.cfg.CallTimeout > 0 {
		opts = append(opts, rpc.WithCallTimeout(s.cfg.CallTimeout))
	}
	conn := rpc.NewConn(ws, opts...)
	defer conn.Close()

	s.cfg.Metrics.IncWSConnections()
	defer s.cfg.Metrics.DecWSConnections()

	ctx := c.Request.Context()
	req, err := conn.ReadExecute(ctx)
	if err != nil {
		s.log.Warn("Session ended before execute",
			zap.String("trace_id", string(tracing.GetTraceID(ctx))),
			zap.Error(err))
		return
	}

	job, err := runner.JobFromRequest(req)
	if err != nil {
		s.fail(conn, err)
		return
	}
	job.Channel = conn
	job.Signature = s.cfg.Signature

	resp, err := s.cfg.Runner.Run(ctx, job)
	if err != nil && resp == nil {
		s.fail(conn, err)
		return
	}
	if err := conn.SendBody(rpc.FrameResult, resp); err != nil {
		s.log.Warn("Failed to deliver session result", zap.Error(err))
	}
}

func (s *Server) fail(conn *rpc.Conn, err error) {
	if sendErr := conn.Send(rpc.Frame{Type: rpc.FrameError, Data: err.Error()}); sendErr != nil {
		s.log.Warn("Failed to deliver session error", zap.Error(sendErr))
	}
}

func isBadJob(err error) bool {
	return errors.Is(err, runner.ErrEmptyScript) ||
		errors.Is(err, storage.ErrInvalidAccount)
}
