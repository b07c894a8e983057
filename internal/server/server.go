package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/asybalance/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/asybalance/internal/runner"
	"github.com/GriffinCanCode/asybalance/internal/server/middleware"
)

// Config contains server configuration
type Config struct {
	Runner   *runner.Runner
	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
	Tracer   *tracing.Tracer

	CORS             middleware.CORSConfig
	RateLimit        middleware.RateLimitConfig
	RateLimitEnabled bool

	// Signature prefixes capability calls of remote sessions
	Signature string
	// CallTimeout bounds one remote capability call
	CallTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
	Development     bool
}

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg      Config
	router   *gin.Engine
	upgrader websocket.Upgrader
	log      *zap.Logger
	started  time.Time
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("server: runner is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = monitoring.NewMetrics(nil)
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracing.New(cfg.Logger)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS = middleware.DefaultCORSConfig()
	}

	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log:     cfg.Logger,
		started: time.Now(),
	}
	s.router = s.setupRouter()
	return s, nil
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.cfg.Tracer))
	router.Use(monitoring.Middleware(s.cfg.Metrics))
	router.Use(middleware.CORS(s.cfg.CORS))
	if s.cfg.RateLimitEnabled {
		router.Use(middleware.RateLimit(s.cfg.RateLimit))
	}

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(monitoring.Handler(s.cfg.Gatherer)))

	v1 := router.Group("/v1")
	v1.POST("/execute", s.handleExecute)
	v1.GET("/session", s.handleSession)

	return router
}

// Handler exposes the router for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	defer s.cfg.Tracer.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
