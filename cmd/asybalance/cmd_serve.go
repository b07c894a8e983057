package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/asybalance/internal/runner"
	"github.com/GriffinCanCode/asybalance/internal/server"
	"github.com/GriffinCanCode/asybalance/internal/server/middleware"
)

var (
	listenPort string
	listenHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the execution API",
	Long: `Starts the HTTP execution API.

Routes:
  POST /v1/execute   run a provider and return its results
  GET  /v1/session   WebSocket session with caller-owned storage and trace
  GET  /health       liveness and session counters
  GET  /metrics      Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: serve,
}

func init() {
	serveCmd.Flags().StringVar(&listenPort, "port", "", "listen port (default: PORT)")
	serveCmd.Flags().StringVar(&listenHost, "host", "", "listen host (default: HOST)")
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if listenPort == "" {
		listenPort = cfg.Server.Port
	}
	if listenHost == "" {
		listenHost = cfg.Server.Host
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	r := runner.New(runnerConfig(cfg, store, metrics, nil, logger.Logger))
	srv, err := server.New(server.Config{
		Runner:   r,
		Metrics:  metrics,
		Gatherer: reg,
		Logger:   logger.Logger,
		CORS:     middleware.DefaultCORSConfig().WithOrigins(cfg.Server.AllowOrigins),
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			IdleTimeout:       middleware.DefaultRateLimitConfig().IdleTimeout,
		},
		RateLimitEnabled: cfg.RateLimit.Enabled,
		Signature:        cfg.Remote.Signature,
		CallTimeout:      cfg.Remote.CallTimeout,
		Development:      dev || cfg.Logging.Development,
	})
	if err != nil {
		return err
	}

	logger.Info("Starting execution API",
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("max_sessions", cfg.Session.MaxConcurrent))
	return srv.Run(ctx, net.JoinHostPort(listenHost, listenPort))
}
