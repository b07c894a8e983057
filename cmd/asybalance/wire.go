package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/config"
	"github.com/GriffinCanCode/asybalance/internal/host"
	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/providers/http/client"
	"github.com/GriffinCanCode/asybalance/internal/providers/storage"
	"github.com/GriffinCanCode/asybalance/internal/runner"
	"github.com/GriffinCanCode/asybalance/internal/sandbox"
)

// openStore opens the account data backend selected by cfg
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return storage.NewMemory(), nil
	case config.StorageFile:
		return storage.NewFile(cfg.Dir)
	case config.StorageSQLite:
		return storage.NewSQLite(ctx, cfg.SQLitePath)
	case config.StorageRedis:
		return storage.NewRedis(ctx, storage.RedisConfig{
			Addr:   cfg.RedisAddr,
			DB:     cfg.RedisDB,
			Prefix: cfg.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// runnerConfig translates process configuration into runner settings
func runnerConfig(cfg *config.Config, store storage.Store, metrics runner.Metrics, retriever host.Retriever, log *zap.Logger) runner.Config {
	base := options.Tree{}
	if cfg.HTTP.Proxy != "" {
		base[string(options.KeyProxy)] = cfg.HTTP.Proxy
	}

	return runner.Config{
		Sandbox: sandbox.Config{
			Timeout:          cfg.Session.Timeout,
			MaxCallStackSize: cfg.Session.MaxCallStack,
			EnableConsole:    true,
		},
		Client: client.Config{
			Timeout:            cfg.HTTP.Timeout,
			UserAgent:          cfg.HTTP.UserAgent,
			MaxRedirects:       cfg.HTTP.MaxRedirects,
			RateLimit:          cfg.HTTP.RateLimit,
			InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
		},
		Options:       base,
		Store:         store,
		Retriever:     retriever,
		MaxConcurrent: int64(cfg.Session.MaxConcurrent),
		Metrics:       metrics,
		Logger:        log,
	}
}
