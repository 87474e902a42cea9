package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spacesedan/wctweets/config"
	"github.com/spacesedan/wctweets/internal/clients"
	"github.com/spacesedan/wctweets/internal/dashboard"
	"github.com/spacesedan/wctweets/internal/db"
	"github.com/spacesedan/wctweets/internal/httpserver"
	"github.com/spacesedan/wctweets/internal/logging"
	"github.com/spacesedan/wctweets/internal/monitoring"
	"github.com/spacesedan/wctweets/internal/sentiment"
)

func main() {
	if err := run(); err != nil {
		slog.Error("[Main] Dashboard server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.InitLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := db.Open(ctx, cfg.Sink)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.CloseWithin(sink, db.CLOSE_TIMEOUT); err != nil {
			logger.Warn("[Main] Failed to close sink", slog.String("error", err.Error()))
		}
	}()

	var cache dashboard.Cache
	if cfg.Cache.Address != "" {
		vc, err := clients.NewValkeyClient(ctx, cfg.Cache)
		if err != nil {
			logger.Warn("[Main] Valkey unavailable, serving without cache", slog.String("error", err.Error()))
		} else {
			defer vc.Close()
			cache = vc
		}
	}

	healthy := &atomic.Bool{}
	healthy.Store(true)
	go monitoring.MonitorSinkHealth(ctx, sink, healthy, monitoring.HEALTHCHECK_INTERVAL)

	svc := dashboard.NewService(dashboard.NewLoader(sink, cache, cfg.Cache.TTL), sentiment.NewAnalyzer())
	srv := httpserver.NewServer(cfg.HTTPPort, svc, healthy, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("[Main] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
