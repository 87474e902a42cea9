package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/wctweets/config"
	"github.com/spacesedan/wctweets/internal/db"
	"github.com/spacesedan/wctweets/internal/logging"
	"github.com/spacesedan/wctweets/internal/metrics"
	"github.com/spacesedan/wctweets/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("[Main] ETL failed", slog.String("error", err.Error()))
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

	if err := metrics.StartServer(cfg.MetricsAddr); err != nil {
		return err
	}

	sink, err := db.Open(ctx, cfg.Sink)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.CloseWithin(sink, db.CLOSE_TIMEOUT); err != nil {
			logger.Warn("[Main] Failed to close sink", slog.String("error", err.Error()))
		}
	}()

	logger.Info("[Main] Starting ETL",
		slog.String("env", env),
		slog.String("driver", cfg.Sink.Driver),
		slog.String("collection", cfg.Sink.Collection),
		slog.String("source_dir", cfg.SourceDir),
		slog.Int("workers", cfg.Workers))

	runner := pipeline.NewRunner(sink, pipeline.Options{
		SourceDir:    cfg.SourceDir,
		MaxFiles:     cfg.MaxFiles,
		Workers:      cfg.Workers,
		AllowedLangs: cfg.AllowedLangs,
	}, logger)

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("[Main] ETL finished", slog.Any("report", report))

	if err := report.Err(); err != nil {
		for _, f := range report.Failures {
			logger.Error("[Main] File failed", slog.String("file", f.File), slog.String("error", f.Err.Error()))
		}
		return fmt.Errorf("%s", pipeline.Describe(report))
	}
	return nil
}
