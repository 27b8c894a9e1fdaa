package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wq-threshold-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/wq-threshold-etl/internal/adapter/kafka"
	"github.com/couchcryptid/wq-threshold-etl/internal/adapter/report"
	"github.com/couchcryptid/wq-threshold-etl/internal/config"
	"github.com/couchcryptid/wq-threshold-etl/internal/observability"
	"github.com/couchcryptid/wq-threshold-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	rules := make([]string, len(cfg.Analysis.Rules))
	for i, r := range cfg.Analysis.Rules {
		rules[i] = r.String()
	}
	logger.Info("analysis loaded",
		"rules", rules,
		"min_duration", cfg.Analysis.Detect.MinDuration,
		"granularity", cfg.Analysis.Summary.Granularity,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(cfg.Analysis, logger, metrics)

	// Reports are rendered alongside publishing when REPORT_DIR is set.
	var loader pipeline.BatchLoader = writer
	if cfg.ReportDir != "" {
		if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil { //nolint:gosec // shared report directory
			logger.Error("failed to create report directory", "dir", cfg.ReportDir, "error", err)
			os.Exit(1)
		}
		loader = report.NewLoader(writer, cfg.ReportDir, logger, metrics)
		logger.Info("report rendering enabled", "dir", cfg.ReportDir)
	}

	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.Analysis, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
