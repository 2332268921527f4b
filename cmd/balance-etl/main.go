// Command balance-etl consumes glacier balance requests from Kafka, evaluates
// them, and publishes the results.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/glacier-balance/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/glacier-balance/internal/adapter/kafka"
	"github.com/couchcryptid/glacier-balance/internal/adapter/mapbox"
	"github.com/couchcryptid/glacier-balance/internal/config"
	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/observability"
	"github.com/couchcryptid/glacier-balance/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Station elevation lookup is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var resolver domain.ElevationResolver
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		resolver = mapbox.NewCachedResolver(client, cfg.MapboxCacheSize, metrics)
		metrics.ElevationLookupEnabled.Set(1)
		logger.Info("mapbox elevation lookup enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox elevation lookup disabled")
	}

	logger.Info("model defaults",
		"melt_factor", cfg.Params.MeltFactor,
		"t_threshold", cfg.Params.TThreshold,
		"lapse_rate", cfg.Params.LapseRate,
		"dt", cfg.Params.DT,
		"eval_workers", cfg.EvalWorkers,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	evaluator := pipeline.NewEvaluator(cfg.Params, cfg.EvalWorkers, resolver, logger, metrics)
	transformer := pipeline.NewTransformer(evaluator)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, evaluator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start balance pipeline.
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
