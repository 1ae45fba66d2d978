// Command server runs the curation service: POST /runs triggers a curation
// run, with health, readiness, and Prometheus metrics endpoints alongside.
// When Kafka is configured, curated records are published to the configured
// topic after each run.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/gbif-curation-service/internal/adapter/gbif"
	httpadapter "github.com/couchcryptid/gbif-curation-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/gbif-curation-service/internal/adapter/kafka"
	"github.com/couchcryptid/gbif-curation-service/internal/adapter/nominatim"
	"github.com/couchcryptid/gbif-curation-service/internal/config"
	"github.com/couchcryptid/gbif-curation-service/internal/observability"
	"github.com/couchcryptid/gbif-curation-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	fetcher := gbif.NewClient(cfg.GBIFBaseURL, cfg.GBIFPageSize, cfg.GBIFTimeout, logger)
	resolver := gbif.NewBackboneClient(cfg.GBIFBaseURL, cfg.GBIFTimeout, logger)
	geocoder := nominatim.NewCachedGeocoder(
		nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent,
			cfg.NominatimTimeout, cfg.NominatimMaxAttempts, metrics, logger),
		cfg.GeocodeCacheSize, metrics)

	runner := pipeline.New(fetcher, resolver, geocoder,
		cfg.DataSourceTag, cfg.TaxonMinConfidence, logger, metrics)

	// Kafka publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher httpadapter.CuratedPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaCuratedTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, publisher, runner, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
