// Command etl runs the well collection batch: fetch well locations from the
// RRC GIS map service, resolve operators through the EWA wellbore query,
// classify them, and write the wells.json artifact.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	ewaadapter "github.com/couchcryptid/well-data-etl/internal/adapter/ewa"
	"github.com/couchcryptid/well-data-etl/internal/adapter/gis"
	httpadapter "github.com/couchcryptid/well-data-etl/internal/adapter/http"
	"github.com/couchcryptid/well-data-etl/internal/config"
	"github.com/couchcryptid/well-data-etl/internal/domain"
	"github.com/couchcryptid/well-data-etl/internal/fetcher"
	"github.com/couchcryptid/well-data-etl/internal/observability"
	"github.com/couchcryptid/well-data-etl/internal/pipeline"
	"github.com/couchcryptid/well-data-etl/internal/resolver"
	"github.com/couchcryptid/well-data-etl/internal/sink"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	gisClient := gis.NewClient(cfg.GISBaseURL, cfg.GISTimeout, logger)
	ewaClient, err := ewaadapter.NewClient(cfg.EWABaseURL, cfg.EWAAPITimeout, cfg.EWACountyTimeout, logger)
	if err != nil {
		logger.Error("failed to create ewa client", "error", err)
		return 1
	}

	// One token bucket paces all EWA traffic. rate.Every(0) is unlimited.
	limiter := rate.NewLimiter(rate.Every(cfg.EWARequestDelay), 1)

	gridFetcher := fetcher.New(gisClient, cfg.BoundingBox, cfg.GridLonStep, cfg.GridLatStep, cfg.GISBatchSize, logger, metrics)
	operatorResolver := resolver.New(ewaClient, cfg.EWAPageSize, cfg.EWASampleCap, limiter, logger, metrics)
	artifact := sink.NewJSONFile(cfg.OutputPath, logger)

	// Kafka sink is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher pipeline.RecordPublisher
	var kafkaPublisher *sink.KafkaPublisher
	if cfg.KafkaEnabled {
		kafkaPublisher = sink.NewKafkaPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	classifier := domain.NewClassifier(domain.DefaultRules())
	p := pipeline.New(gridFetcher, operatorResolver, classifier, artifact, publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP sidecar.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	code := 0
	result, err := p.Run(ctx)
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		if pipeline.IsFatal(err) {
			code = 1
		}
	} else {
		logger.Info("run complete", "records", len(result.Records), "generated_at", result.GeneratedAt)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return code
}
