package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/floreser-dashboard/internal/adapter/boundary"
	httpadapter "github.com/couchcryptid/floreser-dashboard/internal/adapter/http"
	"github.com/couchcryptid/floreser-dashboard/internal/adapter/imagery"
	kafkaadapter "github.com/couchcryptid/floreser-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/floreser-dashboard/internal/config"
	"github.com/couchcryptid/floreser-dashboard/internal/dataset"
	"github.com/couchcryptid/floreser-dashboard/internal/observability"
	"github.com/couchcryptid/floreser-dashboard/internal/refresh"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store := dataset.NewStore(cfg.DatasetPath, cfg.DatasetCacheEnabled, logger, metrics)
	logger.Info("dataset configured",
		"path", cfg.DatasetPath,
		"cache", cfg.DatasetCacheEnabled,
		"refresh_interval", cfg.DatasetRefreshInterval,
	)

	boundaryClient := boundary.NewClient(cfg.BoundaryURL, cfg.BoundaryTimeout, logger, metrics)
	boundarySource := boundary.NewCachedFetcher(boundaryClient, cfg.BoundaryCacheTTL, clockwork.NewRealClock(), metrics)

	if cfg.TileURLTemplate == "" {
		logger.Warn("TILE_URL_TEMPLATE not set, /srtm-url will fail")
	}
	tiles := imagery.NewStaticProvider(cfg.TileURLTemplate)

	// Optional dataset reload notifications (KAFKA_BROKERS).
	var publisher refresh.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("dataset events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var refresher *refresh.Refresher
	ready := httpadapter.AllReady(store)
	if cfg.DatasetRefreshInterval > 0 {
		refresher = refresh.New(store, publisher, cfg.DatasetRefreshInterval, logger, metrics)
		ready = httpadapter.AllReady(store, refresher)
	} else if publisher != nil {
		logger.Warn("KAFKA_BROKERS set but DATASET_REFRESH_INTERVAL is 0, no dataset events will be published")
	}

	srv := httpadapter.NewServer(cfg, httpadapter.Deps{
		Records:  store,
		Boundary: boundarySource,
		Imagery:  tiles,
		Ready:    ready,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start background refresh.
	if refresher != nil {
		go func() {
			if err := refresher.Run(ctx); err != nil {
				logger.Error("refresher error", "error", err)
			}
		}()
	}

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
