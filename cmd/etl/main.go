package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/divi-occupancy-etl/internal/adapter/divi"
	"github.com/couchcryptid/divi-occupancy-etl/internal/adapter/export"
	kafkaadapter "github.com/couchcryptid/divi-occupancy-etl/internal/adapter/kafka"
	"github.com/couchcryptid/divi-occupancy-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/divi-occupancy-etl/internal/config"
	"github.com/couchcryptid/divi-occupancy-etl/internal/observability"
	"github.com/couchcryptid/divi-occupancy-etl/internal/pipeline"
	"github.com/google/uuid"
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

	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fetching is feature-flagged via FETCH_ENABLED for offline replays.
	var fetcher pipeline.Fetcher
	if cfg.FetchEnabled {
		cache := divi.NewFileCache(cfg.HTTPTimeout, cfg.FetchRate, cfg.UserAgent, metrics, logger)
		fetcher = divi.NewClient(cache, divi.ClientOptions{
			BaseURL:      cfg.BaseURL,
			ListingCache: cfg.ListingCacheFile(),
			DownloadDir:  cfg.DownloadDir,
			MaxAge:       cfg.CacheMaxAge,
		}, metrics, logger)
		logger.Info("fetching enabled", "base_url", cfg.BaseURL, "max_age", cfg.CacheMaxAge)
	} else {
		logger.Info("fetching disabled")
	}

	loaders := []pipeline.Loader{
		export.NewExporter(export.Options{
			IndexFile:  cfg.IndexFile,
			StatesFile: cfg.StatesFile,
			TSVDir:     cfg.TSVDir,
			XLSXPath:   cfg.XLSXPath,
		}, logger),
	}

	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open history database", "error", err)
			return 1
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("history database close error", "error", err)
			}
		}()
		loaders = append(loaders, store)
		logger.Info("history database enabled", "path", cfg.SQLitePath)
	}

	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(fetcher, divi.NewReportDir(cfg.DownloadDir), loaders, logger, metrics)
	runErr := p.Run(ctx)

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("failed to write metrics textfile", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("pipeline error", "error", runErr)
		return 1
	}
	return 0
}
