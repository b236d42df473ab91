package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/space-weather-ingest/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/space-weather-ingest/internal/adapter/kafka"
	"github.com/couchcryptid/space-weather-ingest/internal/adapter/sqlite"
	"github.com/couchcryptid/space-weather-ingest/internal/config"
	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/fetch"
	"github.com/couchcryptid/space-weather-ingest/internal/observability"
	"github.com/couchcryptid/space-weather-ingest/internal/pipeline"
	"github.com/couchcryptid/space-weather-ingest/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := fetch.NewClient(cfg.FetchTimeout, logger)
	registry := source.NewRegistry(client, source.Options{
		BaseURLOverrides: cfg.BaseURLOverrides,
		NASAAPIKey:       cfg.NASAAPIKey,
	}, logger)

	store, closeStore, err := buildStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}

	orch := pipeline.New(registry, store, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, orch, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go runFetchLoop(ctx, cfg, orch, registry, logger)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closeStore != nil {
		if err := closeStore(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildStore selects the persistence collaborator. A nil store (backend
// "none") disables persistence while leaving the pipeline intact.
func buildStore(cfg *config.Config, logger *slog.Logger) (pipeline.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.StoreKafka:
		s := kafkaadapter.NewStore(cfg, logger)
		return s, s.Close, nil
	case config.StoreSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, nil
	}
}

// runFetchLoop runs one cycle immediately and then on every tick until the
// context is cancelled. After each cycle the two flare catalogs are merged
// and the combined activity is logged for downstream consumers.
func runFetchLoop(ctx context.Context, cfg *config.Config, orch *pipeline.Orchestrator, registry map[domain.Source]source.Normalizer, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.FetchInterval)
	defer ticker.Stop()

	for {
		summary := orch.FetchAll(ctx, cfg.EnabledSources, cfg.PersistEnabled)
		for _, err := range summary.Errors {
			logger.Warn("source failed this cycle", "error", err)
		}

		mergeCatalogs(ctx, orch, registry, logger)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// mergeCatalogs reconciles the DONKI (primary) and GOES (secondary) flare
// lists when both sources are enabled in the registry.
func mergeCatalogs(ctx context.Context, orch *pipeline.Orchestrator, registry map[domain.Source]source.Normalizer, logger *slog.Logger) {
	primary, okP := registry[domain.SourceNASADONKI].(source.FlareCatalog)
	secondary, okS := registry[domain.SourceNOAAGOES].(source.FlareCatalog)
	if !okP || !okS {
		return
	}

	merged, err := orch.MergeFlareCatalogs(ctx, primary, secondary)
	if err != nil {
		logger.Warn("flare catalog merge failed", "error", err)
		return
	}

	activity := domain.SummarizeFlareActivity(merged, 24*time.Hour)
	logger.Info("flare catalogs merged",
		"events", len(merged),
		"activity_level", activity.ActivityLevel,
		"x_count", activity.CountsByClass["X"],
		"m_count", activity.CountsByClass["M"],
	)
}
