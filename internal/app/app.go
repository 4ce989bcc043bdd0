// Package app wires configuration into a ready pipeline: snapshot store,
// Redis cache, Postgres archive, refresh lock, and the selected source.
// Both binaries build through it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/phish-metrics/internal/config"
	"github.com/ignite/phish-metrics/internal/gophish"
	"github.com/ignite/phish-metrics/internal/pipeline"
	"github.com/ignite/phish-metrics/internal/pkg/distlock"
	"github.com/ignite/phish-metrics/internal/pkg/logger"
	"github.com/ignite/phish-metrics/internal/repository/postgres"
	"github.com/ignite/phish-metrics/internal/snapshot"
)

// App holds the wired components. Optional ones are nil when not configured.
type App struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Store    snapshot.Store
	Archive  *postgres.ArchiveRepo
	DB       *sql.DB
	Redis    *redis.Client
}

// ConfigureLogging applies the logging section to the global logger.
func ConfigureLogging(cfg config.LoggingConfig) {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetRedactPII(cfg.Redact())
}

// Build validates cfg and constructs every configured component.
// Optional dependencies that fail to connect are logged and skipped.
// extra options are applied to the pipeline after the configured ones.
func Build(ctx context.Context, cfg *config.Config, extra ...pipeline.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ConfigureLogging(cfg.Logging)

	a := &App{Config: cfg}

	if cfg.Cache.RedisURL != "" {
		rdb, err := snapshot.NewRedisClient(cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("[app] redis unavailable, continuing without cache", "error", err.Error())
			rdb.Close()
		} else {
			a.Redis = rdb
			logger.Info("[app] redis connected")
		}
	}

	needStore := cfg.Source.Type == config.SourceSnapshot || cfg.Snapshot.SaveOnRefresh
	if needStore {
		store, err := snapshot.New(ctx, cfg.Snapshot)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		if a.Redis != nil {
			store = snapshot.NewCachedStore(store, a.Redis, cfg.Cache.KeyPrefix+"current", cfg.Cache.TTL())
		}
		a.Store = store
	}

	if cfg.Archive.Enabled {
		db, err := postgres.Open(ctx, cfg.Archive.DatabaseURL)
		if err != nil {
			logger.Warn("[app] archive database unavailable, runs will not be archived", "error", err.Error())
		} else {
			repo := postgres.NewArchiveRepo(db)
			if err := repo.EnsureSchema(ctx); err != nil {
				db.Close()
				a.Close()
				return nil, err
			}
			a.DB = db
			a.Archive = repo
		}
	}

	var fetcher pipeline.CampaignFetcher
	if cfg.Source.Type == config.SourceGophish {
		fetcher = gophish.NewClient(cfg.Gophish)
	}
	source, err := pipeline.NewSource(cfg, fetcher, a.Store)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithLock(distlock.NewLock(a.Redis, a.DB, "refresh", cfg.Pipeline.RefreshTimeout())),
		pipeline.WithRefreshTimeout(cfg.Pipeline.RefreshTimeout()),
	}
	if cfg.Snapshot.SaveOnRefresh && cfg.Source.Type != config.SourceSnapshot {
		opts = append(opts, pipeline.WithSnapshotSink(a.Store))
	}
	if a.Archive != nil {
		opts = append(opts, pipeline.WithArchive(a.Archive))
	}
	a.Pipeline = pipeline.New(source, append(opts, extra...)...)

	logger.Info("[app] pipeline ready",
		"source", source.Name(),
		"snapshot", cfg.Snapshot.Type,
		"cache", a.Redis != nil,
		"archive", a.Archive != nil)
	return a, nil
}

// RunRefresher refreshes on every tick until ctx is done, pruning the
// archive afterwards when ArchiveKeep is set.
func (a *App) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Pipeline.Refresh(ctx); err != nil {
				logger.Warn("[app] scheduled refresh failed", "error", err.Error())
				continue
			}
			a.PruneArchive(ctx)
		}
	}
}

// PruneArchive trims the archive to Pipeline.ArchiveKeep runs.
func (a *App) PruneArchive(ctx context.Context) {
	keep := a.Config.Pipeline.ArchiveKeep
	if a.Archive == nil || keep <= 0 {
		return
	}
	n, err := a.Archive.PruneRuns(ctx, keep)
	if err != nil {
		logger.Warn("[app] archive prune failed", "error", err.Error())
		return
	}
	if n > 0 {
		logger.Info("[app] archive pruned", "deleted", n, "kept", keep)
	}
}

// Close releases connections.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}
