package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dan1650/plates-bot/internal/bootstrap"
	"github.com/dan1650/plates-bot/internal/cache"
	"github.com/dan1650/plates-bot/internal/config"
	"github.com/dan1650/plates-bot/internal/lookup"
	"github.com/dan1650/plates-bot/internal/observability"
	"github.com/dan1650/plates-bot/internal/session"
	"github.com/dan1650/plates-bot/internal/storage"
)

// openDatabase opens the registry database read-only and checks it responds.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	var driver string
	switch cfg.Database.Driver {
	case "sqlite":
		driver = "sqlite3"
	case "postgres":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	db, err := sql.Open(driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// ensureDatabase downloads the sqlite file when it is missing.
func ensureDatabase(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	if cfg.Database.Driver != "sqlite" || !cfg.Bootstrap.Enabled {
		return nil
	}
	_, err := bootstrap.EnsureFile(ctx, cfg.Database.SQLite.Path, bootstrap.Options{
		URL:     cfg.Bootstrap.URL,
		Timeout: cfg.Bootstrap.Timeout,
	}, logger)
	return err
}

// newCacheClient creates the selection store backend.
func newCacheClient(cfg *config.Config) (cache.Client, error) {
	if cfg.Cache.Driver == "redis" {
		return cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
	}
	return cache.NewMemoryClient(cfg.Cache.MaxEntries), nil
}

func newPlanner(db storage.DB, cfg *config.Config, logger *observability.Logger) *lookup.Planner {
	repo := storage.NewRegistryRepository(db, cfg.StorageRegistry())
	return lookup.NewPlanner(repo, logger, lookup.PlannerConfig{
		PlateLimit:  cfg.Lookup.PlateLimit,
		NumberLimit: cfg.Lookup.NumberLimit,
		PhoneLimit:  cfg.Lookup.PhoneLimit,
	})
}

// newBotService wires the service with rate limiting and a selection store
// that starts empty.
func newBotService(ctx context.Context, db storage.DB, client cache.Client, cfg *config.Config, logger *observability.Logger) (*lookup.Service, error) {
	selections := session.NewSelections(client, cfg.Cache.TTL)
	if err := selections.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset selections: %w", err)
	}

	limiter, err := session.NewRateLimiter(cfg.RateLimit.Interval, cfg.RateLimit.MaxUsers)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	return lookup.NewService(newPlanner(db, cfg, logger), selections, limiter, logger, lookup.ServiceConfig{
		MaxChoices: cfg.Lookup.MaxChoices,
	}), nil
}
