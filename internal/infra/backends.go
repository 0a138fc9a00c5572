package infra

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/zimsave/zimsave_plus/internal/config"
	"github.com/zimsave/zimsave_plus/internal/store"
)

// Backends holds the connections opened for a configuration. DB and Cache
// are nil when their URL is not configured.
type Backends struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
	Store store.Store
}

// Open connects to the configured backends and selects the ledger store.
// Redis is opened whenever REDIS_URL is set so the HTTP middlewares can use
// it, even when the ledger lives elsewhere.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.DatabaseURL != "" {
		db, err := NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.DB = db
	}
	if cfg.RedisURL != "" {
		cache, err := NewRedisClient(ctx, cfg)
		if err != nil {
			b.Close(logger)
			return nil, err
		}
		b.Cache = cache
	}

	var st store.Store
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if err := EnsureSchema(ctx, b.DB); err != nil {
			b.Close(logger)
			return nil, err
		}
		st = store.NewPostgres(b.DB)
	case config.BackendRedis:
		st = store.NewRedis(b.Cache)
	case config.BackendMemory:
		logger.Warn("using in-memory store; state is lost on exit")
		st = store.NewMemory()
	default:
		b.Close(logger)
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if cfg.StoreNamespace != "" {
		st = store.WithPrefix(st, cfg.StoreNamespace+":")
	}
	b.Store = st

	logger.Info("backends ready",
		slog.String("store", cfg.StoreBackend),
		slog.Bool("postgres", b.DB != nil),
		slog.Bool("redis", b.Cache != nil),
	)
	return b, nil
}

// Close releases every open connection.
func (b *Backends) Close(logger *slog.Logger) {
	if b.Cache != nil {
		if err := b.Cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}
	if b.DB != nil {
		b.DB.Close()
	}
}
