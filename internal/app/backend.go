package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/config"
	dbRedis "github.com/kailas-cloud/ragcore/internal/db/redis"
	chunkrepo "github.com/kailas-cloud/ragcore/internal/repository/chunk"
	documentrepo "github.com/kailas-cloud/ragcore/internal/repository/document"
	"github.com/kailas-cloud/ragcore/internal/repository/postgres"
)

// cacheStore is the key-value surface the embedding cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// backend is one storage driver's repositories. kv is nil for drivers
// without a key-value surface.
type backend struct {
	docs   DocumentRepository
	chunks ChunkRepository
	kv     cacheStore
	pinger pinger
	close  func()
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	switch cfg.Database.Driver {
	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		docs := documentrepo.New(store, cfg.Storage.KeyPrefix)
		logger.Info("connected to database",
			zap.String("driver", cfg.Database.Driver), zap.Strings("addrs", cfg.Database.Addrs))
		return &backend{
			docs:   docs,
			chunks: chunkrepo.New(store, docs, cfg.Storage.KeyPrefix),
			kv:     store,
			pinger: store,
			close:  store.Close,
		}, nil

	case config.DriverPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, readiness)
		defer cancel()
		store, err := postgres.NewStore(connectCtx, cfg.Database.DSN, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		if err := store.EnsureSchema(connectCtx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info("connected to database", zap.String("driver", cfg.Database.Driver))
		if cfg.Embedding.Cache {
			logger.Info("query embedding cache needs a key-value driver, disabled")
		}
		return &backend{
			docs:   store.Documents(),
			chunks: store.Chunks(),
			pinger: store,
			close:  store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
