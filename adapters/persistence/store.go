package persistence

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-editor/internal/config"
	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

// NewKeyValueStore builds the backend named by storage.driver. The returned close func
// releases any connection it opened.
func NewKeyValueStore(ctx context.Context, cfg config.Config, log logger.Logger) (portfolio.KeyValueStore, func(), error) {
	log.Info("Opening portfolio storage", zap.String("driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case config.StorageDriverFile:
		store, err := NewFileKVStore(afero.NewOsFs(), cfg.Storage.FilePath)
		return store, func() {}, err

	case config.StorageDriverRedis:
		rdb, err := NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisKVStore(rdb, "portfolio:"), func() { rdb.Close() }, nil

	case config.StorageDriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		if err := EnsureKVSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return NewPostgresKVStore(pool), pool.Close, nil

	case config.StorageDriverMemory:
		log.Warn("Memory storage driver selected, the portfolio will not survive a restart")
		return NewMemoryKVStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
