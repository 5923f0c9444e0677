package bootstrap

import (
	"context"
	"fmt"

	"rescue-id/config"
	"rescue-id/internal/domain/repository"
	"rescue-id/internal/infrastructure/cache"
	"rescue-id/internal/infrastructure/database"
	"rescue-id/internal/repository/filestore"
	"rescue-id/internal/repository/memory"
	"rescue-id/internal/repository/mongodb"
	"rescue-id/internal/repository/postgres"
	"rescue-id/internal/repository/redisstore"

	"github.com/sirupsen/logrus"
)

// openStore builds the backend named by STORAGE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore(), nil

	case config.StorageFile:
		return filestore.NewStore(cfg.Storage.FilePath)

	case config.StoragePostgres:
		if cfg.DB.Migrate {
			if err := database.Migrate(cfg.DB, log); err != nil {
				return nil, err
			}
		}
		db, err := database.NewPostgresConnection(cfg.DB, log)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db, cfg.Storage.Timeout), nil

	case config.StorageMongo:
		db, err := database.NewMongoDatabase(ctx, cfg.Mongo, cfg.Storage.Timeout, log)
		if err != nil {
			return nil, err
		}
		store := mongodb.NewStore(db, cfg.Storage.Timeout)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil

	case config.StorageRedis:
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout)
		defer cancel()
		client, err := cache.NewRedisClient(pingCtx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client, cfg.Auth.LoginHistoryLimit, cfg.Storage.Timeout), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
