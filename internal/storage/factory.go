package storage

import (
	"context"

	"carvest-backend/internal/config"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	StoreTypeMemory = "memory"
	StoreTypeDisk   = "disk"
	StoreTypeRedis  = "redis"
)

// New builds the session store selected by cfg.Storage.Type.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Type {
	case "", StoreTypeMemory:
		return NewMemoryStorage(WithMaxSessions(cfg.Session.MaxSessions)), nil

	case StoreTypeDisk:
		store := NewDiskStorage(cfg.Storage.Disk.DataDir)
		if err := store.Init(); err != nil {
			return nil, errors.Wrapf(err, "init disk storage at %s", cfg.Storage.Disk.DataDir)
		}
		return store, nil

	case StoreTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, errors.Wrapf(err, "ping redis at %s", cfg.Storage.Redis.Addr)
		}
		return NewRedisStorage(
			WithRedisClient(client),
			WithRedisTTL(cfg.Storage.Redis.TTL),
			WithKeyPrefix(cfg.Storage.Redis.KeyPrefix),
		)

	default:
		return nil, errors.Wrap(ErrInvalidStoreType, cfg.Storage.Type)
	}
}
