package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NewCache builds the backend named by config.Type.
func NewCache(config Config) (Cache, error) {
	switch strings.ToLower(config.Type) {
	case "", "local":
		return NewLocalCache(config.Local), nil
	case "gocache":
		return NewGoCache(config.Local), nil
	case "redis":
		return NewRedisCache(config.Redis)
	case "layered":
		return NewLayeredCache(config, time.Minute)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}

// NewLayeredCache puts a short-lived local cache in front of redis.
func NewLayeredCache(config Config, localTTL time.Duration) (Cache, error) {
	distributed, err := NewRedisCache(config.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}
	localConfig := config.Local
	if localTTL > 0 {
		localConfig.DefaultExpiration = localTTL
	}
	return newLayered(NewLocalCache(localConfig), distributed, localTTL), nil
}

func newLayered(local, distributed Cache, localTTL time.Duration) Cache {
	return &layeredCache{local: local, distributed: distributed, localTTL: localTTL}
}

type layeredCache struct {
	local       Cache
	distributed Cache
	localTTL    time.Duration
}

// Get reads through to the distributed layer and backfills the local one.
func (lc *layeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if value, ok := lc.local.Get(ctx, key); ok {
		return value, true
	}
	value, ok := lc.distributed.Get(ctx, key)
	if !ok {
		return nil, false
	}
	_ = lc.local.Set(ctx, key, value, lc.localTTL)
	return value, true
}

func (lc *layeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := lc.distributed.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	localTTL := lc.localTTL
	if ttl > 0 && ttl < localTTL {
		localTTL = ttl
	}
	return lc.local.Set(ctx, key, value, localTTL)
}

func (lc *layeredCache) Delete(ctx context.Context, key string) error {
	if err := lc.local.Delete(ctx, key); err != nil {
		return err
	}
	return lc.distributed.Delete(ctx, key)
}

func (lc *layeredCache) Clear(ctx context.Context) error {
	if err := lc.local.Clear(ctx); err != nil {
		return err
	}
	return lc.distributed.Clear(ctx)
}

func (lc *layeredCache) Close() error {
	if err := lc.local.Close(); err != nil {
		return err
	}
	return lc.distributed.Close()
}
