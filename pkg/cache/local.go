package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

// localCache is a size-bounded LRU. The LRU expires entries after
// DefaultExpiration; shorter per-key ttls are checked on read.
type localCache struct {
	lru        *expirable.LRU[string, localEntry]
	defaultTTL time.Duration
}

func NewLocalCache(config LocalConfig) Cache {
	size := config.MaxSize
	if size <= 0 {
		size = 1000
	}
	return &localCache{
		lru:        expirable.NewLRU[string, localEntry](size, nil, config.DefaultExpiration),
		defaultTTL: config.DefaultExpiration,
	}
}

func (lc *localCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := lc.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		lc.lru.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (lc *localCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = lc.defaultTTL
	}
	entry := localEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	lc.lru.Add(key, entry)
	return nil
}

func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.lru.Remove(key)
	return nil
}

func (lc *localCache) Clear(ctx context.Context) error {
	lc.lru.Purge()
	return nil
}

func (lc *localCache) Close() error {
	lc.lru.Purge()
	return nil
}
