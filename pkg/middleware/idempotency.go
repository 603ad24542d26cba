package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"GuardianAI/pkg/cache"
	"GuardianAI/pkg/errors"
	"GuardianAI/pkg/response"

	"github.com/gin-gonic/gin"
)

type IdemStore interface {
	// Set returns true if key was stored, false if it is already present.
	Set(key string, ttl time.Duration) bool
	// Delete releases key so the next request carrying it runs again.
	Delete(key string)
}

type memoryIdemStore struct {
	mu        sync.Mutex
	m         map[string]time.Time
	lastSweep time.Time
}

func NewMemoryIdemStore() IdemStore {
	return &memoryIdemStore{m: make(map[string]time.Time)}
}

func (s *memoryIdemStore) Set(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if now.Sub(s.lastSweep) > time.Minute {
		for k, exp := range s.m {
			if exp.Before(now) {
				delete(s.m, k)
			}
		}
		s.lastSweep = now
	}
	if exp, ok := s.m[key]; ok && exp.After(now) {
		return false
	}
	s.m[key] = now.Add(ttl)
	return true
}

func (s *memoryIdemStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// cacheIdemStore keeps keys in a shared cache so replicas agree on them.
// The check and the write are not atomic; two racing first requests may
// both pass.
type cacheIdemStore struct {
	c cache.Cache
}

func NewCacheIdemStore(c cache.Cache) IdemStore {
	return &cacheIdemStore{c: c}
}

func (s *cacheIdemStore) Set(key string, ttl time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	key = "idem:" + key
	if _, ok := s.c.Get(ctx, key); ok {
		return false
	}
	// a failed write lets the request through rather than blocking it
	_ = s.c.Set(ctx, key, []byte{1}, ttl)
	return true
}

func (s *cacheIdemStore) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.c.Delete(ctx, "idem:"+key)
}

type IdempotencyConfig struct {
	HeaderName string
	TTL        time.Duration
	Store      IdemStore
}

// IdempotencyMiddleware rejects a repeated key within TTL with 409.
// Requests without the header pass through untouched. A request answered
// with a 4xx or 5xx status releases its key so the client can retry. Keys are scoped per
// route so one client key cannot collide across endpoints.
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryIdemStore()
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			c.Next()
			return
		}
		scoped := c.Request.Method + " " + c.FullPath() + " " + key
		if !cfg.Store.Set(scoped, cfg.TTL) {
			c.AbortWithStatusJSON(http.StatusConflict, response.Body{Code: errors.CodeDuplicate, Msg: "duplicate request"})
			return
		}
		c.Next()
		if c.Writer.Status() >= http.StatusBadRequest {
			cfg.Store.Delete(scoped)
		}
	}
}
