package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig() LocalConfig {
	return LocalConfig{
		MaxSize:           2,
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	}
}

func TestLocalCache(t *testing.T) {
	c := NewLocalCache(localConfig())
	defer c.Close()
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
		v, ok := c.Get(ctx, "a")
		assert.True(t, ok)
		assert.Equal(t, []byte("1"), v)
	})

	t.Run("per key ttl", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short", []byte("x"), 20*time.Millisecond))
		time.Sleep(40 * time.Millisecond)
		_, ok := c.Get(ctx, "short")
		assert.False(t, ok)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		require.NoError(t, c.Clear(ctx))
		require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
		_, _ = c.Get(ctx, "a")
		require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))
		_, ok := c.Get(ctx, "b")
		assert.False(t, ok)
		_, ok = c.Get(ctx, "a")
		assert.True(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, "a"))
		_, ok := c.Get(ctx, "a")
		assert.False(t, ok)
	})
}

func TestGoCache(t *testing.T) {
	c := NewGoCache(localConfig())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, c.Clear(ctx))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	c := NewLocalCache(localConfig())
	ctx := context.Background()

	type route struct {
		Text string   `json:"text"`
		Tips []string `json:"tips"`
	}
	require.NoError(t, SetJSON(ctx, c, "r", route{Text: "ok", Tips: []string{"a"}}, 0))

	var got route
	assert.True(t, GetJSON(ctx, c, "r", &got))
	assert.Equal(t, "ok", got.Text)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), 0))
	assert.False(t, GetJSON(ctx, c, "bad", &got))
	assert.False(t, GetJSON(ctx, c, "missing", &got))
}

func TestLayeredBackfillsLocal(t *testing.T) {
	local := NewLocalCache(localConfig())
	remote := NewGoCache(localConfig())
	c := newLayered(local, remote, time.Minute)
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "k", []byte("v"), 0))
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	v, ok = local.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok = remote.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNewCacheUnsupported(t *testing.T) {
	_, err := NewCache(Config{Type: "memcached"})
	assert.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	c, err := NewRedisCache(RedisConfig{Addr: addr, KeyPrefix: "guardian-test:"})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
	require.NoError(t, c.Clear(ctx))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}
