package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paycustom/internal/platform/config"
)

func TestNewWithoutURL(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestOptions(t *testing.T) {
	t.Run("applies pool settings", func(t *testing.T) {
		opts, err := Options(config.RedisConfig{
			URL:          "redis://localhost:6379/2",
			PoolSize:     7,
			MinIdleConns: 2,
			ReadTimeout:  150 * time.Millisecond,
		})
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 7, opts.PoolSize)
		assert.Equal(t, 2, opts.MinIdleConns)
		assert.Equal(t, 150*time.Millisecond, opts.ReadTimeout)
	})

	t.Run("zero values keep defaults", func(t *testing.T) {
		defaults, err := redis.ParseURL("redis://localhost:6379")
		require.NoError(t, err)
		opts, err := Options(config.RedisConfig{URL: "redis://localhost:6379"})
		require.NoError(t, err)
		assert.Equal(t, defaults.DialTimeout, opts.DialTimeout)
		assert.Equal(t, defaults.PoolSize, opts.PoolSize)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := Options(config.RedisConfig{URL: "mysql://nope"})
		assert.Error(t, err)
	})
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "redis://127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestRegisterPoolMetrics(t *testing.T) {
	c := &Client{Client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})}
	t.Cleanup(func() { _ = c.Close() })
	reg := prometheus.NewRegistry()

	require.NoError(t, c.RegisterPoolMetrics(reg))
	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "paycustom_redis_pool_hits_total")
	assert.Contains(t, names, "paycustom_redis_pool_idle_connections")

	assert.Error(t, c.RegisterPoolMetrics(reg), "second registration collides")
}
