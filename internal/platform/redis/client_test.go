package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"id-recon/internal/platform/config"
)

func TestOptionsApplyConfiguredPool(t *testing.T) {
	opts, err := Options(config.RedisConfig{
		URL:          "redis://:secret@cache.internal:6380/2",
		PoolSize:     12,
		MinIdleConns: 3,
		DialTimeout:  time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 12, opts.PoolSize)
	assert.Equal(t, 3, opts.MinIdleConns)
	assert.Equal(t, time.Second, opts.DialTimeout)
}

func TestOptionsKeepDriverDefaultsForZeroValues(t *testing.T) {
	opts, err := Options(config.RedisConfig{URL: "redis://localhost:6379"})
	require.NoError(t, err)
	assert.Zero(t, opts.PoolSize, "go-redis sizes the pool itself")
}

func TestOptionsRejectBadURL(t *testing.T) {
	_, err := Options(config.RedisConfig{URL: "http://localhost"})
	require.Error(t, err)
}

func TestOpenWithoutURLDisablesRedis(t *testing.T) {
	client, err := Open(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}
