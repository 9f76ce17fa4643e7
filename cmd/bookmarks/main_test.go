package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmarks/internal/models"
	"bookmarks/internal/observability"
	"bookmarks/internal/storage"
)

func TestInitializeStorage(t *testing.T) {
	cfg := models.NewDefaultConfig()

	store, err := initializeStorage(cfg, false)
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &storage.MemoryStorage{}, store)

	instrumented, err := initializeStorage(cfg, true)
	require.NoError(t, err)
	defer instrumented.Close()
	assert.IsType(t, &observability.InstrumentedStorage{}, instrumented)
}

func TestInitializeStorage_UnsupportedType(t *testing.T) {
	cfg := models.NewDefaultConfig()
	cfg.Storage.Type = "json"

	_, err := initializeStorage(cfg, false)
	assert.Error(t, err)
}

func TestInitializeLimiter(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := models.NewDefaultConfig()
		cfg.RateLimit.Enabled = false

		limiter, windows, err := initializeLimiter(context.Background(), cfg, false, slog.Default())
		require.NoError(t, err)
		assert.Nil(t, limiter)
		assert.Nil(t, windows)
	})

	t.Run("memory store", func(t *testing.T) {
		cfg := models.NewDefaultConfig()

		limiter, windows, err := initializeLimiter(context.Background(), cfg, true, slog.Default())
		require.NoError(t, err)
		require.NotNil(t, limiter)
		require.NotNil(t, windows)
		assert.IsType(t, &observability.InstrumentedWindowStore{}, windows)
		assert.NoError(t, windows.Close())
	})

	t.Run("redis store unreachable", func(t *testing.T) {
		cfg := models.NewDefaultConfig()
		cfg.RateLimit.Store = models.LimiterStoreRedis
		cfg.RateLimit.Redis.Addr = "127.0.0.1:1"
		cfg.RateLimit.Redis.ConnectTimeout = 200 * time.Millisecond
		cfg.RateLimit.Redis.MaxRetryWait = 50 * time.Millisecond

		_, _, err := initializeLimiter(context.Background(), cfg, false, slog.Default())
		assert.Error(t, err)
	})
}
