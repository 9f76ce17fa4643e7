package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		store := NewMemoryStore(time.Minute)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestMemoryStore_EvictExpired(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	ctx := context.Background()
	_, err := store.AppendIfUnder(ctx, "short", baseTime, baseTime.Add(-time.Minute), 5, time.Minute)
	require.NoError(t, err)
	_, err = store.AppendIfUnder(ctx, "long", baseTime, baseTime.Add(-24*time.Hour), 5, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	store.evictExpired(baseTime.Add(30 * time.Second))
	assert.Equal(t, 2, store.Len())

	store.evictExpired(baseTime.Add(time.Minute))
	assert.Equal(t, 1, store.Len())

	events, err := store.History(ctx, "short", baseTime.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = store.History(ctx, "long", baseTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMemoryStore_AppendAfterEviction(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	ctx := context.Background()
	_, err := store.AppendIfUnder(ctx, "key", baseTime, baseTime.Add(-time.Minute), 1, time.Minute)
	require.NoError(t, err)

	store.evictExpired(baseTime.Add(2 * time.Minute))

	now := baseTime.Add(2 * time.Minute)
	ok, err := store.AppendIfUnder(ctx, "key", now, now.Add(-time.Minute), 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.AppendIfUnder(ctx, "key", baseTime, baseTime.Add(-time.Minute), 1, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.History(ctx, "key", baseTime)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNewMemoryStore_DefaultInterval(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	assert.Equal(t, time.Minute, store.cleanupInterval)
}
