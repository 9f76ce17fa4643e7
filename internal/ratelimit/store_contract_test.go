package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// runStoreContract exercises behavior every Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("AppendsUpToLimit", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := "contract:limit:" + t.Name()
		window := time.Minute

		for i := 0; i < 2; i++ {
			now := baseTime.Add(time.Duration(i) * time.Second)
			ok, err := store.AppendIfUnder(ctx, key, now, now.Add(-window), 2, window)
			require.NoError(t, err)
			assert.True(t, ok, "event %d should be recorded", i+1)
		}

		now := baseTime.Add(2 * time.Second)
		ok, err := store.AppendIfUnder(ctx, key, now, now.Add(-window), 2, window)
		require.NoError(t, err)
		assert.False(t, ok)

		events, err := store.History(ctx, key, now.Add(-window))
		require.NoError(t, err)
		require.Len(t, events, 2, "denied events are not recorded")
		assert.Equal(t, baseTime.UnixMicro(), events[0].UnixMicro())
		assert.Equal(t, baseTime.Add(time.Second).UnixMicro(), events[1].UnixMicro())
	})

	t.Run("PrunesAtWindowStart", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := "contract:prune:" + t.Name()
		window := time.Minute

		ok, err := store.AppendIfUnder(ctx, key, baseTime, baseTime.Add(-window), 1, window)
		require.NoError(t, err)
		require.True(t, ok)

		// An event exactly window old has left the window.
		now := baseTime.Add(window)
		ok, err = store.AppendIfUnder(ctx, key, now, now.Add(-window), 1, window)
		require.NoError(t, err)
		assert.True(t, ok)

		events, err := store.History(ctx, key, now.Add(-window))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, now.UnixMicro(), events[0].UnixMicro())
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		start := baseTime.Add(-time.Minute)

		ok, err := store.AppendIfUnder(ctx, "contract:a:"+t.Name(), baseTime, start, 1, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.AppendIfUnder(ctx, "contract:b:"+t.Name(), baseTime, start, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("HistoryOfUnknownKey", func(t *testing.T) {
		store := newStore(t)
		events, err := store.History(context.Background(), "contract:missing:"+t.Name(), baseTime)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("ConcurrentAppends", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		key := "contract:concurrent:" + t.Name()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				now := baseTime.Add(time.Duration(i) * time.Millisecond)
				ok, err := store.AppendIfUnder(ctx, key, now, baseTime.Add(-time.Minute), 10, time.Minute)
				if assert.NoError(t, err) && ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, allowed)
	})
}
