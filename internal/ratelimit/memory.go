package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// window is the event log of one key.
type window struct {
	mu        sync.Mutex
	events    []time.Time // ascending
	expiresAt time.Time
	evicted   bool
}

// prune drops events at or before windowStart.
func (w *window) prune(windowStart time.Time) {
	i := sort.Search(len(w.events), func(i int) bool { return w.events[i].After(windowStart) })
	if i > 0 {
		w.events = append(w.events[:0], w.events[i:]...)
	}
}

// MemoryStore is an in-process Store. Each key has its own mutex so tiers and
// identities do not contend. A background goroutine evicts windows whose ttl
// has passed.
type MemoryStore struct {
	cleanupInterval time.Duration

	mu      sync.Mutex
	windows map[string]*window
	done    chan struct{}
	closed  bool
}

// NewMemoryStore creates a store and starts its eviction goroutine.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	m := &MemoryStore{
		cleanupInterval: cleanupInterval,
		windows:         make(map[string]*window),
		done:            make(chan struct{}),
	}
	go m.cleanup()
	return m
}

// AppendIfUnder implements Store.
func (m *MemoryStore) AppendIfUnder(ctx context.Context, key string, now, windowStart time.Time, limit int, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	for {
		w := m.window(key, true)
		w.mu.Lock()
		if w.evicted {
			// Lost a race with the sweeper; fetch the replacement.
			w.mu.Unlock()
			continue
		}

		w.prune(windowStart)
		allowed := len(w.events) < limit
		if allowed {
			w.events = append(w.events, now)
			w.expiresAt = now.Add(ttl)
		}
		w.mu.Unlock()
		return allowed, nil
	}
}

// History implements Store.
func (m *MemoryStore) History(ctx context.Context, key string, windowStart time.Time) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := m.window(key, false)
	if w == nil {
		return []time.Time{}, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	events := make([]time.Time, 0, len(w.events))
	for _, e := range w.events {
		if e.After(windowStart) {
			events = append(events, e)
		}
	}
	return events, nil
}

// Len returns the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Close stops the background cleanup goroutine.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *MemoryStore) window(key string, create bool) *window {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok && create {
		w = &window{}
		m.windows[key] = w
	}
	return w
}

// cleanup periodically evicts expired windows.
func (m *MemoryStore) cleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.evictExpired(now)
		}
	}
}

// evictExpired removes windows whose ttl ended before now.
func (m *MemoryStore) evictExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, w := range m.windows {
		w.mu.Lock()
		if !w.expiresAt.IsZero() && !now.Before(w.expiresAt) {
			w.evicted = true
			delete(m.windows, key)
		}
		w.mu.Unlock()
	}
}
