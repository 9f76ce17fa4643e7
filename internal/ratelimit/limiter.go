// Package ratelimit provides sliding-window rate limiting for HTTP requests.
// Each (scope, identity) pair keeps a log of event timestamps in a Store; a
// request is admitted when every applicable tier has room in its window. The
// package also aggregates per-tier quota state into the standard rate limit
// response headers.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookmarks/internal/models"
)

// Scope names of the built-in tiers.
const (
	ScopeReads       = "reads"
	ScopeSubmitBurst = "submit_burst"
	ScopeSubmitDay   = "submit_day"
)

// DefaultKeyPrefix namespaces window keys in shared stores.
const DefaultKeyPrefix = "bookmarks:throttle"

// ErrStoreUnavailable wraps every window store failure. Callers must treat it
// as a denial, never as admission.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Tier is one sliding window: at most Limit events per Window per identity.
type Tier struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// TierFromConfig builds a Tier from its configuration block.
func TierFromConfig(scope string, c models.TierConfig) Tier {
	return Tier{Scope: scope, Limit: c.Limit, Window: c.Window}
}

// Store holds per-key event logs. Implementations must make AppendIfUnder
// atomic per key and expire idle keys after their ttl.
type Store interface {
	// AppendIfUnder discards events at or before windowStart and, when fewer
	// than limit remain, records now. It reports whether now was recorded.
	AppendIfUnder(ctx context.Context, key string, now, windowStart time.Time, limit int, ttl time.Duration) (bool, error)

	// History returns the events after windowStart, oldest first, without
	// modifying the log.
	History(ctx context.Context, key string, windowStart time.Time) ([]time.Time, error)

	// Close releases resources held by the store.
	Close() error
}

// Info is the quota state of one tier for one identity.
type Info struct {
	Scope     string
	Limit     int
	Remaining int
	ResetAt   int64 // epoch seconds, rounded up
}

// Decision is the outcome of evaluating a set of tiers.
type Decision struct {
	Allowed bool
	// Denied lists the scopes that refused the request.
	Denied []string
	// RetryAfter is the longest wait among denying tiers.
	RetryAfter time.Duration
}

// Limiter evaluates tiers against a Store. It is safe for concurrent use.
type Limiter struct {
	store   Store
	now     func() time.Time
	timeout time.Duration
	prefix  string
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithTimeout bounds each store call.
func WithTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(l *Limiter) { l.prefix = prefix }
}

// NewLimiter creates a Limiter over store.
func NewLimiter(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:   store,
		now:     time.Now,
		timeout: 2 * time.Second,
		prefix:  DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the store key of a (scope, identity) window.
func (l *Limiter) Key(scope, identity string) string {
	return l.prefix + ":" + scope + ":" + identity
}

// Allow records an event for identity in tier when the window has room.
// A denied event is not recorded.
func (l *Limiter) Allow(ctx context.Context, tier Tier, identity string) (bool, error) {
	now := l.now()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	allowed, err := l.store.AppendIfUnder(ctx, l.Key(tier.Scope, identity), now, now.Add(-tier.Window), tier.Limit, tier.Window)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, tier.Scope, err)
	}
	return allowed, nil
}

// AllowAll evaluates every tier, each recording independently, and denies
// when any tier denies.
func (l *Limiter) AllowAll(ctx context.Context, tiers []Tier, identity string) (Decision, error) {
	decision := Decision{Allowed: true}

	for _, tier := range tiers {
		allowed, err := l.Allow(ctx, tier, identity)
		if err != nil {
			return Decision{}, err
		}
		if allowed {
			continue
		}

		decision.Allowed = false
		decision.Denied = append(decision.Denied, tier.Scope)

		wait, err := l.retryAfter(ctx, tier, identity)
		if err != nil {
			return Decision{}, err
		}
		decision.RetryAfter = max(decision.RetryAfter, wait)
	}

	return decision, nil
}

// retryAfter is the time until the oldest event of a full window expires.
func (l *Limiter) retryAfter(ctx context.Context, tier Tier, identity string) (time.Duration, error) {
	now := l.now()
	events, err := l.history(ctx, tier, identity, now)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	return max(events[0].Add(tier.Window).Sub(now), 0), nil
}

// State inspects the window of identity in tier without consuming quota.
func (l *Limiter) State(ctx context.Context, tier Tier, identity string) (Info, error) {
	now := l.now()
	events, err := l.history(ctx, tier, identity, now)
	if err != nil {
		return Info{}, err
	}

	reset := now.Add(tier.Window)
	if len(events) > 0 {
		reset = events[0].Add(tier.Window)
	}

	return Info{
		Scope:     tier.Scope,
		Limit:     tier.Limit,
		Remaining: max(0, tier.Limit-len(events)),
		ResetAt:   ceilUnix(reset),
	}, nil
}

// States returns the State of every tier, in order.
func (l *Limiter) States(ctx context.Context, tiers []Tier, identity string) ([]Info, error) {
	states := make([]Info, 0, len(tiers))
	for _, tier := range tiers {
		info, err := l.State(ctx, tier, identity)
		if err != nil {
			return nil, err
		}
		states = append(states, info)
	}
	return states, nil
}

func (l *Limiter) history(ctx context.Context, tier Tier, identity string, now time.Time) ([]time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	events, err := l.store.History(ctx, l.Key(tier.Scope, identity), now.Add(-tier.Window))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, tier.Scope, err)
	}
	return events, nil
}

// MostRestrictive picks the tier with the fewest remaining events, breaking
// ties by the earliest reset. It reports false for an empty input.
func MostRestrictive(states []Info) (Info, bool) {
	if len(states) == 0 {
		return Info{}, false
	}

	best := states[0]
	for _, s := range states[1:] {
		if s.Remaining < best.Remaining || (s.Remaining == best.Remaining && s.ResetAt < best.ResetAt) {
			best = s
		}
	}
	return best, true
}

func ceilUnix(t time.Time) int64 {
	secs := t.Unix()
	if t.Nanosecond() > 0 {
		secs++
	}
	return secs
}
