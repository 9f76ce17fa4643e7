package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"bookmarks/internal/ratelimit"
)

// InstrumentedWindowStore wraps a ratelimit.Store, tracing each call and
// counting admission decisions by scope.
type InstrumentedWindowStore struct {
	inner     ratelimit.Store
	rec       *operationRecorder
	decisions metric.Int64Counter
}

var _ ratelimit.Store = (*InstrumentedWindowStore)(nil)

// NewInstrumentedWindowStore creates the wrapper.
func NewInstrumentedWindowStore(inner ratelimit.Store, opts ...InstrumentOption) (*InstrumentedWindowStore, error) {
	o := resolveInstrumentOptions(opts)

	rec, err := newOperationRecorder("ratelimit", o)
	if err != nil {
		return nil, err
	}

	decisions, err := o.meterProvider.Meter("bookmarks/ratelimit").Int64Counter(
		"ratelimit.decisions",
		metric.WithDescription("Rate limit decisions by scope and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedWindowStore{inner: inner, rec: rec, decisions: decisions}, nil
}

func (s *InstrumentedWindowStore) AppendIfUnder(ctx context.Context, key string, now, windowStart time.Time, limit int, ttl time.Duration) (bool, error) {
	scope := scopeOf(key)
	ctx, span := s.rec.startSpan(ctx, "AppendIfUnder",
		attribute.String("scope", scope),
		attribute.Int("limit", limit),
	)
	start := time.Now()
	allowed, err := s.inner.AppendIfUnder(ctx, key, now, windowStart, limit, ttl)
	s.rec.record(ctx, span, "AppendIfUnder", start, err)

	if err == nil {
		outcome := "denied"
		if allowed {
			outcome = "allowed"
		}
		s.decisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("outcome", outcome),
		))
	}
	return allowed, err
}

func (s *InstrumentedWindowStore) History(ctx context.Context, key string, windowStart time.Time) ([]time.Time, error) {
	ctx, span := s.rec.startSpan(ctx, "History", attribute.String("scope", scopeOf(key)))
	start := time.Now()
	events, err := s.inner.History(ctx, key, windowStart)
	s.rec.record(ctx, span, "History", start, err)
	return events, err
}

func (s *InstrumentedWindowStore) Close() error {
	return s.inner.Close()
}

// scopeOf maps a window key to one of the known scopes so client addresses
// never become metric labels.
func scopeOf(key string) string {
	for _, scope := range knownScopes {
		if strings.Contains(key, ":"+scope+":") {
			return scope
		}
	}
	return "other"
}

var knownScopes = []string{ratelimit.ScopeReads, ratelimit.ScopeSubmitBurst, ratelimit.ScopeSubmitDay}
