package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"bookmarks/internal/models"
	"bookmarks/internal/storage"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner storage.Storage
	rec   *operationRecorder
}

var _ storage.Storage = (*InstrumentedStorage)(nil)

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
func NewInstrumentedStorage(inner storage.Storage, opts ...InstrumentOption) (*InstrumentedStorage, error) {
	rec, err := newOperationRecorder("storage", resolveInstrumentOptions(opts))
	if err != nil {
		return nil, err
	}
	return &InstrumentedStorage{inner: inner, rec: rec}, nil
}

func (s *InstrumentedStorage) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	ctx, span := s.rec.startSpan(ctx, "CreateBookmark",
		attribute.Int("tags", len(b.Tags)),
		attribute.Int("pending_tags", len(b.PendingTags)),
	)
	start := time.Now()
	err := s.inner.CreateBookmark(ctx, b)
	if err == nil {
		span.SetAttributes(attribute.Int64("bookmark_id", b.ID))
	}
	s.rec.record(ctx, span, "CreateBookmark", start, err)
	return err
}

func (s *InstrumentedStorage) BookmarkURLExists(ctx context.Context, canonicalURL string) (bool, error) {
	ctx, span := s.rec.startSpan(ctx, "BookmarkURLExists")
	start := time.Now()
	exists, err := s.inner.BookmarkURLExists(ctx, canonicalURL)
	s.rec.record(ctx, span, "BookmarkURLExists", start, err)
	return exists, err
}

func (s *InstrumentedStorage) GetBookmark(ctx context.Context, id int64) (*models.Bookmark, error) {
	ctx, span := s.rec.startSpan(ctx, "GetBookmark", attribute.Int64("bookmark_id", id))
	start := time.Now()
	result, err := s.inner.GetBookmark(ctx, id)
	s.rec.record(ctx, span, "GetBookmark", start, err)
	return result, err
}

func (s *InstrumentedStorage) ListBookmarks(ctx context.Context, q models.BookmarkQuery) ([]*models.Bookmark, int, error) {
	ctx, span := s.rec.startSpan(ctx, "ListBookmarks",
		attribute.String("approval", approvalFilter(q.ApprovedOnly)),
		attribute.String("tag", q.Tag),
		attribute.Int("limit", q.Limit),
		attribute.Int("offset", q.Offset),
	)
	start := time.Now()
	result, total, err := s.inner.ListBookmarks(ctx, q)
	s.rec.record(ctx, span, "ListBookmarks", start, err)
	return result, total, err
}

func (s *InstrumentedStorage) ApproveBookmarks(ctx context.Context, ids []int64, moderator string, at time.Time) (int, error) {
	ctx, span := s.rec.startSpan(ctx, "ApproveBookmarks",
		attribute.Int("ids", len(ids)),
		attribute.String("moderator", moderator),
	)
	start := time.Now()
	n, err := s.inner.ApproveBookmarks(ctx, ids, moderator, at)
	span.SetAttributes(attribute.Int("approved", n))
	s.rec.record(ctx, span, "ApproveBookmarks", start, err)
	return n, err
}

func (s *InstrumentedStorage) TagsBySlugs(ctx context.Context, slugs []string) ([]models.Tag, error) {
	ctx, span := s.rec.startSpan(ctx, "TagsBySlugs", attribute.StringSlice("slugs", slugs))
	start := time.Now()
	result, err := s.inner.TagsBySlugs(ctx, slugs)
	s.rec.record(ctx, span, "TagsBySlugs", start, err)
	return result, err
}

func (s *InstrumentedStorage) CreateTag(ctx context.Context, tag *models.Tag) error {
	ctx, span := s.rec.startSpan(ctx, "CreateTag", attribute.String("slug", tag.Slug))
	start := time.Now()
	err := s.inner.CreateTag(ctx, tag)
	s.rec.record(ctx, span, "CreateTag", start, err)
	return err
}

func (s *InstrumentedStorage) ListTags(ctx context.Context) ([]models.Tag, error) {
	ctx, span := s.rec.startSpan(ctx, "ListTags")
	start := time.Now()
	result, err := s.inner.ListTags(ctx)
	s.rec.record(ctx, span, "ListTags", start, err)
	return result, err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	ctx, span := s.rec.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.rec.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}

func approvalFilter(approvedOnly *bool) string {
	switch {
	case approvedOnly == nil:
		return "any"
	case *approvedOnly:
		return "approved"
	default:
		return "pending"
	}
}
