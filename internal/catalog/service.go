// Package catalog implements the bookmark catalog: URL canonicalization, tag
// reconciliation, the moderated submission pipeline, public read queries and
// moderator actions.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"bookmarks/internal/models"
	"bookmarks/internal/storage"
)

// DefaultOperationTimeout bounds each storage call when no timeout is configured.
const DefaultOperationTimeout = 5 * time.Second

// ServiceInterface defines the catalog operations exposed to the HTTP layer
type ServiceInterface interface {
	// Submit validates and stores a new unapproved bookmark
	Submit(ctx context.Context, req *models.SubmitBookmarkRequest, clientIP string) (*models.SubmissionResponse, error)

	// ListBookmarks returns a page of approved bookmarks
	ListBookmarks(ctx context.Context, req *models.ListBookmarksRequest) (*models.ListBookmarksResponse, error)

	// GetBookmark returns one approved bookmark
	GetBookmark(ctx context.Context, id int64) (*models.BookmarkResponse, error)

	// ApproveBookmarks approves the pending bookmarks among the requested ids
	ApproveBookmarks(ctx context.Context, req *models.ApproveBookmarksRequest, moderator string) (*models.ApproveBookmarksResponse, error)

	// ListPending returns the moderation queue, oldest first
	ListPending(ctx context.Context, req *models.ListBookmarksRequest) (*models.ListPendingResponse, error)

	// CreateTag creates a moderator-curated tag
	CreateTag(ctx context.Context, req *models.CreateTagRequest) (*models.TagResponse, error)

	// ListTags returns every tag
	ListTags(ctx context.Context) ([]models.TagResponse, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)

// Service handles catalog business logic on top of a storage backend
type Service struct {
	storage   storage.Storage
	logger    *slog.Logger
	now       func() time.Time
	opTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// timestamp is the current UTC time at the microsecond precision the SQL
// backends store, so receipts match later reads.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// WithOperationTimeout bounds every storage call.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

// WithLogger sets the logger used for audit lines.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new catalog service with the given storage backend
func NewService(store storage.Storage, opts ...Option) *Service {
	s := &Service{
		storage:   store,
		logger:    slog.Default(),
		now:       time.Now,
		opTimeout: DefaultOperationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}
