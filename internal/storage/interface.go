package storage

import (
	"context"
	"time"

	"bookmarks/internal/models"
)

// Storage defines the interface for bookmark and tag persistence.
// Implementations must enforce uniqueness of the lowercased bookmark URL
// atomically: two concurrent CreateBookmark calls for the same key result in
// exactly one success and one ErrDuplicate.
type Storage interface {
	// CreateBookmark inserts b together with its known Tags in one unit of
	// work. ID and Domain are assigned by the storage; CreatedAt is set when zero.
	CreateBookmark(ctx context.Context, b *models.Bookmark) error

	// BookmarkURLExists reports whether a bookmark with the same
	// case-insensitive canonical URL is stored.
	BookmarkURLExists(ctx context.Context, canonicalURL string) (bool, error)

	// GetBookmark retrieves a bookmark by ID regardless of approval state.
	GetBookmark(ctx context.Context, id int64) (*models.Bookmark, error)

	// ListBookmarks returns one page of bookmarks matching q and the total
	// number of matches.
	ListBookmarks(ctx context.Context, q models.BookmarkQuery) ([]*models.Bookmark, int, error)

	// ApproveBookmarks approves the not-yet-approved bookmarks among ids,
	// stamping moderator and at, and returns how many rows changed.
	ApproveBookmarks(ctx context.Context, ids []int64, moderator string, at time.Time) (int, error)

	// TagsBySlugs returns the stored tags whose slug is in slugs.
	TagsBySlugs(ctx context.Context, slugs []string) ([]models.Tag, error)

	// CreateTag inserts a tag and assigns its ID. Returns ErrDuplicate when
	// the slug is taken.
	CreateTag(ctx context.Context, tag *models.Tag) error

	// ListTags returns every tag ordered by slug.
	ListTags(ctx context.Context) ([]models.Tag, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources
	Close() error
}

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type (memory, postgres, sqlite)
	Type string `json:"type" yaml:"type"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`

	MaxOpenConns    int           `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"`
}
