package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"bookmarks/internal/models"
)

// MemoryStorage implements the Storage interface using in-memory data structures.
// This provider is ideal for development, testing, and scenarios where data
// persistence is not required. It provides fast access but data is lost on restart.
type MemoryStorage struct {
	mu             sync.RWMutex
	bookmarks      map[int64]*models.Bookmark
	urls           map[string]int64 // dedup key -> bookmark ID
	tags           map[int64]*models.Tag
	slugs          map[string]int64 // slug -> tag ID
	lastBookmarkID int64
	lastTagID      int64
}

// NewMemoryStorage creates a new memory-based storage instance
func NewMemoryStorage(config Config) (*MemoryStorage, error) {
	return &MemoryStorage{
		bookmarks: make(map[int64]*models.Bookmark),
		urls:      make(map[string]int64),
		tags:      make(map[int64]*models.Tag),
		slugs:     make(map[string]int64),
	}, nil
}

// CreateBookmark stores a copy of b. The dedup check and insert happen under
// the write lock, so concurrent duplicates resolve to one winner.
func (m *MemoryStorage) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := b.DedupKey()
	if _, exists := m.urls[key]; exists {
		return ErrDuplicate
	}

	for _, tag := range b.Tags {
		if _, ok := m.tags[tag.ID]; !ok {
			return fmt.Errorf("tag %d: %w", tag.ID, ErrNotFound)
		}
	}

	m.lastBookmarkID++
	b.ID = m.lastBookmarkID
	b.Domain = models.DomainOf(b.URL)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	stored := copyBookmark(b)
	sortTags(stored.Tags)
	m.bookmarks[b.ID] = stored
	m.urls[key] = b.ID

	return nil
}

// BookmarkURLExists reports whether the dedup key of canonicalURL is taken
func (m *MemoryStorage) BookmarkURLExists(ctx context.Context, canonicalURL string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.urls[models.DedupKey(canonicalURL)]
	return exists, nil
}

// GetBookmark retrieves a bookmark by its ID
func (m *MemoryStorage) GetBookmark(ctx context.Context, id int64) (*models.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, exists := m.bookmarks[id]
	if !exists {
		return nil, fmt.Errorf("bookmark %d: %w", id, ErrNotFound)
	}

	// Return a copy
	return copyBookmark(b), nil
}

// ListBookmarks filters, orders and pages the stored bookmarks
func (m *MemoryStorage) ListBookmarks(ctx context.Context, q models.BookmarkQuery) ([]*models.Bookmark, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(q.Search)
	matched := make([]*models.Bookmark, 0, len(m.bookmarks))
	for _, b := range m.bookmarks {
		if q.ApprovedOnly != nil && b.IsApproved != *q.ApprovedOnly {
			continue
		}
		if q.Tag != "" && !slices.Contains(b.TagSlugs(), q.Tag) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.Description), search) {
			continue
		}
		matched = append(matched, b)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if q.Ascending {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return b.CreatedAt.Before(a.CreatedAt)
		}
		if q.Ascending {
			return a.ID < b.ID
		}
		return b.ID < a.ID
	})

	total := len(matched)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}

	page := make([]*models.Bookmark, 0, end-start)
	for _, b := range matched[start:end] {
		page = append(page, copyBookmark(b))
	}

	return page, total, nil
}

// ApproveBookmarks flips the pending bookmarks among ids to approved
func (m *MemoryStorage) ApproveBookmarks(ctx context.Context, ids []int64, moderator string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	approved := 0
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		b, exists := m.bookmarks[id]
		if !exists || b.IsApproved {
			continue
		}
		approvedAt := at
		approvedBy := moderator
		b.IsApproved = true
		b.ApprovedAt = &approvedAt
		b.ApprovedBy = &approvedBy
		approved++
	}

	return approved, nil
}

// TagsBySlugs returns the tags whose slug is in slugs, ordered by slug
func (m *MemoryStorage) TagsBySlugs(ctx context.Context, slugs []string) ([]models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]models.Tag, 0, len(slugs))
	for _, slug := range slugs {
		if id, ok := m.slugs[slug]; ok {
			tags = append(tags, *m.tags[id])
		}
	}
	sortTags(tags)
	return slices.CompactFunc(tags, func(a, b models.Tag) bool { return a.ID == b.ID }), nil
}

// CreateTag stores a new tag
func (m *MemoryStorage) CreateTag(ctx context.Context, tag *models.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.slugs[tag.Slug]; exists {
		return ErrDuplicate
	}

	m.lastTagID++
	tag.ID = m.lastTagID
	stored := *tag
	m.tags[tag.ID] = &stored
	m.slugs[tag.Slug] = tag.ID

	return nil
}

// ListTags returns every tag ordered by slug
func (m *MemoryStorage) ListTags(ctx context.Context) ([]models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]models.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		tags = append(tags, *t)
	}
	sortTags(tags)
	return tags, nil
}

// Ping always succeeds for in-memory storage
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for memory storage
func (m *MemoryStorage) Close() error {
	return nil
}

func copyBookmark(b *models.Bookmark) *models.Bookmark {
	c := *b
	c.Tags = slices.Clone(b.Tags)
	if c.Tags == nil {
		c.Tags = []models.Tag{}
	}
	c.PendingTags = slices.Clone(b.PendingTags)
	if c.PendingTags == nil {
		c.PendingTags = []string{}
	}
	if b.ApprovedAt != nil {
		at := *b.ApprovedAt
		c.ApprovedAt = &at
	}
	if b.ApprovedBy != nil {
		by := *b.ApprovedBy
		c.ApprovedBy = &by
	}
	if b.SubmittedIP != nil {
		ip := *b.SubmittedIP
		c.SubmittedIP = &ip
	}
	return &c
}

func sortTags(tags []models.Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].Slug < tags[j].Slug })
}
