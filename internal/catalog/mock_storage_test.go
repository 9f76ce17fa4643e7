package catalog

import (
	"context"
	"time"

	"bookmarks/internal/models"
	"bookmarks/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage implements storage.Storage with testify/mock.
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockStorage) BookmarkURLExists(ctx context.Context, canonicalURL string) (bool, error) {
	args := m.Called(ctx, canonicalURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) GetBookmark(ctx context.Context, id int64) (*models.Bookmark, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*models.Bookmark), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) ListBookmarks(ctx context.Context, q models.BookmarkQuery) ([]*models.Bookmark, int, error) {
	args := m.Called(ctx, q)
	if b := args.Get(0); b != nil {
		return b.([]*models.Bookmark), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *MockStorage) ApproveBookmarks(ctx context.Context, ids []int64, moderator string, at time.Time) (int, error) {
	args := m.Called(ctx, ids, moderator, at)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) TagsBySlugs(ctx context.Context, slugs []string) ([]models.Tag, error) {
	args := m.Called(ctx, slugs)
	if t := args.Get(0); t != nil {
		return t.([]models.Tag), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) CreateTag(ctx context.Context, tag *models.Tag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *MockStorage) ListTags(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	if t := args.Get(0); t != nil {
		return t.([]models.Tag), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}
