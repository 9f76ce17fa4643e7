package storage

import (
	"context"
	"path/filepath"
	"testing"

	"bookmarks/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteTestStorage(t *testing.T) Storage {
	t.Helper()
	s, err := NewSQLiteStorage(Config{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage(t *testing.T) {
	runStorageContract(t, newSQLiteTestStorage)
}

func TestSQLiteStorage_RequiresDSN(t *testing.T) {
	_, err := NewSQLiteStorage(Config{})
	assert.Error(t, err)
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	first, err := NewSQLiteStorage(Config{ConnectionString: path})
	require.NoError(t, err)
	b := &models.Bookmark{Title: "Persisted", URL: "https://example.com/p", CreatedAt: baseTime}
	require.NoError(t, first.CreateBookmark(ctx, b))
	require.NoError(t, first.Close())

	// Schema creation is idempotent and data survives a reopen.
	second, err := NewSQLiteStorage(Config{ConnectionString: path})
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetBookmark(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Title)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:a.db?mode=rwc"))
	assert.Equal(t, "a.db?_pragma=journal_mode(WAL)", sqliteDSN("a.db?_pragma=journal_mode(WAL)"))
}
