package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookmarks/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// runStorageContract exercises the behaviour every backend must share.
func runStorageContract(t *testing.T, newStorage func(t *testing.T) Storage) {
	t.Run("CreateBookmark", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		b := &models.Bookmark{Title: "Go", URL: "https://www.Golang.org/doc", CreatedAt: baseTime}
		require.NoError(t, s.CreateBookmark(ctx, b))
		assert.NotZero(t, b.ID)
		assert.Equal(t, "golang.org", b.Domain)

		exists, err := s.BookmarkURLExists(ctx, "HTTPS://WWW.GOLANG.ORG/DOC")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.BookmarkURLExists(ctx, "https://golang.org/other")
		require.NoError(t, err)
		assert.False(t, exists)

		dup := &models.Bookmark{Title: "Go again", URL: "https://www.golang.org/DOC", CreatedAt: baseTime}
		err = s.CreateBookmark(ctx, dup)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("GetBookmark", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		web := createTag(t, s, "Web", "web")
		golang := createTag(t, s, "Golang", "golang")
		ip := "10.0.0.1"

		b := &models.Bookmark{
			Title:       "Tagged",
			URL:         "https://example.com/tagged",
			Description: "with tags",
			Tags:        []models.Tag{web, golang},
			PendingTags: []string{"unknown"},
			SubmittedIP: &ip,
			CreatedAt:   baseTime,
		}
		require.NoError(t, s.CreateBookmark(ctx, b))

		got, err := s.GetBookmark(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Tagged", got.Title)
		assert.Equal(t, "with tags", got.Description)
		assert.Equal(t, "example.com", got.Domain)
		assert.Equal(t, []string{"golang", "web"}, got.TagSlugs())
		assert.Equal(t, []string{"unknown"}, got.PendingTags)
		assert.False(t, got.IsApproved)
		assert.Nil(t, got.ApprovedAt)
		assert.Nil(t, got.ApprovedBy)
		require.NotNil(t, got.SubmittedIP)
		assert.Equal(t, ip, *got.SubmittedIP)
		assert.True(t, got.CreatedAt.Equal(baseTime))

		_, err = s.GetBookmark(ctx, b.ID+1000)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Tags", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		createTag(t, s, "Web", "web")
		createTag(t, s, "API", "api")

		err := s.CreateTag(ctx, &models.Tag{Name: "Web again", Slug: "web"})
		assert.ErrorIs(t, err, ErrDuplicate)

		tags, err := s.ListTags(ctx)
		require.NoError(t, err)
		require.Len(t, tags, 2)
		assert.Equal(t, "api", tags[0].Slug)
		assert.Equal(t, "web", tags[1].Slug)

		found, err := s.TagsBySlugs(ctx, []string{"web", "missing"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Web", found[0].Name)

		none, err := s.TagsBySlugs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ListBookmarks", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		golang := createTag(t, s, "Golang", "golang")
		ids := make([]int64, 0, 5)
		for i := range 5 {
			b := &models.Bookmark{
				Title:       fmt.Sprintf("Bookmark %d", i),
				URL:         fmt.Sprintf("https://example.com/%d", i),
				Description: "plain",
				CreatedAt:   baseTime.Add(time.Duration(i) * time.Minute),
			}
			if i%2 == 0 {
				b.Tags = []models.Tag{golang}
			}
			if i == 3 {
				b.Description = "A Guide To Testing"
			}
			require.NoError(t, s.CreateBookmark(ctx, b))
			ids = append(ids, b.ID)
		}

		// Approve all except the last one.
		n, err := s.ApproveBookmarks(ctx, ids[:4], "mod", baseTime)
		require.NoError(t, err)
		require.Equal(t, 4, n)

		page, total, err := s.ListBookmarks(ctx, models.BookmarkQuery{ApprovedOnly: models.Approved(true)})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, page, 4)
		assert.Equal(t, ids[3], page[0].ID, "newest first")
		assert.Equal(t, ids[0], page[3].ID)

		page, _, err = s.ListBookmarks(ctx, models.BookmarkQuery{ApprovedOnly: models.Approved(true), Ascending: true})
		require.NoError(t, err)
		assert.Equal(t, ids[0], page[0].ID)

		page, total, err = s.ListBookmarks(ctx, models.BookmarkQuery{ApprovedOnly: models.Approved(true), Tag: "golang"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, b := range page {
			assert.Equal(t, []string{"golang"}, b.TagSlugs())
		}

		page, total, err = s.ListBookmarks(ctx, models.BookmarkQuery{ApprovedOnly: models.Approved(true), Search: "guide"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, page, 1)
		assert.Equal(t, ids[3], page[0].ID)

		page, total, err = s.ListBookmarks(ctx, models.BookmarkQuery{ApprovedOnly: models.Approved(true), Search: "BOOKMARK 1"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, page, 1)
		assert.Equal(t, ids[1], page[0].ID)

		page, total, err = s.ListBookmarks(ctx, models.BookmarkQuery{ApprovedOnly: models.Approved(true), Limit: 3, Offset: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, page, 1)
		assert.Equal(t, ids[0], page[0].ID)

		page, total, err = s.ListBookmarks(ctx, models.BookmarkQuery{ApprovedOnly: models.Approved(false)})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, page, 1)
		assert.Equal(t, ids[4], page[0].ID)

		_, total, err = s.ListBookmarks(ctx, models.BookmarkQuery{})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
	})

	t.Run("ApproveBookmarks", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		a := &models.Bookmark{Title: "A", URL: "https://a.example.com/", CreatedAt: baseTime}
		b := &models.Bookmark{Title: "B", URL: "https://b.example.com/", CreatedAt: baseTime}
		require.NoError(t, s.CreateBookmark(ctx, a))
		require.NoError(t, s.CreateBookmark(ctx, b))

		n, err := s.ApproveBookmarks(ctx, nil, "mod", baseTime)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		at := baseTime.Add(time.Hour)
		n, err = s.ApproveBookmarks(ctx, []int64{a.ID, a.ID + b.ID + 1000}, "alice", at)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := s.GetBookmark(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, got.IsApproved)
		require.NotNil(t, got.ApprovedAt)
		assert.True(t, got.ApprovedAt.Equal(at))
		require.NotNil(t, got.ApprovedBy)
		assert.Equal(t, "alice", *got.ApprovedBy)

		// Already approved rows are not counted or restamped.
		n, err = s.ApproveBookmarks(ctx, []int64{a.ID, b.ID}, "bob", at.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err = s.GetBookmark(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", *got.ApprovedBy)
		assert.True(t, got.ApprovedAt.Equal(at))

		n, err = s.ApproveBookmarks(ctx, []int64{a.ID, b.ID}, "bob", at)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("UnicodeCaseFolding", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		b := &models.Bookmark{Title: "Über Guide", URL: "https://example.com/Ä", Description: "Straße und Ökonomie", CreatedAt: baseTime}
		require.NoError(t, s.CreateBookmark(ctx, b))

		exists, err := s.BookmarkURLExists(ctx, "https://example.com/ä")
		require.NoError(t, err)
		assert.True(t, exists)

		err = s.CreateBookmark(ctx, &models.Bookmark{Title: "dup", URL: "https://example.com/ä", CreatedAt: baseTime})
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = s.ApproveBookmarks(ctx, []int64{b.ID}, "mod", baseTime)
		require.NoError(t, err)

		for _, needle := range []string{"über", "ÜBER GUIDE", "ökonomie"} {
			page, total, err := s.ListBookmarks(ctx, models.BookmarkQuery{ApprovedOnly: models.Approved(true), Search: needle, Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, 1, total, "search %q", needle)
			require.Len(t, page, 1, "search %q", needle)
			assert.Equal(t, b.ID, page[0].ID)
		}
	})

	t.Run("SearchWithPaging", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		var ids []int64
		for i := range 3 {
			b := &models.Bookmark{
				Title:     fmt.Sprintf("Tutorial %d", i),
				URL:       fmt.Sprintf("https://learn.example.com/%d", i),
				CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, s.CreateBookmark(ctx, b))
			ids = append(ids, b.ID)
		}
		_, err := s.ApproveBookmarks(ctx, ids, "mod", baseTime)
		require.NoError(t, err)

		page, total, err := s.ListBookmarks(ctx, models.BookmarkQuery{
			ApprovedOnly: models.Approved(true),
			Search:       "tutorial",
			Limit:        2,
			Offset:       2,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 1)
		assert.Equal(t, ids[0], page[0].ID)
	})

	t.Run("ConcurrentDuplicates", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				url := "https://race.example.com/Page"
				if i%2 == 1 {
					url = "https://RACE.example.com/page"
				}
				errs[i] = s.CreateBookmark(ctx, &models.Bookmark{Title: "race", URL: url, CreatedAt: baseTime})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, errors.Is(err, ErrDuplicate), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStorage(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func createTag(t *testing.T, s Storage, name, slug string) models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug}
	require.NoError(t, s.CreateTag(context.Background(), tag))
	require.NotZero(t, tag.ID)
	return *tag
}
