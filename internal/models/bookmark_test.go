package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainOf(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "strips www", url: "https://www.google.com", expected: "google.com"},
		{name: "lowercases host", url: "https://Example.COM/path", expected: "example.com"},
		{name: "keeps subdomain", url: "http://docs.example.com/", expected: "docs.example.com"},
		{name: "keeps non-default port", url: "http://example.com:8080/", expected: "example.com:8080"},
		{name: "only leading www", url: "https://wwwx.example.com/", expected: "wwwx.example.com"},
		{name: "empty", url: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DomainOf(tt.url))
		})
	}
}

func TestBookmark_DedupKey(t *testing.T) {
	b := &Bookmark{URL: "https://example.com/Path?Q=1"}
	assert.Equal(t, "https://example.com/path?q=1", b.DedupKey())
}

func TestBookmark_TagSlugs(t *testing.T) {
	b := &Bookmark{Tags: []Tag{{ID: 1, Name: "Go", Slug: "go"}, {ID: 2, Name: "API", Slug: "api"}}}
	assert.Equal(t, []string{"go", "api"}, b.TagSlugs())

	empty := &Bookmark{}
	assert.NotNil(t, empty.TagSlugs())
	assert.Empty(t, empty.TagSlugs())
}

func TestListBookmarksRequest_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    ListBookmarksRequest
		expected ListBookmarksRequest
	}{
		{
			name:     "defaults",
			input:    ListBookmarksRequest{},
			expected: ListBookmarksRequest{Ordering: OrderingCreatedDesc, Page: 1, PageSize: DefaultPageSize},
		},
		{
			name:     "ascending kept",
			input:    ListBookmarksRequest{Ordering: "created_at", Page: 3, PageSize: 5},
			expected: ListBookmarksRequest{Ordering: OrderingCreatedAsc, Page: 3, PageSize: 5},
		},
		{
			name:     "unknown ordering falls back",
			input:    ListBookmarksRequest{Ordering: "title"},
			expected: ListBookmarksRequest{Ordering: OrderingCreatedDesc, Page: 1, PageSize: DefaultPageSize},
		},
		{
			name:     "page size clamped",
			input:    ListBookmarksRequest{PageSize: 1000, Tag: " go ", Search: " guide "},
			expected: ListBookmarksRequest{Tag: "go", Search: "guide", Ordering: OrderingCreatedDesc, Page: 1, PageSize: MaxPageSize},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.input
			req.Normalize()
			assert.Equal(t, tt.expected, req)
		})
	}

	req := ListBookmarksRequest{Page: 3, PageSize: 10}
	assert.Equal(t, 20, req.Offset())

	huge := ListBookmarksRequest{Page: math.MaxInt, PageSize: 20}
	huge.Normalize()
	assert.Equal(t, MaxPage, huge.Page)
	assert.Equal(t, (MaxPage-1)*20, huge.Offset())
	assert.Positive(t, huge.Offset())
}

func TestSubmissionResponse_FromBookmark(t *testing.T) {
	b := &Bookmark{ID: 7, Title: "T", URL: "https://example.com/", Tags: []Tag{{Slug: "go"}}}

	var resp SubmissionResponse
	resp.FromBookmark(b)

	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, []string{"go"}, resp.Tags)
	assert.NotNil(t, resp.PendingTags)
	assert.False(t, resp.IsApproved)
}
