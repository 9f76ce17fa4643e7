// Package models - API request types and input normalization.
// This file defines the incoming request structures of the public and
// moderator endpoints.
//
// Validation Philosophy:
// - The HTTP layer rejects malformed or out-of-range paging values
// - Normalize fills defaults and clamps whatever reaches the service
// - Unknown ordering falls back to newest first
// - Submission content is validated by the catalog service, not here
package models

import "strings"

// Listing defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage bounds page so the row offset cannot overflow.
	MaxPage = 1_000_000

	OrderingCreatedAsc  = "created_at"
	OrderingCreatedDesc = "-created_at"
)

// SubmitBookmarkRequest is the body of POST /bookmarks/v1/bookmarks/submit/.
// Website is a honeypot field: humans never see it, so any content rejects
// the submission.
type SubmitBookmarkRequest struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Website     string   `json:"website,omitempty"`
}

// ListBookmarksRequest carries the query parameters of the public listing.
type ListBookmarksRequest struct {
	Tag      string `json:"tag,omitempty"`
	Search   string `json:"search,omitempty"`
	Ordering string `json:"ordering,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// Normalize applies defaults and clamps paging values.
func (r *ListBookmarksRequest) Normalize() {
	r.Tag = strings.TrimSpace(r.Tag)
	r.Search = strings.TrimSpace(r.Search)

	if r.Ordering != OrderingCreatedAsc {
		r.Ordering = OrderingCreatedDesc
	}
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Page > MaxPage {
		r.Page = MaxPage
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
}

// Offset returns the row offset of the requested page.
func (r *ListBookmarksRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// ApproveBookmarksRequest is the body of the moderator bulk-approve endpoint.
type ApproveBookmarksRequest struct {
	IDs []int64 `json:"ids"`
}

// CreateTagRequest is the body of the moderator tag creation endpoint.
// Slug is derived from Name when empty.
type CreateTagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}
