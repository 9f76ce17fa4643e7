// Package models - Bookmark and tag domain types.
// This file defines the entities persisted by the storage backends.
//
// Lifecycle:
// - Bookmarks are created unapproved by the submission pipeline
// - Only moderation stamps the approval fields
// - Tags are created by moderators; submitted names without a tag stay in PendingTags
// - Domain is derived from URL on every persist and is never set directly
package models

import (
	"net/url"
	"strings"
	"time"
)

// Field limits shared by validation and storage schemas.
const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 500
	MaxURLLength         = 200
	MaxTagLength         = 50
	MaxDomainLength      = 255
	MaxSubmittedIPLength = 45
)

// Tag is a moderator-curated label. Slug is the unique lowercase identifier
// clients filter by; Name is for display.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Bookmark is a submitted link. URL holds the canonical form produced at
// submission time; uniqueness is enforced on its lowercased value.
type Bookmark struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Domain      string     `json:"domain"`
	Tags        []Tag      `json:"tags"`
	PendingTags []string   `json:"pending_tags"`
	IsApproved  bool       `json:"is_approved"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  *string    `json:"approved_by,omitempty"`
	SubmittedIP *string    `json:"submitted_ip,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DedupKey returns the case-insensitive uniqueness key for the bookmark URL.
func (b *Bookmark) DedupKey() string {
	return DedupKey(b.URL)
}

// TagSlugs returns the slugs of the attached tags in their stored order.
func (b *Bookmark) TagSlugs() []string {
	slugs := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		slugs = append(slugs, t.Slug)
	}
	return slugs
}

// DedupKey lowercases a canonical URL for uniqueness comparisons.
func DedupKey(canonicalURL string) string {
	return strings.ToLower(canonicalURL)
}

// DomainOf derives the display domain of a URL: the lowercased host with a
// leading "www." removed. https://www.google.com -> google.com
func DomainOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	return strings.TrimPrefix(host, "www.")
}

// BookmarkQuery filters bookmark listings. A nil ApprovedOnly returns every
// bookmark regardless of state.
type BookmarkQuery struct {
	ApprovedOnly *bool
	Tag          string
	Search       string
	Ascending    bool
	Limit        int
	Offset       int
}

// Approved is a convenience for building BookmarkQuery.ApprovedOnly.
func Approved(v bool) *bool {
	return &v
}
