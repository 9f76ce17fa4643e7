// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Public views never carry moderation or submitter fields
// - The submission receipt echoes pending tags and the unapproved state
// - Timestamps are RFC3339
package models

import (
	"time"
)

// BookmarkResponse is the public view of an approved bookmark.
type BookmarkResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubmissionResponse is the receipt returned after a successful submission.
type SubmissionResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	PendingTags []string  `json:"pending_tags"`
	IsApproved  bool      `json:"is_approved"`
	CreatedAt   time.Time `json:"created_at"`
}

// ModerationBookmarkResponse is the moderator view of a bookmark, including
// the fields hidden from the public surface.
type ModerationBookmarkResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Domain      string     `json:"domain"`
	Tags        []string   `json:"tags"`
	PendingTags []string   `json:"pending_tags"`
	IsApproved  bool       `json:"is_approved"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  *string    `json:"approved_by,omitempty"`
	SubmittedIP *string    `json:"submitted_ip,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ListBookmarksResponse struct {
	Bookmarks  []BookmarkResponse `json:"bookmarks"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	HasMore    bool               `json:"has_more"`
}

type ListPendingResponse struct {
	Bookmarks  []ModerationBookmarkResponse `json:"bookmarks"`
	TotalCount int                          `json:"total_count"`
}

type ApproveBookmarksResponse struct {
	Approved int `json:"approved"`
}

type TagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ErrorResponse provides structured error information.
//
// Error Categories:
// - Validation errors: INVALID_URL, DUPLICATE_URL, VALIDATION_ERROR
// - Throttling: RATE_LIMITED
// - Not found errors: unapproved or missing bookmarks
// - Internal errors: storage or limiter store failures
type ErrorResponse struct {
	Error     string            `json:"error"`             // Error type (always "error")
	Message   string            `json:"message"`           // Human-readable error description
	Code      string            `json:"code,omitempty"`    // Machine-readable error code
	Details   map[string]string `json:"details,omitempty"` // Field-specific error details
	Timestamp time.Time         `json:"timestamp"`         // Error occurrence time
}

// HealthResponse is the body of the public liveness endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
)

// Standard HTTP Error Codes
//
// Error Code Strategy:
// - Upper-case with underscores for consistency
// - Maps to standard HTTP status codes
// - Machine-readable for client error handling
const (
	ErrorCodeInvalidURL         = "INVALID_URL"         // 400: URL scheme or shape rejected
	ErrorCodeDuplicateURL       = "DUPLICATE_URL"       // 400: canonical URL already submitted
	ErrorCodeValidation         = "VALIDATION_ERROR"    // 400: field length/required failures, honeypot
	ErrorCodeInvalidRequest     = "INVALID_REQUEST"     // 400: malformed body
	ErrorCodeRateLimited        = "RATE_LIMITED"        // 429: a limiter tier denied the request
	ErrorCodeNotFound           = "NOT_FOUND"           // 404: missing or unapproved bookmark
	ErrorCodeUnauthorized       = "UNAUTHORIZED"        // 401: no moderator identity
	ErrorCodeForbidden          = "FORBIDDEN"           // 403: identity is not a moderator
	ErrorCodeConflict           = "CONFLICT"            // 409: tag slug already exists
	ErrorCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"  // 405
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503: storage or limiter store unavailable
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// FromBookmark fills the public view.
func (r *BookmarkResponse) FromBookmark(b *Bookmark) {
	r.ID = b.ID
	r.Title = b.Title
	r.URL = b.URL
	r.Description = b.Description
	r.Tags = b.TagSlugs()
	r.CreatedAt = b.CreatedAt
}

// FromBookmark fills the submission receipt.
func (r *SubmissionResponse) FromBookmark(b *Bookmark) {
	r.ID = b.ID
	r.Title = b.Title
	r.URL = b.URL
	r.Description = b.Description
	r.Tags = b.TagSlugs()
	r.PendingTags = b.PendingTags
	if r.PendingTags == nil {
		r.PendingTags = []string{}
	}
	r.IsApproved = b.IsApproved
	r.CreatedAt = b.CreatedAt
}

func (r *ModerationBookmarkResponse) FromBookmark(b *Bookmark) {
	r.ID = b.ID
	r.Title = b.Title
	r.URL = b.URL
	r.Description = b.Description
	r.Domain = b.Domain
	r.Tags = b.TagSlugs()
	r.PendingTags = b.PendingTags
	if r.PendingTags == nil {
		r.PendingTags = []string{}
	}
	r.IsApproved = b.IsApproved
	r.ApprovedAt = b.ApprovedAt
	r.ApprovedBy = b.ApprovedBy
	r.SubmittedIP = b.SubmittedIP
	r.CreatedAt = b.CreatedAt
}

func (r *TagResponse) FromTag(t *Tag) {
	r.ID = t.ID
	r.Name = t.Name
	r.Slug = t.Slug
}
