package api

import (
	"log/slog"
	"net/http"

	"bookmarks/internal/models"
)

// ApproveBookmarks bulk-approves pending bookmarks.
// POST /bookmarks/v1/admin/bookmarks/approve/
func (h *Handlers) ApproveBookmarks(w http.ResponseWriter, r *http.Request) {
	var req models.ApproveBookmarksRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	moderator := ModeratorFromContext(r.Context())
	resp, err := h.catalog.ApproveBookmarks(r.Context(), &req, moderator)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.Info("AUDIT: bookmarks approved", "moderator", moderator, "requested", len(req.IDs), "approved", resp.Approved)
	writeJSON(w, http.StatusOK, resp)
}

// ListPending returns the moderation queue.
// GET /bookmarks/v1/admin/bookmarks/pending/?page=&page_size=
func (h *Handlers) ListPending(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	resp, err := h.catalog.ListPending(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListTags returns every tag.
// GET /bookmarks/v1/admin/tags/
func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tags)
}

// CreateTag creates a tag.
// POST /bookmarks/v1/admin/tags/
func (h *Handlers) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.catalog.CreateTag(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.Info("AUDIT: tag created", "moderator", ModeratorFromContext(r.Context()), "slug", tag.Slug)
	writeJSON(w, http.StatusCreated, tag)
}
