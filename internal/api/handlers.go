package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"bookmarks/internal/catalog"
	"bookmarks/internal/models"
	"bookmarks/internal/ratelimit"
	"bookmarks/internal/storage"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// readinessTimeout bounds the storage ping of the readiness probe.
const readinessTimeout = 2 * time.Second

// Handlers contains HTTP handlers for the bookmarks API
type Handlers struct {
	catalog catalog.ServiceInterface
	storage storage.Storage
}

// HandlersOption configures optional Handlers dependencies.
type HandlersOption func(*Handlers)

// WithStorage enables the storage check of the readiness endpoint.
func WithStorage(store storage.Storage) HandlersOption {
	return func(h *Handlers) { h.storage = store }
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc catalog.ServiceInterface, opts ...HandlersOption) *Handlers {
	h := &Handlers{catalog: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthCheck reports liveness.
// GET /bookmarks/v1/health/
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: models.StatusOK})
}

// Readiness pings storage.
// GET /bookmarks/v1/ready/
func (h *Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	resp := models.ReadinessResponse{
		Status:     models.StatusOK,
		Components: map[string]string{},
		Timestamp:  time.Now().UTC(),
	}

	if h.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := h.storage.Ping(ctx); err != nil {
			slog.Warn("Readiness check failed", "component", "storage", "error", err)
			resp.Status = models.StatusUnhealthy
			resp.Components["storage"] = models.StatusUnhealthy
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Components["storage"] = models.StatusOK
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListBookmarks lists approved bookmarks.
// GET /bookmarks/v1/bookmarks/?tag=&search=&ordering=&page=&page_size=
func (h *Handlers) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	resp, err := h.catalog.ListBookmarks(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetBookmark returns one approved bookmark.
// GET /bookmarks/v1/bookmarks/{id}/
func (h *Handlers) GetBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, models.ErrorCodeNotFound, "Not found.")
		return
	}

	resp, err := h.catalog.GetBookmark(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// SubmitBookmark accepts an anonymous submission.
// POST /bookmarks/v1/bookmarks/submit/
func (h *Handlers) SubmitBookmark(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitBookmarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.catalog.Submit(r.Context(), &req, ratelimit.ClientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// parseListRequest reads listing parameters. Absent values take defaults;
// non-numeric paging values and pages past models.MaxPage are rejected.
// Oversized page_size is clamped by Normalize.
func parseListRequest(r *http.Request) (*models.ListBookmarksRequest, error) {
	q := r.URL.Query()
	req := &models.ListBookmarksRequest{
		Tag:      q.Get("tag"),
		Search:   q.Get("search"),
		Ordering: q.Get("ordering"),
	}

	var err error
	if req.Page, err = queryInt(q.Get("page"), "page", models.MaxPage); err != nil {
		return nil, err
	}
	if req.PageSize, err = queryInt(q.Get("page_size"), "page_size", math.MaxInt); err != nil {
		return nil, err
	}
	return req, nil
}

func queryInt(raw, name string, limit int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New(name + " must be a positive integer")
	}
	if n > limit {
		return 0, fmt.Errorf("%s must not exceed %d", name, limit)
	}
	return n, nil
}

// decodeJSON decodes a bounded request body, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "Invalid JSON body")
		return false
	}
	return true
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; log and give up.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	writeJSON(w, statusCode, models.NewErrorResponse(message, errorCode))
}

// writeServiceError maps catalog errors to responses. Anything that is not
// a ServiceError is reported as a bare internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *catalog.ServiceError
	if !errors.As(err, &svcErr) {
		slog.Error("Unhandled service error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
		return
	}

	if svcErr.StatusCode >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", r.URL.Path, "code", svcErr.Code, "error", svcErr.Err)
	}

	resp := models.NewErrorResponse(svcErr.Message, svcErr.Code)
	resp.Details = svcErr.Details
	writeJSON(w, svcErr.StatusCode, resp)
}
