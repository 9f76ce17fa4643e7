package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"unicode/utf8"

	"bookmarks/internal/models"
	"bookmarks/internal/storage"
)

func maxLengthMessage(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// Submit runs the submission pipeline: honeypot, URL validation and
// canonicalization, duplicate pre-check, field validation, tag
// reconciliation and persistence. The stored bookmark is always unapproved.
func (s *Service) Submit(ctx context.Context, req *models.SubmitBookmarkRequest, clientIP string) (*models.SubmissionResponse, error) {
	if req == nil {
		return nil, NewInvalidRequestError("request body is required", nil)
	}

	if strings.TrimSpace(req.Website) != "" {
		return nil, NewHoneypotError()
	}

	canonical, verr := ValidateURL(req.URL)
	if verr != nil {
		return nil, verr
	}

	exists, err := s.urlExists(ctx, canonical)
	if err != nil {
		return nil, storageError("check duplicate url", err)
	}
	if exists {
		return nil, NewDuplicateURLError()
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	names, details := validateFields(title, description, req.Tags)
	if len(details) > 0 {
		return nil, NewValidationError(details)
	}

	known, pending, err := s.reconcileTags(ctx, names)
	if err != nil {
		return nil, storageError("reconcile tags", err)
	}

	bookmark := &models.Bookmark{
		Title:       title,
		URL:         canonical,
		Description: description,
		Tags:        known,
		PendingTags: pending,
		IsApproved:  false,
		SubmittedIP: submittedIP(clientIP),
		CreatedAt:   s.timestamp(),
	}

	if err := s.create(ctx, bookmark); err != nil {
		// The pre-check is advisory; the unique index is authoritative.
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, NewDuplicateURLError()
		}
		return nil, storageError("create bookmark", err)
	}

	s.logger.Info("Bookmark submitted",
		slog.Int64("bookmark_id", bookmark.ID),
		slog.String("domain", bookmark.Domain),
		slog.Int("tags", len(bookmark.Tags)),
		slog.Int("pending_tags", len(bookmark.PendingTags)),
		slog.String("client_ip", clientIP))

	resp := &models.SubmissionResponse{}
	resp.FromBookmark(bookmark)
	return resp, nil
}

func (s *Service) urlExists(ctx context.Context, canonical string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.storage.BookmarkURLExists(ctx, canonical)
}

func (s *Service) create(ctx context.Context, b *models.Bookmark) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.storage.CreateBookmark(ctx, b)
}

// validateFields checks lengths and required fields and returns the
// normalized tag names alongside any per-field failures.
func validateFields(title, description string, tags []string) ([]string, map[string]string) {
	details := make(map[string]string)

	switch {
	case title == "":
		details["title"] = "This field may not be blank."
	case utf8.RuneCountInString(title) > models.MaxTitleLength:
		details["title"] = maxLengthMessage(models.MaxTitleLength)
	}

	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		details["description"] = maxLengthMessage(models.MaxDescriptionLength)
	}

	for _, tag := range tags {
		if utf8.RuneCountInString(strings.TrimSpace(tag)) > models.MaxTagLength {
			details["tags"] = maxLengthMessage(models.MaxTagLength)
			break
		}
	}

	names := NormalizeTags(tags)
	if _, failed := details["tags"]; !failed && len(names) == 0 {
		details["tags"] = "At least one tag is required."
	}

	return names, details
}

// submittedIP keeps only well-formed addresses.
func submittedIP(clientIP string) *string {
	addr, err := netip.ParseAddr(strings.TrimSpace(clientIP))
	if err != nil {
		return nil
	}
	ip := addr.Unmap().String()
	if len(ip) > models.MaxSubmittedIPLength {
		return nil
	}
	return &ip
}
