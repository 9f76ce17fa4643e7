package catalog

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"bookmarks/internal/models"
	"bookmarks/internal/storage"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ApproveBookmarks approves every pending bookmark among req.IDs on behalf of
// moderator. Already-approved and unknown ids are skipped, so repeating the
// call is a no-op. The update is a single statement.
func (s *Service) ApproveBookmarks(ctx context.Context, req *models.ApproveBookmarksRequest, moderator string) (*models.ApproveBookmarksResponse, error) {
	if moderator == "" {
		return nil, NewInvalidRequestError("moderator identity is required", nil)
	}
	if req == nil {
		return nil, NewInvalidRequestError("request body is required", nil)
	}

	seen := make(map[int64]struct{}, len(req.IDs))
	ids := make([]int64, 0, len(req.IDs))
	for _, id := range req.IDs {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return &models.ApproveBookmarksResponse{Approved: 0}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.storage.ApproveBookmarks(ctx, ids, moderator, s.timestamp())
	if err != nil {
		return nil, storageError("approve bookmarks", err)
	}

	s.logger.Info("Bookmarks approved",
		"moderator", moderator,
		"requested", len(ids),
		"approved", n)

	return &models.ApproveBookmarksResponse{Approved: n}, nil
}

// ListPending returns unapproved bookmarks in submission order.
func (s *Service) ListPending(ctx context.Context, req *models.ListBookmarksRequest) (*models.ListPendingResponse, error) {
	if req == nil {
		req = &models.ListBookmarksRequest{}
	}
	req.Normalize()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	bookmarks, total, err := s.storage.ListBookmarks(ctx, models.BookmarkQuery{
		ApprovedOnly: models.Approved(false),
		Tag:          req.Tag,
		Search:       req.Search,
		Ascending:    true,
		Limit:        req.PageSize,
		Offset:       req.Offset(),
	})
	if err != nil {
		return nil, storageError("list pending bookmarks", err)
	}

	resp := &models.ListPendingResponse{
		Bookmarks:  make([]models.ModerationBookmarkResponse, len(bookmarks)),
		TotalCount: total,
	}
	for i, b := range bookmarks {
		resp.Bookmarks[i].FromBookmark(b)
	}
	return resp, nil
}

// CreateTag creates a tag. The slug is derived from the name when omitted.
func (s *Service) CreateTag(ctx context.Context, req *models.CreateTagRequest) (*models.TagResponse, error) {
	if req == nil {
		return nil, NewInvalidRequestError("request body is required", nil)
	}

	name := strings.TrimSpace(req.Name)
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		slug = Slugify(name)
	}

	details := make(map[string]string)
	switch {
	case name == "":
		details["name"] = "This field may not be blank."
	case utf8.RuneCountInString(name) > models.MaxTagLength:
		details["name"] = maxLengthMessage(models.MaxTagLength)
	}
	switch {
	case slug == "":
		details["slug"] = "This field may not be blank."
	case len(slug) > models.MaxTagLength:
		details["slug"] = maxLengthMessage(models.MaxTagLength)
	case !slugPattern.MatchString(slug):
		details["slug"] = "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	}
	if len(details) > 0 {
		return nil, NewValidationError(details)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag := &models.Tag{Name: name, Slug: slug}
	if err := s.storage.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, NewConflictError("tag with this slug already exists")
		}
		return nil, storageError("create tag", err)
	}

	s.logger.Info("Tag created", "tag_id", tag.ID, "slug", tag.Slug)

	resp := &models.TagResponse{}
	resp.FromTag(tag)
	return resp, nil
}

// ListTags returns every tag ordered by slug.
func (s *Service) ListTags(ctx context.Context) ([]models.TagResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tags, err := s.storage.ListTags(ctx)
	if err != nil {
		return nil, storageError("list tags", err)
	}

	resp := make([]models.TagResponse, len(tags))
	for i := range tags {
		resp[i].FromTag(&tags[i])
	}
	return resp, nil
}
