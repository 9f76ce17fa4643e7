package catalog

import (
	"context"
	"errors"

	"bookmarks/internal/models"
	"bookmarks/internal/storage"
)

// ListBookmarks returns one page of approved bookmarks. Unknown ordering
// values fall back to newest first.
func (s *Service) ListBookmarks(ctx context.Context, req *models.ListBookmarksRequest) (*models.ListBookmarksResponse, error) {
	if req == nil {
		req = &models.ListBookmarksRequest{}
	}
	req.Normalize()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	bookmarks, total, err := s.storage.ListBookmarks(ctx, models.BookmarkQuery{
		ApprovedOnly: models.Approved(true),
		Tag:          req.Tag,
		Search:       req.Search,
		Ascending:    req.Ordering == models.OrderingCreatedAsc,
		Limit:        req.PageSize,
		Offset:       req.Offset(),
	})
	if err != nil {
		return nil, storageError("list bookmarks", err)
	}

	resp := &models.ListBookmarksResponse{
		Bookmarks:  make([]models.BookmarkResponse, len(bookmarks)),
		TotalCount: total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		HasMore:    req.Offset()+len(bookmarks) < total,
	}
	for i, b := range bookmarks {
		resp.Bookmarks[i].FromBookmark(b)
	}

	return resp, nil
}

// GetBookmark returns an approved bookmark. Unapproved bookmarks are
// reported as missing.
func (s *Service) GetBookmark(ctx context.Context, id int64) (*models.BookmarkResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := s.storage.GetBookmark(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError("Not found.")
		}
		return nil, storageError("get bookmark", err)
	}

	if !b.IsApproved {
		return nil, NewNotFoundError("Not found.")
	}

	resp := &models.BookmarkResponse{}
	resp.FromBookmark(b)
	return resp, nil
}
