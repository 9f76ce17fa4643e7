package storage

import "errors"

var (
	// ErrNotFound is returned when a bookmark or tag does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a write collides with a uniqueness
	// constraint: the lowercased bookmark URL or the tag slug.
	ErrDuplicate = errors.New("record already exists")
)
