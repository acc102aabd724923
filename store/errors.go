package store

import "errors"

var (
	// ErrNotFound is returned when a lookup does not match any record.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates one of the store's
	// unique constraints. ie: two sites sharing a url or two pages sharing
	// a (site, path) pair.
	ErrConflict = errors.New("storage conflict")
)
