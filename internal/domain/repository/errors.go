package repository

import "errors"

// Store-level sentinels shared by every repository implementation.
var (
	// ErrNotFound means the record does not exist, has expired, or (for code
	// lookups) did not match the supplied candidate.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate means a uniqueness constraint rejected the write, e.g. a
	// second user claiming an already-registered channel value.
	ErrDuplicate = errors.New("record already exists")
)
