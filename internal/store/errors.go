package store

import "errors"

var (
	// ErrNotFound is returned when a row is absent or belongs to another
	// user. The two cases are deliberately indistinguishable so lookups
	// never leak the existence of other users' rows.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on a uniqueness violation.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized is returned when a thread-scoped operation is
	// attempted by a caller that does not own the thread.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation is returned for malformed input before any write.
	ErrValidation = errors.New("invalid input")
)
