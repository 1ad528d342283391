package shelfd

import "errors"

var (
	// ErrNotFound is returned when a referenced entity is absent
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on uniqueness or referential-integrity violations
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStorage is returned when the underlying store fails
	ErrStorage = errors.New("storage error")
)
