package repositories

import "errors"

var (
	// ErrNotFound is returned when a record or document does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert hits a unique index
	ErrDuplicate = errors.New("duplicate record")
)
