package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// DuplicateError reports which unique column an insert collided on.
// It unwraps to ErrDuplicate so callers can match either the kind or
// the column.
type DuplicateError struct {
	Column string
}

func (e *DuplicateError) Error() string {
	if e.Column == "" {
		return "duplicate record"
	}
	return fmt.Sprintf("duplicate record: %s already exists", e.Column)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}
