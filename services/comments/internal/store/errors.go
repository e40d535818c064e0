package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the comment does not exist.
	ErrNotFound = errors.New("comment not found")
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("invalid comment input")
	// ErrDuplicateKey is wrapped by the *WriteError returned when an insert
	// collides with an existing id.
	ErrDuplicateKey = errors.New("comment id already exists")
	// ErrDeadlineExceeded is returned when Options.Deadline (or the caller's
	// context deadline) expires. It matches context.DeadlineExceeded.
	ErrDeadlineExceeded = fmt.Errorf("comment store: %w", context.DeadlineExceeded)
)

// ValidationError reports a missing or malformed input field. It is raised
// before the backend is contacted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// WriteError reports a write rejected by the backend.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("comment %s failed: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsDuplicate reports whether err is a duplicate-id insert failure.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

func missingID() error {
	return &ValidationError{Field: "id", Reason: "is required"}
}

// deadline maps context expiry to ErrDeadlineExceeded and leaves other
// errors untouched.
func deadline(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrDeadlineExceeded)
	}
	return err
}
