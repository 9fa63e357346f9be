package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write would violate a uniqueness rule.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when the database rejects an entity on a
	// constraint other than uniqueness. The wrapped error carries detail.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTaskNotFound is the task-specific ErrNotFound.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrAssigneeBusy indicates that the assignee already has a task in
	// progress. It is produced when a write trips the partial unique index
	// guarding the one-in-progress-task-per-assignee rule, which makes the
	// rule hold even when two racing writers both pass the service-level
	// read check.
	ErrAssigneeBusy = fmt.Errorf("%w: assignee already has a task in progress", ErrDuplicate)
)

// IsNotFoundError reports whether err is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any kind of uniqueness violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
