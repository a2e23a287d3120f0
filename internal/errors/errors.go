// Package errors defines the typed errors the persistence engine returns
// and the caller-facing categories the service layer maps them to.
package errors

import (
	"errors"
	"fmt"
)

// ErrValueNotFound indicates a secure value store entry is absent.
var ErrValueNotFound = errors.New("value not found")

// Category is the caller-facing classification of an engine error.
type Category string

const (
	CategoryValidation  Category = "validation"
	CategoryConflict    Category = "conflict"
	CategoryNotFound    Category = "not-found"
	CategoryPersistence Category = "persistence"
	CategoryInternal    Category = "internal"
)

// ValidationError indicates a bad or missing field. It is returned before
// any side effect takes place.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ConflictError indicates a create with an id that already exists.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("secret '%s' already exists", e.ID)
}

// NotFoundError indicates an operation on an unknown secret id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("secret '%s' not found", e.ID)
}

// PersistError indicates the metadata file could not be written. The
// registry rolls back both stores before returning it.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to persist metadata: %v", e.Err)
	}
	return fmt.Sprintf("failed to persist metadata to %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// BackendError indicates the secure value store rejected an operation
// against a live backend. It is never silently swallowed; doing so could
// leave the two stores inconsistent.
type BackendError struct {
	Op  string
	ID  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("secure store %s failed for '%s': %v", e.Op, e.ID, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// RollbackError records a secondary failure while undoing a side effect.
// It is logged, never returned as the primary error to the caller.
type RollbackError struct {
	Op  string
	ID  string
	Err error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback of %s failed for '%s': %v", e.Op, e.ID, e.Err)
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}

// CategoryOf maps an engine error to its caller-facing category without
// leaking internal representations.
func CategoryOf(err error) Category {
	var (
		validation *ValidationError
		conflict   *ConflictError
		notFound   *NotFoundError
		persist    *PersistError
		backend    *BackendError
	)
	switch {
	case errors.As(err, &validation):
		return CategoryValidation
	case errors.As(err, &conflict):
		return CategoryConflict
	case errors.As(err, &notFound):
		return CategoryNotFound
	case errors.As(err, &persist), errors.As(err, &backend):
		return CategoryPersistence
	default:
		return CategoryInternal
	}
}
