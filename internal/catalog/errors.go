package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an unknown subject key or unit id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey reports a subject key collision on create.
	ErrDuplicateKey = errors.New("duplicate subject key")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required field is missing or empty"}
}

// StorageError wraps a failed durable write or blob operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
