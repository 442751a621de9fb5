package store

import "errors"

// Common store errors used across all store implementations.
var (
	// ErrDocumentNotFound is returned when a requested document does not
	// exist in the store.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrVersionNotFound is returned when a requested document version
	// does not exist in the store.
	ErrVersionNotFound = errors.New("document version not found")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or violates a database constraint. Check the wrapped
	// error for specific details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g. a second version with the same number).
	ErrDuplicate = errors.New("entity already exists")
)
