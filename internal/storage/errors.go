package storage

import "errors"

// Storage errors shared by all TokenCreationStore implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// whose event_id already exists. Records are never updated.
	ErrDuplicateKey = errors.New("duplicate key: token creation already stored")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
