package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an idempotency or uniqueness constraint
	// rejects an insert
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict is returned when a concurrent writer got there first
	ErrConflict = errors.New("conflict: entity was modified concurrently")
)
