package store

import "errors"

var (
	// ErrOutputExists indicates an ingestion target already present on disk.
	// Callers treat this as an idempotent skip, not a failure.
	ErrOutputExists = errors.New("output already exists")
	// ErrDimensionMismatch indicates a record count that does not match the
	// declared array length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
