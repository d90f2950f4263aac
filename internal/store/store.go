// Package store defines the storage backend interface for page records.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record exists for a path.
	ErrNotFound = errors.New("store: page not found")

	// ErrExists is returned by Insert when a record for the path already exists.
	ErrExists = errors.New("store: page already exists")
)

// Record is a persisted page counter.
type Record struct {
	Path  string
	Views int64
}

// Store defines the interface for storage backends.
// Implementations handle connection and dialect details internally.
// Paths are opaque keys and are matched byte for byte.
type Store interface {
	// Exists reports whether a record for path is present.
	Exists(ctx context.Context, path string) (bool, error)

	// Insert creates a record for path with zero views.
	// Returns ErrExists if the record is already present.
	Insert(ctx context.Context, path string) (*Record, error)

	// Fetch returns the record for path, or ErrNotFound.
	Fetch(ctx context.Context, path string) (*Record, error)

	// UpdateViews sets the view count for path.
	// Returns ErrNotFound if there is no record to update.
	UpdateViews(ctx context.Context, path string, views int64) error

	// Increment atomically creates the record with one view, or adds one
	// view to the existing record, and returns the resulting state.
	Increment(ctx context.Context, path string) (*Record, error)

	// List returns every record ordered by path.
	List(ctx context.Context) ([]Record, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
