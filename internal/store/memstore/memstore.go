// Package memstore provides an in-memory store implementation for testing.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/discochess/pageviews/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an in-memory store for testing.
type Store struct {
	mu    sync.RWMutex
	pages map[string]int64
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		pages: make(map[string]int64),
	}
}

// SetViews sets the view count for a path, creating it if needed (for test setup).
func (s *Store) SetViews(path string, views int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = views
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// Exists reports whether a record for path is present.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.pages[path]
	return ok, nil
}

// Insert creates a record with zero views.
func (s *Store) Insert(ctx context.Context, path string) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[path]; ok {
		return nil, store.ErrExists
	}
	s.pages[path] = 0
	return &store.Record{Path: path}, nil
}

// Fetch returns the record for path.
func (s *Store) Fetch(ctx context.Context, path string) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	views, ok := s.pages[path]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.Record{Path: path, Views: views}, nil
}

// UpdateViews sets the view count for an existing path.
func (s *Store) UpdateViews(ctx context.Context, path string, views int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[path]; !ok {
		return store.ErrNotFound
	}
	s.pages[path] = views
	return nil
}

// Increment adds one view under the write lock.
func (s *Store) Increment(ctx context.Context, path string) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages[path]++
	return &store.Record{Path: path, Views: s.pages[path]}, nil
}

// List returns every record ordered by path.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]store.Record, 0, len(s.pages))
	for path, views := range s.pages {
		records = append(records, store.Record{Path: path, Views: views})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
