package cachedstore

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/discochess/pageviews/internal/stats"
	"github.com/discochess/pageviews/internal/store"
	"github.com/discochess/pageviews/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store wraps another Store with an existence cache.
type Store struct {
	underlying store.Store
	known      cachestrategy.Strategy
	collector  stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a new cached store wrapping the given store.
// The collector is optional; if nil, a no-op collector is used.
func New(underlying store.Store, strategy cachestrategy.Strategy, collector stats.Collector) *Store {
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Store{
		underlying: underlying,
		known:      strategy,
		collector:  collector,
	}
}

// Exists checks the cache before asking the underlying store.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	if s.known.Contains(path) {
		s.hits.Add(1)
		s.collector.IncCounter(stats.MetricCacheHits, 1)
		return true, nil
	}
	s.misses.Add(1)
	s.collector.IncCounter(stats.MetricCacheMisses, 1)

	ok, err := s.underlying.Exists(ctx, path)
	if err != nil {
		return false, err
	}
	if ok {
		s.remember(path)
	}
	return ok, nil
}

// Insert creates the record and remembers the path.
func (s *Store) Insert(ctx context.Context, path string) (*store.Record, error) {
	rec, err := s.underlying.Insert(ctx, path)
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			s.remember(path)
		}
		return nil, err
	}
	s.remember(path)
	return rec, nil
}

// Fetch reads through to the underlying store.
func (s *Store) Fetch(ctx context.Context, path string) (*store.Record, error) {
	rec, err := s.underlying.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	s.remember(path)
	return rec, nil
}

// UpdateViews writes through to the underlying store.
func (s *Store) UpdateViews(ctx context.Context, path string, views int64) error {
	if err := s.underlying.UpdateViews(ctx, path, views); err != nil {
		return err
	}
	s.remember(path)
	return nil
}

// Increment writes through to the underlying store.
func (s *Store) Increment(ctx context.Context, path string) (*store.Record, error) {
	rec, err := s.underlying.Increment(ctx, path)
	if err != nil {
		return nil, err
	}
	s.remember(path)
	return rec, nil
}

// List reads through to the underlying store.
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	return s.underlying.List(ctx)
}

// Ping checks the underlying store.
func (s *Store) Ping(ctx context.Context) error {
	return s.underlying.Ping(ctx)
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   s.known.Len(),
	}
}

func (s *Store) remember(path string) {
	s.known.Add(path)
	s.collector.SetGauge(stats.MetricCacheSize, int64(s.known.Len()))
}
