package cachedstore

import (
	"context"
	"errors"
	"testing"

	"github.com/discochess/pageviews/internal/store"
	"github.com/discochess/pageviews/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/pageviews/internal/store/memstore"
	"github.com/discochess/pageviews/internal/store/storetest"
)

// countingStore counts Exists calls reaching the wrapped store.
type countingStore struct {
	store.Store
	existsCalls int
}

func (s *countingStore) Exists(ctx context.Context, path string) (bool, error) {
	s.existsCalls++
	return s.Store.Exists(ctx, path)
}

// failingStore fails every call.
type failingStore struct {
	store.Store
}

var errBackend = errors.New("backend down")

func (failingStore) Exists(ctx context.Context, path string) (bool, error) {
	return false, errBackend
}

func newCached(t *testing.T, underlying store.Store) *Store {
	t.Helper()
	strategy, err := lru.New(16)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	return New(underlying, strategy, nil)
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newCached(t, memstore.New())
	})
}

func TestStore_CacheHit(t *testing.T) {
	underlying := &countingStore{Store: memstore.New()}
	s := newCached(t, underlying)
	ctx := context.Background()

	if _, err := s.Increment(ctx, "/index"); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}

	ok, err := s.Exists(ctx, "/index")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Error("Exists() = false after Increment")
	}
	if underlying.existsCalls != 0 {
		t.Errorf("underlying Exists called %d times, want 0", underlying.existsCalls)
	}

	stats := s.Stats()
	if stats.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", stats.Hits)
	}
	if stats.Size != 1 {
		t.Errorf("Stats().Size = %d, want 1", stats.Size)
	}
}

func TestStore_CacheMiss(t *testing.T) {
	mem := memstore.New()
	mem.SetViews("/seeded", 5)
	underlying := &countingStore{Store: mem}
	s := newCached(t, underlying)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := s.Exists(ctx, "/seeded")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if !ok {
			t.Fatal("Exists() = false for seeded path")
		}
	}

	// Only the first lookup reaches the underlying store.
	if underlying.existsCalls != 1 {
		t.Errorf("underlying Exists called %d times, want 1", underlying.existsCalls)
	}
	stats := s.Stats()
	if stats.Misses != 1 || stats.Hits != 2 {
		t.Errorf("Stats() = %+v, want 1 miss and 2 hits", stats)
	}
}

func TestStore_MissingPathNotCached(t *testing.T) {
	underlying := &countingStore{Store: memstore.New()}
	s := newCached(t, underlying)
	ctx := context.Background()

	s.Exists(ctx, "/missing")
	s.Exists(ctx, "/missing")
	if underlying.existsCalls != 2 {
		t.Errorf("underlying Exists called %d times, want 2", underlying.existsCalls)
	}
}

func TestStore_ViewsNotCached(t *testing.T) {
	mem := memstore.New()
	s := newCached(t, mem)
	ctx := context.Background()

	if _, err := s.Increment(ctx, "/index"); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	mem.SetViews("/index", 42)

	rec, err := s.Fetch(ctx, "/index")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.Views != 42 {
		t.Errorf("Fetch().Views = %d, want 42", rec.Views)
	}
}

func TestStore_DuplicateInsertRemembered(t *testing.T) {
	mem := memstore.New()
	mem.SetViews("/index", 1)
	underlying := &countingStore{Store: mem}
	s := newCached(t, underlying)
	ctx := context.Background()

	if _, err := s.Insert(ctx, "/index"); !errors.Is(err, store.ErrExists) {
		t.Fatalf("Insert() error = %v, want ErrExists", err)
	}
	if ok, _ := s.Exists(ctx, "/index"); !ok {
		t.Error("Exists() = false after ErrExists")
	}
	if underlying.existsCalls != 0 {
		t.Errorf("underlying Exists called %d times, want 0", underlying.existsCalls)
	}
}

func TestStore_ErrorPropagates(t *testing.T) {
	s := newCached(t, failingStore{})
	_, err := s.Exists(context.Background(), "/index")
	if !errors.Is(err, errBackend) {
		t.Errorf("Exists() error = %v, want errBackend", err)
	}
}

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		name     string
		hits     int64
		misses   int64
		expected float64
	}{
		{"no requests", 0, 0, 0},
		{"all hits", 10, 0, 100},
		{"all misses", 0, 10, 0},
		{"50% hit rate", 5, 5, 50},
		{"75% hit rate", 3, 1, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{Hits: tt.hits, Misses: tt.misses}
			if got := s.HitRate(); got != tt.expected {
				t.Errorf("HitRate() = %v, want %v", got, tt.expected)
			}
		})
	}
}
