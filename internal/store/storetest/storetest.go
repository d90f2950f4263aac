// Package storetest provides a conformance suite for store.Store implementations.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/discochess/pageviews/internal/store"
)

// Factory returns a fresh, empty store. The suite closes it when done.
type Factory func(t *testing.T) store.Store

// Run exercises every store.Store operation against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"ExistsMissing", testExistsMissing},
		{"InsertThenFetch", testInsertThenFetch},
		{"InsertDuplicate", testInsertDuplicate},
		{"FetchMissing", testFetchMissing},
		{"UpdateViews", testUpdateViews},
		{"UpdateViewsMissing", testUpdateViewsMissing},
		{"UpdateViewsUnchanged", testUpdateViewsUnchanged},
		{"IncrementCreates", testIncrementCreates},
		{"IncrementSequence", testIncrementSequence},
		{"IncrementIsolatesPaths", testIncrementIsolatesPaths},
		{"PathsAreExact", testPathsAreExact},
		{"EmptyPath", testEmptyPath},
		{"ListOrdered", testListOrdered},
		{"ConcurrentIncrement", testConcurrentIncrement},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			tt.fn(t, s)
		})
	}
}

func testExistsMissing(t *testing.T, s store.Store) {
	ok, err := s.Exists(context.Background(), "/missing")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("Exists() = true for a path never written")
	}
}

func testInsertThenFetch(t *testing.T, s store.Store) {
	ctx := context.Background()

	rec, err := s.Insert(ctx, "/index")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if rec.Path != "/index" || rec.Views != 0 {
		t.Errorf("Insert() = %+v, want {/index 0}", *rec)
	}

	ok, err := s.Exists(ctx, "/index")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Error("Exists() = false after Insert")
	}

	got, err := s.Fetch(ctx, "/index")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Path != "/index" || got.Views != 0 {
		t.Errorf("Fetch() = %+v, want {/index 0}", *got)
	}
}

func testInsertDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Insert(ctx, "/dup"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	_, err := s.Insert(ctx, "/dup")
	if !errors.Is(err, store.ErrExists) {
		t.Errorf("Insert() duplicate error = %v, want ErrExists", err)
	}
}

func testFetchMissing(t *testing.T, s store.Store) {
	_, err := s.Fetch(context.Background(), "/missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func testUpdateViews(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Insert(ctx, "/about"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := s.UpdateViews(ctx, "/about", 41); err != nil {
		t.Fatalf("UpdateViews() error = %v", err)
	}
	got, err := s.Fetch(ctx, "/about")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Views != 41 {
		t.Errorf("Fetch().Views = %d, want 41", got.Views)
	}
}

func testUpdateViewsMissing(t *testing.T, s store.Store) {
	ctx := context.Background()
	err := s.UpdateViews(ctx, "/missing", 3)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateViews() error = %v, want ErrNotFound", err)
	}
	ok, err := s.Exists(ctx, "/missing")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("UpdateViews() on a missing path created a record")
	}
}

func testUpdateViewsUnchanged(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Insert(ctx, "/same"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := s.UpdateViews(ctx, "/same", 0); err != nil {
		t.Errorf("UpdateViews() with unchanged value error = %v", err)
	}
}

func testIncrementCreates(t *testing.T, s store.Store) {
	ctx := context.Background()
	rec, err := s.Increment(ctx, "/new")
	if err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if rec.Path != "/new" || rec.Views != 1 {
		t.Errorf("Increment() = %+v, want {/new 1}", *rec)
	}
}

func testIncrementSequence(t *testing.T, s store.Store) {
	ctx := context.Background()
	const n = 7
	for i := 1; i <= n; i++ {
		rec, err := s.Increment(ctx, "/seq")
		if err != nil {
			t.Fatalf("Increment() #%d error = %v", i, err)
		}
		if rec.Views != int64(i) {
			t.Fatalf("Increment() #%d views = %d, want %d", i, rec.Views, i)
		}
	}
	got, err := s.Fetch(ctx, "/seq")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Views != n {
		t.Errorf("Fetch().Views = %d, want %d", got.Views, n)
	}
}

func testIncrementIsolatesPaths(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, p := range []string{"a", "b", "a"} {
		if _, err := s.Increment(ctx, p); err != nil {
			t.Fatalf("Increment(%q) error = %v", p, err)
		}
	}
	want := map[string]int64{"a": 2, "b": 1}
	for p, views := range want {
		got, err := s.Fetch(ctx, p)
		if err != nil {
			t.Fatalf("Fetch(%q) error = %v", p, err)
		}
		if got.Views != views {
			t.Errorf("Fetch(%q).Views = %d, want %d", p, got.Views, views)
		}
	}
}

func testPathsAreExact(t *testing.T, s store.Store) {
	ctx := context.Background()
	paths := []string{"/Index", "/index", "/index/", " /index", "/index?q=1"}
	for _, p := range paths {
		rec, err := s.Increment(ctx, p)
		if err != nil {
			t.Fatalf("Increment(%q) error = %v", p, err)
		}
		if rec.Path != p {
			t.Errorf("Increment(%q).Path = %q", p, rec.Path)
		}
		if rec.Views != 1 {
			t.Errorf("Increment(%q).Views = %d, want 1", p, rec.Views)
		}
	}
}

func testEmptyPath(t *testing.T, s store.Store) {
	ctx := context.Background()
	rec, err := s.Increment(ctx, "")
	if err != nil {
		t.Fatalf("Increment(\"\") error = %v", err)
	}
	if rec.Path != "" || rec.Views != 1 {
		t.Errorf("Increment(\"\") = %+v, want { 1}", *rec)
	}
}

func testListOrdered(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, p := range []string{"/c", "/a", "/b", "/a"} {
		if _, err := s.Increment(ctx, p); err != nil {
			t.Fatalf("Increment(%q) error = %v", p, err)
		}
	}
	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []store.Record{{Path: "/a", Views: 2}, {Path: "/b", Views: 1}, {Path: "/c", Views: 1}}
	if len(got) != len(want) {
		t.Fatalf("List() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func testConcurrentIncrement(t *testing.T, s store.Store) {
	ctx := context.Background()
	const workers, perWorker = 8, 10

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.Increment(ctx, "/hot"); err != nil {
					errs <- fmt.Errorf("Increment() error = %w", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	got, err := s.Fetch(ctx, "/hot")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Views != workers*perWorker {
		t.Errorf("Fetch().Views = %d, want %d", got.Views, workers*perWorker)
	}
}

func testPing(t *testing.T, s store.Store) {
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
