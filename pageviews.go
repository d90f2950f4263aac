// Package pageviews records and serves per-path pageview counts.
//
// Example usage:
//
//	repo, err := pageviews.New(
//	    pageviews.WithStore(st),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	page, err := repo.Track(ctx, "/index")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s has %d views\n", page.Path, page.Views)
package pageviews

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/pageviews/internal/stats"
	"github.com/discochess/pageviews/internal/store"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNotFound indicates no record exists for the path.
	ErrNotFound = errors.New("pageviews: page not found")

	// ErrClosed indicates the repository has been closed.
	ErrClosed = errors.New("pageviews: repository closed")

	// ErrNoStore indicates no store was provided.
	ErrNoStore = errors.New("pageviews: no store provided")
)

// Repository implements get-or-create and increment semantics for page
// records on top of a storage backend.
// A Repository is safe for concurrent use by multiple goroutines.
type Repository struct {
	store           store.Store
	stats           stats.Collector
	logger          *zap.Logger
	readModifyWrite bool
	closed          atomic.Bool
}

// New creates a new Repository with the given options.
// WithStore is required.
func New(opts ...Option) (*Repository, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.store == nil {
		return nil, ErrNoStore
	}

	r := &Repository{
		store:           cfg.store,
		stats:           cfg.stats,
		logger:          cfg.logger,
		readModifyWrite: cfg.readModifyWrite,
	}

	r.logger.Debug("repository initialized",
		zap.Bool("readModifyWrite", r.readModifyWrite),
	)

	return r, nil
}

// GetOrCreate returns the record for path, creating it with zero views if
// it does not exist yet. It does not count a view.
func (r *Repository) GetOrCreate(ctx context.Context, path string) (*Page, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	rec, err := r.getOrCreate(ctx, path)
	if err != nil {
		return nil, r.fail("get_or_create", path, err)
	}
	return recordToPage(rec), nil
}

// Track counts one view of path and returns the record after the increment.
// The record is created on the first view.
func (r *Repository) Track(ctx context.Context, path string) (*Page, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	defer func() {
		r.stats.ObserveHistogram(stats.MetricTrackDuration, time.Since(start).Seconds())
	}()

	var (
		rec *store.Record
		err error
	)
	if r.readModifyWrite {
		rec, err = r.trackReadModifyWrite(ctx, path)
	} else {
		rec, err = r.store.Increment(ctx, path)
	}
	if err != nil {
		return nil, r.fail("track", path, err)
	}

	r.stats.IncCounter(stats.MetricTracks, 1)
	if rec.Views == 1 {
		r.stats.IncCounter(stats.MetricPagesCreated, 1)
	}
	return recordToPage(rec), nil
}

// Get returns the record for path without modifying it.
// Returns ErrNotFound if the path has never been tracked or created.
func (r *Repository) Get(ctx context.Context, path string) (*Page, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	r.stats.IncCounter(stats.MetricLookups, 1)

	rec, err := r.store.Fetch(ctx, path)
	if err != nil {
		return nil, r.fail("get", path, err)
	}
	return recordToPage(rec), nil
}

// List returns every record ordered by path.
func (r *Repository) List(ctx context.Context) ([]Page, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	recs, err := r.store.List(ctx)
	if err != nil {
		return nil, r.fail("list", "", err)
	}
	pages := make([]Page, len(recs))
	for i := range recs {
		pages[i] = *recordToPage(&recs[i])
	}
	return pages, nil
}

// Ping checks that the storage backend is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.store.Ping(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases all resources associated with the repository.
// After Close, the repository should not be used.
func (r *Repository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if err := r.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// Store returns the storage backend used by this repository.
func (r *Repository) Store() store.Store {
	return r.store
}

// getOrCreate checks for the record, fetching it if present and inserting
// it otherwise. Losing an insert race to a concurrent caller falls back to
// fetching the winner's record.
func (r *Repository) getOrCreate(ctx context.Context, path string) (*store.Record, error) {
	ok, err := r.store.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if ok {
		return r.store.Fetch(ctx, path)
	}

	rec, err := r.store.Insert(ctx, path)
	if errors.Is(err, store.ErrExists) {
		r.logger.Debug("insert raced with concurrent create", zap.String("path", path))
		return r.store.Fetch(ctx, path)
	}
	return rec, err
}

// trackReadModifyWrite counts a view with separate read and write
// statements. Concurrent calls for the same path can lose increments.
func (r *Repository) trackReadModifyWrite(ctx context.Context, path string) (*store.Record, error) {
	rec, err := r.getOrCreate(ctx, path)
	if err != nil {
		return nil, err
	}
	views := rec.Views + 1
	if err := r.store.UpdateViews(ctx, path, views); err != nil {
		return nil, err
	}
	return &store.Record{Path: path, Views: views}, nil
}

// fail maps a store error onto the repository error taxonomy.
func (r *Repository) fail(op, path string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	r.stats.IncCounter(stats.MetricStoreErrors, 1)
	r.logger.Warn("storage operation failed",
		zap.String("op", op),
		zap.String("path", path),
		zap.Error(err),
	)
	return &StorageError{Op: op, Path: path, Err: err}
}

// recordToPage converts an internal store.Record to a public Page.
func recordToPage(rec *store.Record) *Page {
	return &Page{Path: rec.Path, Views: rec.Views}
}
