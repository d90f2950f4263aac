package pageviews

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/discochess/pageviews/internal/store"
	"github.com/discochess/pageviews/internal/store/memstore"
)

var errBackend = errors.New("connection refused")

// failingStore fails every operation with errBackend.
type failingStore struct{}

func (failingStore) Exists(context.Context, string) (bool, error)          { return false, errBackend }
func (failingStore) Insert(context.Context, string) (*store.Record, error) { return nil, errBackend }
func (failingStore) Fetch(context.Context, string) (*store.Record, error)  { return nil, errBackend }
func (failingStore) UpdateViews(context.Context, string, int64) error      { return errBackend }
func (failingStore) Increment(context.Context, string) (*store.Record, error) {
	return nil, errBackend
}
func (failingStore) List(context.Context) ([]store.Record, error) { return nil, errBackend }
func (failingStore) Ping(context.Context) error                  { return errBackend }
func (failingStore) Close() error                                { return nil }

// racingStore reports a path as missing, then loses the insert race.
type racingStore struct {
	*memstore.Store
}

func (s racingStore) Exists(context.Context, string) (bool, error) { return false, nil }

func newRepo(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	r, err := New(append([]Option{WithStore(memstore.New())}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

// modes runs a test against both Track implementations.
func modes(t *testing.T, fn func(t *testing.T, opts ...Option)) {
	t.Run("atomic", func(t *testing.T) { fn(t) })
	t.Run("readModifyWrite", func(t *testing.T) { fn(t, WithReadModifyWrite()) })
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New()
	if !errors.Is(err, ErrNoStore) {
		t.Errorf("New() error = %v, want ErrNoStore", err)
	}
}

func TestNew_WithStore(t *testing.T) {
	mem := memstore.New()
	r, err := New(WithStore(mem))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Close()

	if r.Store() != mem {
		t.Error("Store() returned unexpected store")
	}
}

func TestRepository_TrackCreates(t *testing.T) {
	modes(t, func(t *testing.T, opts ...Option) {
		r := newRepo(t, opts...)
		ctx := context.Background()

		page, err := r.Track(ctx, "/index")
		if err != nil {
			t.Fatalf("Track() error = %v", err)
		}
		if *page != (Page{Path: "/index", Views: 1}) {
			t.Errorf("Track() = %+v, want {/index 1}", *page)
		}

		page, err = r.GetOrCreate(ctx, "/index")
		if err != nil {
			t.Fatalf("GetOrCreate() error = %v", err)
		}
		if *page != (Page{Path: "/index", Views: 1}) {
			t.Errorf("GetOrCreate() = %+v, want {/index 1}", *page)
		}
	})
}

func TestRepository_TrackSequential(t *testing.T) {
	modes(t, func(t *testing.T, opts ...Option) {
		r := newRepo(t, opts...)
		ctx := context.Background()

		const n = 25
		var last *Page
		for i := 0; i < n; i++ {
			page, err := r.Track(ctx, "/p")
			if err != nil {
				t.Fatalf("Track() error = %v", err)
			}
			last = page
		}
		if last.Views != n {
			t.Errorf("Track() after %d calls views = %d, want %d", n, last.Views, n)
		}

		got, err := r.Get(ctx, "/p")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Views != last.Views {
			t.Errorf("Get().Views = %d, want %d (last Track result)", got.Views, last.Views)
		}
	})
}

func TestRepository_TrackPreservesPath(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	for _, p := range []string{"", "/Index", "/index/", "  spaced  ", "/ünïcode?q=1#frag"} {
		page, err := r.Track(ctx, p)
		if err != nil {
			t.Fatalf("Track(%q) error = %v", p, err)
		}
		if page.Path != p {
			t.Errorf("Track(%q).Path = %q", p, page.Path)
		}
		if page.Views != 1 {
			t.Errorf("Track(%q).Views = %d, want 1", p, page.Views)
		}
	}
}

func TestRepository_TrackIsolatesPaths(t *testing.T) {
	modes(t, func(t *testing.T, opts ...Option) {
		r := newRepo(t, opts...)
		ctx := context.Background()

		for _, p := range []string{"a", "b", "a"} {
			if _, err := r.Track(ctx, p); err != nil {
				t.Fatalf("Track(%q) error = %v", p, err)
			}
		}

		pages, err := r.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := []Page{{Path: "a", Views: 2}, {Path: "b", Views: 1}}
		if len(pages) != len(want) {
			t.Fatalf("List() = %+v, want %+v", pages, want)
		}
		for i := range want {
			if pages[i] != want[i] {
				t.Errorf("List()[%d] = %+v, want %+v", i, pages[i], want[i])
			}
		}
	})
}

func TestRepository_Scenario(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	steps := []struct {
		path string
		want int64
	}{
		{"/index", 1},
		{"/index", 2},
		{"/about", 1},
		{"/index", 3},
	}
	for _, s := range steps {
		page, err := r.Track(ctx, s.path)
		if err != nil {
			t.Fatalf("Track(%q) error = %v", s.path, err)
		}
		if page.Path != s.path || page.Views != s.want {
			t.Errorf("Track(%q) = %+v, want {%s %d}", s.path, *page, s.path, s.want)
		}
	}
}

func TestRepository_GetOrCreateDoesNotCount(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		page, err := r.GetOrCreate(ctx, "/new")
		if err != nil {
			t.Fatalf("GetOrCreate() error = %v", err)
		}
		if page.Views != 0 {
			t.Errorf("GetOrCreate() views = %d, want 0", page.Views)
		}
	}
}

func TestRepository_GetOrCreateInsertRace(t *testing.T) {
	mem := memstore.New()
	mem.SetViews("/raced", 4)
	r, err := New(WithStore(racingStore{mem}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Close()

	page, err := r.GetOrCreate(context.Background(), "/raced")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if page.Views != 4 {
		t.Errorf("GetOrCreate() views = %d, want 4 from the winning insert", page.Views)
	}
}

func TestRepository_GetNotFound(t *testing.T) {
	r := newRepo(t)
	_, err := r.Get(context.Background(), "/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_StorageErrors(t *testing.T) {
	modes(t, func(t *testing.T, opts ...Option) {
		r, err := New(append([]Option{WithStore(failingStore{})}, opts...)...)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer r.Close()
		ctx := context.Background()

		page, err := r.Track(ctx, "/index")
		if page != nil {
			t.Errorf("Track() = %+v on failure, want nil", *page)
		}
		var se *StorageError
		if !errors.As(err, &se) {
			t.Fatalf("Track() error = %v, want *StorageError", err)
		}
		if se.Op != "track" || se.Path != "/index" {
			t.Errorf("StorageError = %+v, want op track path /index", se)
		}
		if !errors.Is(err, errBackend) {
			t.Errorf("Track() error does not wrap backend error: %v", err)
		}

		if _, err := r.GetOrCreate(ctx, "/index"); !errors.As(err, &se) {
			t.Errorf("GetOrCreate() error = %v, want *StorageError", err)
		}
		if _, err := r.Get(ctx, "/index"); !errors.As(err, &se) {
			t.Errorf("Get() error = %v, want *StorageError", err)
		}
		if _, err := r.List(ctx); !errors.As(err, &se) {
			t.Errorf("List() error = %v, want *StorageError", err)
		}
		if err := r.Ping(ctx); !errors.As(err, &se) {
			t.Errorf("Ping() error = %v, want *StorageError", err)
		}
	})
}

func TestRepository_ContextCanceled(t *testing.T) {
	r := newRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Track(ctx, "/index")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Track() error = %v, want context.Canceled", err)
	}
}

func TestRepository_ConcurrentTrack(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	const workers, perWorker = 16, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := r.Track(ctx, "/hot"); err != nil {
					t.Errorf("Track() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	page, err := r.Get(ctx, "/hot")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if page.Views != workers*perWorker {
		t.Errorf("Get().Views = %d, want %d (no lost updates)", page.Views, workers*perWorker)
	}
}

func TestRepository_Close(t *testing.T) {
	r, err := New(WithStore(memstore.New()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// First close should succeed.
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Second close should return ErrClosed.
	if err := r.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Close() second call error = %v, want ErrClosed", err)
	}
}

func TestRepository_AfterClose(t *testing.T) {
	r, err := New(WithStore(memstore.New()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.Close()

	ctx := context.Background()
	if _, err := r.Track(ctx, "/index"); !errors.Is(err, ErrClosed) {
		t.Errorf("Track() after close error = %v, want ErrClosed", err)
	}
	if _, err := r.GetOrCreate(ctx, "/index"); !errors.Is(err, ErrClosed) {
		t.Errorf("GetOrCreate() after close error = %v, want ErrClosed", err)
	}
	if _, err := r.Get(ctx, "/index"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() after close error = %v, want ErrClosed", err)
	}
}

func TestStorageError_Message(t *testing.T) {
	err := &StorageError{Op: "track", Path: "/index", Err: errBackend}
	want := `pageviews: track "/index": connection refused`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = &StorageError{Op: "list", Err: errBackend}
	want = "pageviews: list: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
