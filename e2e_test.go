//go:build e2e

package pageviews_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/discochess/pageviews"
	"github.com/discochess/pageviews/internal/backend"
	"github.com/discochess/pageviews/internal/config"
	"github.com/discochess/pageviews/internal/store"
)

// e2eTargets maps a test name to the environment variable holding a
// DATABASE_URL for a live server, e.g.
//
//	PAGEVIEWS_E2E_MYSQL=mysql://root:pw@127.0.0.1:3306/pageviews
//	PAGEVIEWS_E2E_POSTGRES=postgres://postgres:pw@127.0.0.1:5432/pageviews
//	PAGEVIEWS_E2E_REDIS=redis://127.0.0.1:6379/15
var e2eTargets = map[string]string{
	"mysql":    "PAGEVIEWS_E2E_MYSQL",
	"postgres": "PAGEVIEWS_E2E_POSTGRES",
	"redis":    "PAGEVIEWS_E2E_REDIS",
}

func openLive(t *testing.T, envVar string) store.Store {
	t.Helper()
	raw := os.Getenv(envVar)
	if raw == "" {
		t.Skipf("Skipping: %s not set", envVar)
	}

	v := config.New()
	v.Set(config.KeyURL, raw)
	v.Set(config.KeyCacheSize, 0)
	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	st, err := backend.Open(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("backend.Open() error = %v", err)
	}
	return st
}

// TestE2E_NoLostUpdates tracks a fresh path from many goroutines on a live
// server and checks every view was counted.
func TestE2E_NoLostUpdates(t *testing.T) {
	for name, envVar := range e2eTargets {
		t.Run(name, func(t *testing.T) {
			st := openLive(t, envVar)
			repo, err := pageviews.New(pageviews.WithStore(st))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer repo.Close()

			const workers, perWorker = 8, 25
			path := "/e2e/hot/" + time.Now().UTC().Format(time.RFC3339Nano)
			ctx := context.Background()
			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						if _, err := repo.Track(ctx, path); err != nil {
							t.Errorf("Track() error = %v", err)
							return
						}
					}
				}()
			}
			wg.Wait()

			page, err := repo.Get(ctx, path)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if page.Views != workers*perWorker {
				t.Errorf("Get().Views = %d, want %d", page.Views, workers*perWorker)
			}
		})
	}
}
