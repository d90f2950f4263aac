package diskblob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/discochess/pageviews/internal/blob"
)

func TestBucket_RoundTrip(t *testing.T) {
	root := t.TempDir()
	b, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	w, err := b.NewWriter(ctx, "daily/pages.jsonl")
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if _, err := io.WriteString(w, "{\"path\":\"/index\",\"views\":1}\n"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "daily", "pages.jsonl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("object visible before Close: stat error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := b.NewReader(ctx, "daily/pages.jsonl")
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "{\"path\":\"/index\",\"views\":1}\n" {
		t.Errorf("NewReader() content = %q", got)
	}

	entries, err := os.ReadDir(filepath.Join(root, "daily"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestBucket_NotFound(t *testing.T) {
	b, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = b.NewReader(context.Background(), "missing.jsonl")
	if !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("NewReader() error = %v, want blob.ErrNotFound", err)
	}
}

func TestBucket_Canceled(t *testing.T) {
	b, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.NewWriter(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("NewWriter() error = %v, want context.Canceled", err)
	}
	if _, err := b.NewReader(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("NewReader() error = %v, want context.Canceled", err)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	if _, err := New("/nonexistent/path"); err == nil {
		t.Error("New() expected error for nonexistent path, got nil")
	}
}

func TestNew_NotDirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(f); err == nil {
		t.Error("New() expected error for file path, got nil")
	}
}
