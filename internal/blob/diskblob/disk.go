// Package diskblob implements a blob bucket on the local filesystem.
package diskblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/discochess/pageviews/internal/blob"
)

// Compile-time check that Bucket implements blob.Bucket.
var _ blob.Bucket = (*Bucket)(nil)

// Bucket stores objects as files under a root directory.
type Bucket struct {
	root string
}

// New creates a bucket rooted at the given directory.
// The directory must exist.
func New(root string) (*Bucket, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Bucket{root: root}, nil
}

// NewReader opens the file for key.
func (b *Bucket) NewReader(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(b.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("opening %s: %w", key, err)
	}
	return f, nil
}

// NewWriter writes to a temporary file that is renamed into place on Close,
// so readers never see a partial object.
func (b *Bucket) NewWriter(ctx context.Context, key string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file for %s: %w", key, err)
	}
	return &fileWriter{File: tmp, dst: dst}, nil
}

// Close releases any resources held by the bucket.
func (b *Bucket) Close() error {
	return nil
}

// path returns the filesystem path for key.
func (b *Bucket) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

type fileWriter struct {
	*os.File
	dst string
}

func (w *fileWriter) Close() error {
	if err := w.File.Close(); err != nil {
		os.Remove(w.Name())
		return err
	}
	if err := os.Rename(w.Name(), w.dst); err != nil {
		os.Remove(w.Name())
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
