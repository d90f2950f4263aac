// Package blob defines object storage used for pageview snapshots.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("blob: object not found")

// Bucket reads and writes whole objects by key.
type Bucket interface {
	// NewReader opens the object at key for reading.
	// Returns ErrNotFound if the object does not exist.
	NewReader(ctx context.Context, key string) (io.ReadCloser, error)

	// NewWriter creates or replaces the object at key. The object becomes
	// visible once the writer is closed without error.
	NewWriter(ctx context.Context, key string) (io.WriteCloser, error)

	// Close releases any resources held by the bucket.
	Close() error
}

// NormalizePrefix returns prefix with exactly one trailing slash, or the
// empty string for an empty prefix.
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// JoinKey joins a normalized prefix and an object key.
func JoinKey(prefix, key string) string {
	return prefix + strings.TrimPrefix(key, "/")
}
