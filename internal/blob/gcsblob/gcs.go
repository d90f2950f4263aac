// Package gcsblob implements a blob bucket on Google Cloud Storage.
package gcsblob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/discochess/pageviews/internal/blob"
)

// Compile-time check that Bucket implements blob.Bucket.
var _ blob.Bucket = (*Bucket)(nil)

// Bucket is a Google Cloud Storage blob bucket.
type Bucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// Option configures a Bucket.
type Option func(*Bucket)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(b *Bucket) {
		b.prefix = blob.NormalizePrefix(prefix)
	}
}

// New creates a bucket using application default credentials.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Bucket, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	b := &Bucket{
		client: client,
		bucket: client.Bucket(bucketName),
		name:   bucketName,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewReader streams the object at key.
func (b *Bucket) NewReader(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := b.bucket.Object(b.objectKey(key)).NewReader(ctx)
	if err != nil {
		return nil, mapError(err, b.name, b.objectKey(key))
	}
	return r, nil
}

// NewWriter streams the object to GCS. It is committed on Close.
func (b *Bucket) NewWriter(ctx context.Context, key string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := b.bucket.Object(b.objectKey(key)).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	return w, nil
}

// Close releases the client.
func (b *Bucket) Close() error {
	return b.client.Close()
}

// objectKey returns the full object key.
func (b *Bucket) objectKey(key string) string {
	return blob.JoinKey(b.prefix, key)
}

func mapError(err error, bucket, key string) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return blob.ErrNotFound
	}
	return fmt.Errorf("reading gs://%s/%s: %w", bucket, key, err)
}
