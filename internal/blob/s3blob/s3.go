// Package s3blob implements a blob bucket on AWS S3.
package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/pageviews/internal/blob"
)

// Compile-time check that Bucket implements blob.Bucket.
var _ blob.Bucket = (*Bucket)(nil)

// API is the subset of the S3 client the bucket uses.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Bucket is an S3 blob bucket.
type Bucket struct {
	client API
	bucket string
	prefix string
}

type settings struct {
	prefix   string
	region   string
	endpoint string
}

// Option configures a Bucket.
type Option func(*settings)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *settings) {
		s.region = region
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(s *settings) {
		s.endpoint = endpoint
	}
}

// New creates a bucket using the default AWS credential chain.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Bucket, error) {
	var st settings
	for _, opt := range opts {
		opt(&st)
	}

	var loadOpts []func(*config.LoadOptions) error
	if st.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(st.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if st.endpoint != "" {
			o.BaseEndpoint = aws.String(st.endpoint)
			o.UsePathStyle = true
		}
	})
	return NewFromAPI(client, bucketName, st.prefix), nil
}

// NewFromAPI creates a bucket backed by an existing client.
func NewFromAPI(client API, bucketName, prefix string) *Bucket {
	return &Bucket{
		client: client,
		bucket: bucketName,
		prefix: blob.NormalizePrefix(prefix),
	}
}

// NewReader streams the object at key.
func (b *Bucket) NewReader(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("reading s3://%s/%s: %w", b.bucket, b.objectKey(key), err)
	}
	return out.Body, nil
}

// NewWriter buffers the object in memory and uploads it on Close.
func (b *Bucket) NewWriter(ctx context.Context, key string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &objectWriter{ctx: ctx, bucket: b, key: b.objectKey(key)}, nil
}

// Close releases resources.
func (b *Bucket) Close() error {
	return nil
}

// objectKey returns the full object key.
func (b *Bucket) objectKey(key string) string {
	return blob.JoinKey(b.prefix, key)
}

type objectWriter struct {
	ctx    context.Context
	bucket *Bucket
	key    string
	buf    bytes.Buffer
	closed bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("s3blob: write after close")
	}
	return w.buf.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.bucket.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(w.bucket.bucket),
		Key:           aws.String(w.key),
		Body:          bytes.NewReader(w.buf.Bytes()),
		ContentLength: aws.Int64(int64(w.buf.Len())),
	})
	if err != nil {
		return fmt.Errorf("writing s3://%s/%s: %w", w.bucket.bucket, w.key, err)
	}
	return nil
}
