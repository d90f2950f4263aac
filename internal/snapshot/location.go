package snapshot

import (
	"compress/gzip"
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/discochess/pageviews/internal/blob"
	"github.com/discochess/pageviews/internal/blob/diskblob"
	"github.com/discochess/pageviews/internal/blob/gcsblob"
	"github.com/discochess/pageviews/internal/blob/s3blob"
	"github.com/discochess/pageviews/internal/codec"
	"github.com/discochess/pageviews/internal/codec/gzipcodec"
	"github.com/discochess/pageviews/internal/codec/noopcodec"
	"github.com/discochess/pageviews/internal/codec/zstdcodec"
)

// Location is a parsed snapshot URL.
type Location struct {
	Scheme string // "file", "s3" or "gs"
	Bucket string // bucket name, or the directory for "file"
	Key    string // object key within the bucket
}

// ParseLocation parses "file:///dir/name", "s3://bucket/key" or
// "gs://bucket/key". A bare filesystem path is treated as a file URL.
func ParseLocation(raw string) (Location, error) {
	if !strings.Contains(raw, "://") {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return Location{}, fmt.Errorf("resolving %s: %w", raw, err)
		}
		return Location{Scheme: "file", Bucket: filepath.Dir(abs), Key: filepath.Base(abs)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parsing snapshot location: %w", err)
	}

	switch u.Scheme {
	case "file":
		p := u.Host + u.Path
		if p == "" || strings.HasSuffix(p, "/") {
			return Location{}, fmt.Errorf("snapshot location %s does not name a file", raw)
		}
		return Location{Scheme: "file", Bucket: filepath.Dir(p), Key: filepath.Base(p)}, nil
	case "s3", "gs":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
			return Location{}, fmt.Errorf("snapshot location %s must be %s://bucket/key", raw, u.Scheme)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Key: path.Clean(key)}, nil
	default:
		return Location{}, fmt.Errorf("unsupported snapshot scheme %q", u.Scheme)
	}
}

// Open returns the bucket holding the object at raw, and the object key.
func Open(ctx context.Context, raw string) (blob.Bucket, string, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, "", err
	}

	var b blob.Bucket
	switch loc.Scheme {
	case "file":
		b, err = diskblob.New(loc.Bucket)
	case "s3":
		b, err = s3blob.New(ctx, loc.Bucket)
	case "gs":
		b, err = gcsblob.New(ctx, loc.Bucket)
	}
	if err != nil {
		return nil, "", err
	}
	return b, loc.Key, nil
}

// CodecByName returns the codec with the given name. An empty name selects
// the codec matching key's extension. level is one of "fastest", "default",
// "better" or "best"; empty means default. Uncompressed output ignores it.
func CodecByName(name, key, level string) (codec.Codec, error) {
	if name == "" {
		name = codecNameForKey(key)
	}
	switch name {
	case "zstd":
		zl, err := zstdLevel(level)
		if err != nil {
			return nil, err
		}
		return zstdcodec.New(zstdcodec.WithLevel(zl)), nil
	case "gzip":
		gl, err := gzipLevel(level)
		if err != nil {
			return nil, err
		}
		return gzipcodec.New(gzipcodec.WithLevel(gl)), nil
	case "none":
		return noopcodec.New(), nil
	default:
		return nil, fmt.Errorf("unknown codec %q (want zstd, gzip or none)", name)
	}
}

func zstdLevel(level string) (zstd.EncoderLevel, error) {
	if level == "" {
		return zstd.SpeedDefault, nil
	}
	ok, l := zstd.EncoderLevelFromString(level)
	if !ok {
		return 0, fmt.Errorf("unknown compression level %q (want fastest, default, better or best)", level)
	}
	return l, nil
}

func gzipLevel(level string) (int, error) {
	switch level {
	case "", "default":
		return gzip.DefaultCompression, nil
	case "fastest":
		return gzip.BestSpeed, nil
	case "better":
		return 7, nil
	case "best":
		return gzip.BestCompression, nil
	default:
		return 0, fmt.Errorf("unknown compression level %q (want fastest, default, better or best)", level)
	}
}

func codecNameForKey(key string) string {
	switch path.Ext(key) {
	case ".zst":
		return "zstd"
	case ".gz":
		return "gzip"
	default:
		return "none"
	}
}
