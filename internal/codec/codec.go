// Package codec provides compression for snapshot streams.
package codec

import "io"

// Codec compresses and decompresses a byte stream.
type Codec interface {
	// Name returns the codec name used on the command line ("zstd", "gzip", "none").
	Name() string
	// Reader wraps r to decompress data read from it. Closing the returned
	// reader does not close r.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it. Closing the returned
	// writer flushes pending data but does not close w.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}
