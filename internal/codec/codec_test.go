package codec_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/discochess/pageviews/internal/codec"
	"github.com/discochess/pageviews/internal/codec/gzipcodec"
	"github.com/discochess/pageviews/internal/codec/noopcodec"
	"github.com/discochess/pageviews/internal/codec/zstdcodec"
)

func allCodecs() []codec.Codec {
	return []codec.Codec{
		zstdcodec.New(),
		gzipcodec.New(gzipcodec.WithLevel(gzip.BestSpeed)),
		noopcodec.New(),
	}
}

func roundTrip(t *testing.T, c codec.Codec, original []byte) []byte {
	t.Helper()

	var compressed bytes.Buffer
	w, err := c.Writer(&compressed)
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if _, err := w.Write(original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := c.Reader(&compressed)
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return got
}

func TestCodecs_Names(t *testing.T) {
	want := map[string]string{"zstd": "zst", "gzip": "gz", "none": ""}
	for _, c := range allCodecs() {
		ext, ok := want[c.Name()]
		if !ok {
			t.Errorf("unexpected codec name %q", c.Name())
			continue
		}
		if c.Extension() != ext {
			t.Errorf("%s Extension() = %q, want %q", c.Name(), c.Extension(), ext)
		}
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"empty": {},
		"jsonl": []byte("{\"path\":\"/index\",\"views\":3}\n{\"path\":\"/about\",\"views\":1}\n"),
		"large": bytes.Repeat([]byte("{\"path\":\"/p\",\"views\":1}\n"), 10000),
	}

	for _, c := range allCodecs() {
		for name, in := range inputs {
			t.Run(c.Name()+"/"+name, func(t *testing.T) {
				got := roundTrip(t, c, in)
				if !bytes.Equal(got, in) {
					t.Errorf("round trip changed %d bytes into %d bytes", len(in), len(got))
				}
			})
		}
	}
}

func TestCodecs_Compress(t *testing.T) {
	original := bytes.Repeat([]byte("ABCDEFGHIJ"), 10000)

	for _, c := range allCodecs() {
		if c.Extension() == "" {
			continue
		}
		var compressed bytes.Buffer
		w, err := c.Writer(&compressed)
		if err != nil {
			t.Fatalf("%s Writer() error = %v", c.Name(), err)
		}
		w.Write(original)
		w.Close()
		if compressed.Len() >= len(original) {
			t.Errorf("%s: expected compression, got %d bytes from %d", c.Name(), compressed.Len(), len(original))
		}
	}
}

func TestCodecs_InvalidData(t *testing.T) {
	for _, c := range allCodecs() {
		if c.Extension() == "" {
			continue
		}
		r, err := c.Reader(bytes.NewReader([]byte("definitely not compressed")))
		if err != nil {
			continue
		}
		if _, err := io.ReadAll(r); err == nil {
			t.Errorf("%s: reading invalid data should fail", c.Name())
		}
		r.Close()
	}
}

// closeTracker records whether Close was called.
type closeTracker struct {
	bytes.Buffer
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestCodecs_WriterKeepsUnderlyingOpen(t *testing.T) {
	for _, c := range allCodecs() {
		dst := &closeTracker{}
		w, err := c.Writer(dst)
		if err != nil {
			t.Fatalf("%s Writer() error = %v", c.Name(), err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("%s Close() error = %v", c.Name(), err)
		}
		if dst.closed {
			t.Errorf("%s: closing the codec writer closed the destination", c.Name())
		}
	}
}
