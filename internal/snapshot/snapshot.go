// Package snapshot exports and imports page records as JSON lines.
//
// A snapshot is one JSON object per line, {"path": ..., "views": ...},
// ordered by path and compressed with a codec.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/discochess/pageviews/internal/codec"
	"github.com/discochess/pageviews/internal/store"
)

// Entry is one line of a snapshot.
type Entry struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// Result summarizes an import.
type Result struct {
	Created int // paths that did not exist before
	Raised  int // existing paths whose views moved up
	Skipped int // existing paths already at or above the snapshot value
}

// Total returns the number of entries read.
func (r Result) Total() int {
	return r.Created + r.Raised + r.Skipped
}

// Export writes every record in st to w through c and returns the number of
// records written.
func Export(ctx context.Context, st store.Store, w io.Writer, c codec.Codec) (int, error) {
	recs, err := st.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing records: %w", err)
	}

	cw, err := c.Writer(w)
	if err != nil {
		return 0, fmt.Errorf("creating %s writer: %w", c.Name(), err)
	}
	enc := json.NewEncoder(cw)
	for _, rec := range recs {
		if err := enc.Encode(Entry{Path: rec.Path, Views: rec.Views}); err != nil {
			cw.Close()
			return 0, fmt.Errorf("encoding %q: %w", rec.Path, err)
		}
	}
	if err := cw.Close(); err != nil {
		return 0, fmt.Errorf("flushing %s writer: %w", c.Name(), err)
	}
	return len(recs), nil
}

// Import merges the snapshot read from r into st. Missing paths are created
// with the snapshot count; existing paths are raised to the snapshot count
// and never lowered.
//
// Import is meant for offline restores: views tracked concurrently for the
// same path between the read and the write can be overwritten.
func Import(ctx context.Context, st store.Store, r io.Reader, c codec.Codec) (Result, error) {
	var res Result

	cr, err := c.Reader(r)
	if err != nil {
		return res, fmt.Errorf("creating %s reader: %w", c.Name(), err)
	}
	defer cr.Close()

	dec := json.NewDecoder(cr)
	for line := 1; ; line++ {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return res, nil
			}
			return res, fmt.Errorf("entry %d: %w", line, err)
		}
		if e.Views < 0 {
			return res, fmt.Errorf("entry %d: negative views %d for %q", line, e.Views, e.Path)
		}
		if err := merge(ctx, st, e, &res); err != nil {
			return res, fmt.Errorf("entry %d (%q): %w", line, e.Path, err)
		}
	}
}

func merge(ctx context.Context, st store.Store, e Entry, res *Result) error {
	rec, err := st.Fetch(ctx, e.Path)
	switch {
	case errors.Is(err, store.ErrNotFound):
		rec, err = st.Insert(ctx, e.Path)
		if errors.Is(err, store.ErrExists) {
			rec, err = st.Fetch(ctx, e.Path)
		} else if err == nil {
			res.Created++
			if e.Views == 0 {
				return nil
			}
			return st.UpdateViews(ctx, e.Path, e.Views)
		}
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if rec.Views >= e.Views {
		res.Skipped++
		return nil
	}
	if err := st.UpdateViews(ctx, e.Path, e.Views); err != nil {
		return err
	}
	res.Raised++
	return nil
}
