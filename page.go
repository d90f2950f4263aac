package pageviews

import "fmt"

// Page is a tracked page and its cumulative view count.
type Page struct {
	// Path identifies the page exactly as it was tracked; no normalization
	// is applied.
	Path string `json:"path"`

	// Views is the number of views counted so far. It never decreases.
	Views int64 `json:"views"`
}

// StorageError reports a failure to communicate with or execute a statement
// against the storage backend. The repository never retries; callers decide.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("pageviews: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pageviews: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
