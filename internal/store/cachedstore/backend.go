// Package cachedstore wraps a Store with a cache of known paths.
//
// Records are never deleted, so once a path has been seen to exist it exists
// for good; the cache answers Exists for such paths without a round-trip.
// View counts are never cached.
package cachedstore

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of cached paths
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
