// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Repository metrics.
	MetricTracks        = "pageviews_tracks_total"
	MetricPagesCreated  = "pageviews_pages_created_total"
	MetricLookups       = "pageviews_lookups_total"
	MetricStoreErrors   = "pageviews_store_errors_total"
	MetricTrackDuration = "pageviews_track_duration_seconds"

	// Cache metrics.
	MetricCacheHits   = "pageviews_cache_hits_total"
	MetricCacheMisses = "pageviews_cache_misses_total"
	MetricCacheSize   = "pageviews_cache_size"

	// HTTP metrics.
	MetricHTTPRequests        = "pageviews_http_requests_total"
	MetricHTTPRequestDuration = "pageviews_http_request_duration_seconds"

	// SQL metrics.
	MetricSQLQueries       = "pageviews_sql_queries_total"
	MetricSQLErrors        = "pageviews_sql_errors_total"
	MetricSQLQueryDuration = "pageviews_sql_query_duration_seconds"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
