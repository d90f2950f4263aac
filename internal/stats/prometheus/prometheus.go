// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/discochess/pageviews/internal/stats"
)

// help holds descriptions for the metrics this module emits.
// Unknown names fall back to the metric name.
var help = map[string]string{
	stats.MetricTracks:              "Pageviews tracked.",
	stats.MetricPagesCreated:        "Page records created on first view.",
	stats.MetricLookups:             "Read-only page lookups.",
	stats.MetricStoreErrors:         "Storage backend failures surfaced to callers.",
	stats.MetricTrackDuration:       "Time spent tracking a single pageview.",
	stats.MetricCacheHits:           "Existence cache hits.",
	stats.MetricCacheMisses:         "Existence cache misses.",
	stats.MetricCacheSize:           "Paths held in the existence cache.",
	stats.MetricHTTPRequests:        "HTTP requests served.",
	stats.MetricHTTPRequestDuration: "HTTP request latency.",
	stats.MetricSQLQueries:          "SQL statements executed.",
	stats.MetricSQLErrors:           "SQL statements that failed.",
	stats.MetricSQLQueryDuration:    "SQL statement latency.",
}

// latencyBuckets are tuned for single-row statements and small HTTP responses.
var latencyBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

var latencyMetrics = map[string]bool{
	stats.MetricTrackDuration:       true,
	stats.MetricHTTPRequestDuration: true,
	stats.MetricSQLQueryDuration:    true,
}

// Collector implements stats.Collector using Prometheus metrics.
// Metrics are registered lazily on first use.
type Collector struct {
	registry prometheus.Registerer
	gatherer prometheus.Gatherer

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used. When the registry
// also implements prometheus.Gatherer it backs Handler.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := registry.(prometheus.Gatherer); ok {
		gatherer = g
	}
	return &Collector{
		registry:   registry,
		gatherer:   gatherer,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrCreate(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: helpFor(name)})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := getOrCreate(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: helpFor(name)})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrCreate(c, c.histograms, name, func() prometheus.Histogram {
		buckets := prometheus.DefBuckets
		if latencyMetrics[name] {
			buckets = latencyBuckets
		}
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    helpFor(name),
			Buckets: buckets,
		})
	})
	histogram.Observe(value)
}

// getOrCreate returns the metric cached under name, registering a new one
// built by create when absent. If an equivalent metric is already registered
// elsewhere, that one is reused.
func getOrCreate[M prometheus.Collector](c *Collector, metrics map[string]M, name string, create func() M) M {
	c.mu.RLock()
	m, ok := metrics[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if m, ok = metrics[name]; ok {
		return m
	}

	m = create()
	if err := c.registry.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
		// Otherwise keep the unregistered metric; it still accepts updates.
	}
	metrics[name] = m
	return m
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}
