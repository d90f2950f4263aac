package stats

import "testing"

func TestNoop_DiscardsMetrics(t *testing.T) {
	var c Collector = NewNoop()

	c.IncCounter(MetricTracks, 1)
	c.SetGauge(MetricCacheSize, 10)
	c.ObserveHistogram(MetricHTTPRequestDuration, 0.5)

	if c != (Noop{}) {
		t.Errorf("NewNoop() = %#v, want Noop{}", c)
	}
}
