// Package logger provides a zap-based stats collector that logs metrics.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/discochess/pageviews/internal/stats"
)

// Collector implements stats.Collector by logging metrics via zap.
type Collector struct {
	logger *zap.Logger
	level  zapcore.Level
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithLevel sets the level metrics are logged at. Default is debug.
func WithLevel(level zapcore.Level) Option {
	return func(c *Collector) {
		c.level = level
	}
}

// New creates a new logger-based collector.
// If logger is nil, a no-op logger is used.
func New(logger *zap.Logger, opts ...Option) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{logger: logger, level: zapcore.DebugLevel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IncCounter logs a counter increment.
func (c *Collector) IncCounter(name string, delta int64) {
	if ce := c.logger.Check(c.level, "counter"); ce != nil {
		ce.Write(zap.String("metric", name), zap.Int64("delta", delta))
	}
}

// SetGauge logs a gauge value.
func (c *Collector) SetGauge(name string, value int64) {
	if ce := c.logger.Check(c.level, "gauge"); ce != nil {
		ce.Write(zap.String("metric", name), zap.Int64("value", value))
	}
}

// ObserveHistogram logs a histogram observation.
func (c *Collector) ObserveHistogram(name string, value float64) {
	if ce := c.logger.Check(c.level, "histogram"); ce != nil {
		ce.Write(zap.String("metric", name), zap.Float64("value", value))
	}
}
