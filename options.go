package pageviews

import (
	"go.uber.org/zap"

	"github.com/discochess/pageviews/internal/stats"
	"github.com/discochess/pageviews/internal/store"
)

// Option configures a Repository.
type Option interface {
	apply(*options)
}

// options holds the repository configuration.
type options struct {
	store           store.Store
	stats           stats.Collector
	logger          *zap.Logger
	readModifyWrite bool
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStore sets the storage backend to use.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithReadModifyWrite makes Track read the record, add one, and write the
// result back as separate statements instead of using the store's atomic
// increment. Concurrent tracks of one path may then lose increments.
func WithReadModifyWrite() Option {
	return optionFunc(func(o *options) {
		o.readModifyWrite = true
	})
}
