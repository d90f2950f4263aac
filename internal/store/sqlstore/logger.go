package sqlstore

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/discochess/pageviews/internal/stats"
)

// sqlLogger routes gorm logging to zap and records query metrics.
type sqlLogger struct {
	logger     *zap.Logger
	collector  stats.Collector
	logQueries bool
	level      gormlogger.LogLevel
}

var _ gormlogger.Interface = (*sqlLogger)(nil)

func newSQLLogger(logger *zap.Logger, collector stats.Collector, logQueries bool) *sqlLogger {
	return &sqlLogger{
		logger:     logger,
		collector:  collector,
		logQueries: logQueries,
		level:      gormlogger.Warn,
	}
}

func (l *sqlLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *sqlLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Sugar().Infof(msg, args...)
	}
}

func (l *sqlLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Sugar().Warnf(msg, args...)
	}
}

func (l *sqlLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Sugar().Errorf(msg, args...)
	}
}

func (l *sqlLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	l.collector.IncCounter(stats.MetricSQLQueries, 1)
	l.collector.ObserveHistogram(stats.MetricSQLQueryDuration, elapsed.Seconds())

	// Missing rows are an expected outcome of Fetch, not a failure.
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.collector.IncCounter(stats.MetricSQLErrors, 1)
		if l.level >= gormlogger.Error {
			query, rows := fc()
			l.logger.Warn("sql statement failed",
				zap.String("sql", query),
				zap.Int64("rows", rows),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
		}
		return
	}

	if !l.logQueries {
		return
	}
	if ce := l.logger.Check(zap.DebugLevel, "sql"); ce != nil {
		query, rows := fc()
		ce.Write(
			zap.String("sql", query),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	}
}
