// Package backend builds the configured storage backend.
//
// Open is the single place where the configured driver is inspected. Callers
// receive a store.Store and never branch on the driver themselves.
package backend

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"

	"github.com/discochess/pageviews/internal/config"
	"github.com/discochess/pageviews/internal/stats"
	"github.com/discochess/pageviews/internal/store"
	"github.com/discochess/pageviews/internal/store/cachedstore"
	"github.com/discochess/pageviews/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/pageviews/internal/store/redisstore"
	"github.com/discochess/pageviews/internal/store/sqlstore"
)

const defaultRedisPort = 6379

// Open builds the store described by cfg. For SQL drivers the schema is
// bootstrapped when cfg.AutoMigrate is set. The result is wrapped in an
// existence cache when cfg.CacheSize is positive.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, collector stats.Collector) (store.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}

	var (
		st  store.Store
		err error
	)
	switch cfg.Driver {
	case config.DriverRedis:
		st, err = openRedis(ctx, cfg)
	default:
		st, err = openSQL(ctx, cfg, logger, collector)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("storage backend ready",
		zap.String("driver", string(cfg.Driver)),
		zap.Int("cacheSize", cfg.CacheSize),
	)

	if cfg.CacheSize <= 0 {
		return st, nil
	}
	strategy, err := lru.New(cfg.CacheSize)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating existence cache: %w", err)
	}
	return cachedstore.New(st, strategy, collector), nil
}

// Dialect returns the SQL dialect for cfg.
func Dialect(cfg *config.Config) (sqlstore.Dialect, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlstore.SQLite{Path: cfg.SQLitePath}, nil
	case config.DriverMySQL:
		return sqlstore.MySQL{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Database,
		}, nil
	case config.DriverPostgres:
		return sqlstore.Postgres{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Database,
			SSLMode:  cfg.SSLMode,
		}, nil
	default:
		return nil, fmt.Errorf("driver %q is not a SQL driver", cfg.Driver)
	}
}

// OpenSQL opens the SQL store for cfg without caching or schema bootstrap.
// logger and collector may be nil.
func OpenSQL(cfg *config.Config, logger *zap.Logger, collector stats.Collector) (*sqlstore.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	d, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}
	return sqlstore.New(d,
		sqlstore.WithLogger(logger),
		sqlstore.WithStats(collector),
		sqlstore.WithQueryLogging(cfg.LogQueries),
		sqlstore.WithPool(sqlstore.PoolConfig{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		}),
	)
}

func openSQL(ctx context.Context, cfg *config.Config, logger *zap.Logger, collector stats.Collector) (store.Store, error) {
	st, err := OpenSQL(cfg, logger, collector)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
	}
	if cfg.AutoMigrate {
		if err := st.EnsureSchema(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("bootstrapping schema: %w", err)
		}
	}
	return st, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (store.Store, error) {
	port := cfg.Port
	if port == 0 {
		port = defaultRedisPort
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	st := redisstore.New(addr, cfg.RedisDB, cfg.Password, redisstore.WithPrefix(cfg.RedisKeyPrefix))
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return st, nil
}
