// Package redispageviewsfx provides an fx module for a repository stored in
// an existing Redis client.
package redispageviewsfx

import (
	"context"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/pageviews"
	"github.com/discochess/pageviews/internal/stats"
	"github.com/discochess/pageviews/internal/stats/logger"
	"github.com/discochess/pageviews/internal/store"
	"github.com/discochess/pageviews/internal/store/cachedstore"
	"github.com/discochess/pageviews/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/pageviews/internal/store/redisstore"
)

// Config holds configuration for the Redis-backed repository.
type Config struct {
	// KeyPrefix is prepended to the hash key, e.g. "pageviews:".
	KeyPrefix string

	// CacheSize is the number of known paths to remember.
	// Zero disables the existence cache.
	CacheSize int
}

// Module provides a Redis-backed repository.
// Requires a Config, a redis.UniversalClient and a *zap.Logger to be provided.
// The client is owned by the caller and is not closed on stop.
var Module = fx.Module("redispageviews",
	fx.Provide(
		newStatsCollector,
		newRepository,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("pageviews.stats"))
}

// Params holds dependencies for creating the repository.
type Params struct {
	fx.In

	Config    Config
	Client    redis.UniversalClient
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided repository.
type Result struct {
	fx.Out

	Repository *pageviews.Repository
}

func newRepository(p Params) (Result, error) {
	var st store.Store = redisstore.NewFromClient(p.Client, redisstore.WithPrefix(p.Config.KeyPrefix))

	if p.Config.CacheSize > 0 {
		strategy, err := lru.New(p.Config.CacheSize)
		if err != nil {
			return Result{}, err
		}
		st = cachedstore.New(st, strategy, p.Collector)
	}

	repo, err := pageviews.New(
		pageviews.WithStore(st),
		pageviews.WithStats(p.Collector),
		pageviews.WithLogger(p.Logger.Named("pageviews")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return repo.Close()
		},
	})

	return Result{Repository: repo}, nil
}
