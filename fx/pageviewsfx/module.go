// Package pageviewsfx provides an fx module for a repository backed by the
// configured storage driver.
package pageviewsfx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/pageviews"
	"github.com/discochess/pageviews/internal/backend"
	"github.com/discochess/pageviews/internal/config"
	"github.com/discochess/pageviews/internal/stats"
	promstats "github.com/discochess/pageviews/internal/stats/prometheus"
)

// Module provides a *pageviews.Repository and the metrics collector.
// Requires a *config.Config and a *zap.Logger to be provided.
var Module = fx.Module("pageviews",
	fx.Provide(
		newStats,
		newRepository,
	),
)

// StatsResult holds the provided collectors.
type StatsResult struct {
	fx.Out

	Prometheus *promstats.Collector
	Collector  stats.Collector
}

func newStats() StatsResult {
	c := promstats.New(prometheus.NewRegistry())
	return StatsResult{Prometheus: c, Collector: c}
}

// Params holds dependencies for creating the repository.
type Params struct {
	fx.In

	Config    *config.Config
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
	st, err := backend.Open(context.Background(), p.Config, p.Logger.Named("store"), p.Collector)
	if err != nil {
		return Result{}, err
	}

	repo, err := pageviews.New(
		pageviews.WithStore(st),
		pageviews.WithStats(p.Collector),
		pageviews.WithLogger(p.Logger.Named("pageviews")),
	)
	if err != nil {
		st.Close()
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Ping(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return repo.Close()
		},
	})

	return Result{Repository: repo}, nil
}
