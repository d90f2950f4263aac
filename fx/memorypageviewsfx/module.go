// Package memorypageviewsfx provides an fx module for an in-memory repository.
// Useful for testing.
package memorypageviewsfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/pageviews"
	"github.com/discochess/pageviews/internal/stats"
	"github.com/discochess/pageviews/internal/stats/logger"
	"github.com/discochess/pageviews/internal/store/memstore"
)

// Module provides an in-memory repository for testing.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memorypageviews",
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

	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided repository and store.
type Result struct {
	fx.Out

	Repository *pageviews.Repository
	Store      *memstore.Store // Exposed for test setup
}

func newRepository(p Params) (Result, error) {
	st := memstore.New()
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

	return Result{
		Repository: repo,
		Store:      st,
	}, nil
}
