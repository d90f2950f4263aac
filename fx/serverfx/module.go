// Package serverfx provides an fx module that serves a repository over HTTP.
package serverfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/pageviews"
	"github.com/discochess/pageviews/internal/server"
	"github.com/discochess/pageviews/internal/stats"
	promstats "github.com/discochess/pageviews/internal/stats/prometheus"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Addr is the listen address. Default is ":8080".
	Addr string
}

// Module provides a *server.Server started and stopped with the application.
// Requires a Config, a *pageviews.Repository, a stats.Collector and a
// *zap.Logger. A *promstats.Collector, when provided, is served at /metrics.
var Module = fx.Module("server",
	fx.Provide(newServer),
	fx.Invoke(func(*server.Server) {}),
)

// Params holds dependencies for creating the server.
type Params struct {
	fx.In

	Config     Config
	Repository *pageviews.Repository
	Logger     *zap.Logger
	Collector  stats.Collector
	Prometheus *promstats.Collector `optional:"true"`
	Lifecycle  fx.Lifecycle
}

func newServer(p Params) *server.Server {
	opts := []server.Option{
		server.WithLogger(p.Logger.Named("http")),
		server.WithStats(p.Collector),
	}
	if p.Prometheus != nil {
		opts = append(opts, server.WithMetricsHandler(p.Prometheus.Handler()))
	}
	srv := server.New(p.Config.Addr, p.Repository, opts...)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
