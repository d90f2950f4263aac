package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/discochess/pageviews/fx/pageviewsfx"
	"github.com/discochess/pageviews/fx/serverfx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pageview endpoints over HTTP",
	Long: `Serve the pageview endpoints over HTTP until interrupted.

Endpoints:
  GET|POST /track?path=<path>  count a view and return {"path","views"}
  GET      /pages?path=<path>  return a record without counting
  GET      /pages/all          return every record
  GET      /healthz            check the storage backend
  GET      /metrics            Prometheus metrics

The listen address defaults to LISTEN_ADDR (":8080").`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var listenAddr string

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	app := fx.New(
		fx.Supply(cfg, logger, serverfx.Config{Addr: cfg.ListenAddr}),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		pageviewsfx.Module,
		serverfx.Module,
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
