package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/pageviews/internal/backend"
	"github.com/discochess/pageviews/internal/config"
	"github.com/discochess/pageviews/internal/store/sqlstore"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the pages table if it does not exist",
	Long: `Create the pages table in the configured SQL database.

The table is also created on startup unless AUTO_MIGRATE=false. Running
this command more than once is harmless.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Driver == config.DriverRedis {
		fmt.Fprintln(cmd.OutOrStdout(), "Redis needs no schema.")
		return nil
	}

	st, err := backend.OpenSQL(cfg, logger.Named("store"), nil)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Table %q ready (%s).\n", sqlstore.TableName, st.Dialect().Name())
	return nil
}
