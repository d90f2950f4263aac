package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/pageviews"
)

var getCmd = &cobra.Command{
	Use:   "get [PATH]",
	Short: "Show the view count of a page path",
	Long: `Show the view count of a page path without counting a view.

Examples:
  pageviews get /index
  pageviews get /index --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var getJSON bool

func init() {
	getCmd.Flags().BoolVar(&getJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	page, err := repo.Get(ctx, args[0])
	if err != nil {
		if errors.Is(err, pageviews.ErrNotFound) {
			return fmt.Errorf("page %q has not been tracked", args[0])
		}
		return fmt.Errorf("lookup failed: %w", err)
	}
	return printPage(cmd.OutOrStdout(), page, getJSON)
}
