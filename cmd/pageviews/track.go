package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/discochess/pageviews"
)

var trackCmd = &cobra.Command{
	Use:   "track [PATH]",
	Short: "Count one view of a page path",
	Long: `Count one view of a page path and print the updated record.
The record is created on its first view.

Examples:
  pageviews track /index
  pageviews track /about --json`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

var trackJSON bool

func init() {
	trackCmd.Flags().BoolVar(&trackJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	page, err := repo.Track(ctx, args[0])
	if err != nil {
		return fmt.Errorf("track failed: %w", err)
	}
	return printPage(cmd.OutOrStdout(), page, trackJSON)
}

func printPage(w io.Writer, page *pageviews.Page, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(page)
	}
	_, err := fmt.Fprintf(w, "Path:  %s\nViews: %d\n", page.Path, page.Views)
	return err
}
