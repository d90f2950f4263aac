package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tracked page",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	pages, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		return json.NewEncoder(out).Encode(pages)
	}
	if len(pages) == 0 {
		fmt.Fprintln(out, "No pages tracked yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tVIEWS")
	for _, p := range pages {
		fmt.Fprintf(tw, "%s\t%d\n", p.Path, p.Views)
	}
	return tw.Flush()
}
