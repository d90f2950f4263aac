package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/pageviews/internal/snapshot"
)

var importCmd = &cobra.Command{
	Use:   "import [LOCATION]",
	Short: "Merge a snapshot into the database",
	Long: `Merge a JSON-lines snapshot into the configured database.

Missing paths are created. Existing paths take the larger of their current
count and the snapshot count, so counters never move down.

Run imports while the server is stopped: views counted during an import
can be overwritten.

Examples:
  pageviews import ./pages.jsonl.zst
  pageviews --driver redis import gs://backups/pages.jsonl.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importCodec string

func init() {
	importCmd.Flags().StringVar(&importCodec, "codec", "", "compression: zstd, gzip or none")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	bucket, key, err := snapshot.Open(ctx, args[0])
	if err != nil {
		return err
	}
	defer bucket.Close()

	c, err := snapshot.CodecByName(importCodec, key, "")
	if err != nil {
		return err
	}

	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer r.Close()

	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	res, err := snapshot.Import(ctx, repo.Store(), r, c)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d pages: %d created, %d raised, %d unchanged.\n",
		res.Total(), res.Created, res.Raised, res.Skipped)
	return nil
}
