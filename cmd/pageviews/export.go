package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/pageviews/internal/snapshot"
)

var exportCmd = &cobra.Command{
	Use:   "export [LOCATION]",
	Short: "Write every page record to a snapshot",
	Long: `Write every page record to a JSON-lines snapshot.

LOCATION is a local path, file:///path, s3://bucket/key or gs://bucket/key.
The codec is chosen from the extension (.zst, .gz) unless --codec is set.

Examples:
  pageviews export ./pages.jsonl.zst
  pageviews export --level best ./pages.jsonl.zst
  pageviews export s3://backups/pageviews/pages.jsonl.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportCodec string
	exportLevel string
)

func init() {
	exportCmd.Flags().StringVar(&exportCodec, "codec", "", "compression: zstd, gzip or none")
	exportCmd.Flags().StringVar(&exportLevel, "level", "", "compression level: fastest, default, better or best")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	bucket, key, err := snapshot.Open(ctx, args[0])
	if err != nil {
		return err
	}
	defer bucket.Close()

	c, err := snapshot.CodecByName(exportCodec, key, exportLevel)
	if err != nil {
		return err
	}

	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	w, err := bucket.NewWriter(ctx, key)
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	n, err := snapshot.Export(ctx, repo.Store(), w, c)
	if err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d pages to %s (%s).\n", n, args[0], c.Name())
	return nil
}
