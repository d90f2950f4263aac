package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/discochess/pageviews"
)

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_TrackGetList(t *testing.T) {
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "pages.sqlite")

	_, err := run(t, "--database-url", dbURL, "schema")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := run(t, "--database-url", dbURL, "track", "/index")
		require.NoError(t, err)
	}
	out, err := run(t, "--database-url", dbURL, "track", "/index", "--json")
	require.NoError(t, err)

	var page pageviews.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Equal(t, pageviews.Page{Path: "/index", Views: 3}, page)
	trackJSON = false

	out, err = run(t, "--database-url", dbURL, "get", "/index")
	require.NoError(t, err)
	require.Contains(t, out, "Views: 3")

	_, err = run(t, "--database-url", dbURL, "get", "/missing")
	require.ErrorContains(t, err, "has not been tracked")

	out, err = run(t, "--database-url", dbURL, "list")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "PATH"), "list output = %q", out)
	require.Contains(t, out, "/index")
}

func TestCLI_ExportImport(t *testing.T) {
	dir := t.TempDir()
	src := "sqlite://" + filepath.Join(dir, "src.sqlite")
	dst := "sqlite://" + filepath.Join(dir, "dst.sqlite")
	snap := filepath.Join(dir, "pages.jsonl.zst")

	for _, p := range []string{"/a", "/b", "/a"} {
		_, err := run(t, "--database-url", src, "track", p)
		require.NoError(t, err)
	}

	out, err := run(t, "--database-url", src, "export", "--level", "best", snap)
	require.NoError(t, err)
	require.Contains(t, out, "Exported 2 pages")
	require.Contains(t, out, "zstd")

	out, err = run(t, "--database-url", dst, "import", snap)
	require.NoError(t, err)
	require.Contains(t, out, "2 created")

	out, err = run(t, "--database-url", dst, "get", "/a")
	require.NoError(t, err)
	require.Contains(t, out, "Views: 2")
}

func TestCLI_ExportRejectsUnknownLevel(t *testing.T) {
	dir := t.TempDir()
	db := "sqlite://" + filepath.Join(dir, "pages.sqlite")

	_, err := run(t, "--database-url", db, "export", "--level", "ludicrous", filepath.Join(dir, "pages.jsonl.gz"))
	require.ErrorContains(t, err, "unknown compression level")

	require.NoError(t, exportCmd.Flags().Set("level", ""))
}

func TestCLI_InvalidDriver(t *testing.T) {
	// A database URL names its own driver, so clear any left by earlier tests.
	require.NoError(t, rootCmd.PersistentFlags().Set("database-url", ""))

	_, err := run(t, "--driver", "oracle", "list")
	require.ErrorContains(t, err, "invalid database driver (oracle)")

	// Reset the persistent flag for later tests.
	require.NoError(t, rootCmd.PersistentFlags().Set("driver", ""))
}
