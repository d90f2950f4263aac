// Package main provides the pageviews CLI for serving and managing per-path
// pageview counters.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
