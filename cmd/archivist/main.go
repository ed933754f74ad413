// Package main provides the archivist CLI tool for downloading chess.com
// game archives, building per-player datasets and analysing games.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
