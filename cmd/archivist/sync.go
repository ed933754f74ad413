package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/archivist"
	"github.com/discochess/archivist/internal/archive"
)

var syncCmd = &cobra.Command{
	Use:   "sync USER...",
	Short: "Download the months missing from the local archive",
	Long: `Download every month of each player's archive that is not stored yet.
The most recent month is always downloaded again because it may still be
growing.

A failed month or player does not stop the others; failures are listed at
the end and the command exits non-zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSync,
}

var syncConcurrency int

func init() {
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", archive.DefaultConcurrency, "maximum requests in flight")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(ctx,
		archivist.WithConcurrency(syncConcurrency),
		archivist.WithSyncProgress(archive.DefaultProgressFunc),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("Syncing %d player(s) into %s\n", len(args), dataLocation())

	report, err := client.Sync(ctx, args...)
	if err != nil {
		return err
	}

	for _, username := range args {
		u := report.Users[username]
		if u == nil {
			continue
		}
		if u.CatalogErr != nil {
			fmt.Printf("  %-20s catalog failed: %v\n", username, u.CatalogErr)
			continue
		}
		fmt.Printf("  %-20s %d planned, %d fetched\n", username, len(u.Planned), len(u.Fetched()))
	}

	failed := report.Failed()
	for _, f := range failed {
		fmt.Printf("  failed: %v\n", f)
	}
	if len(failed) > 0 {
		return fmt.Errorf("run %s: %d failure(s)", report.RunID, len(failed))
	}
	return nil
}
