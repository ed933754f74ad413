package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/archivist/internal/dataset"
	"github.com/discochess/archivist/internal/report"
)

var buildCmd = &cobra.Command{
	Use:   "build USER",
	Short: "Rebuild a player's dataset from the downloaded months",
	Long: `Parse every downloaded month of a player, rebuild the dataset table and
print a summary of it. Use --sync to download new months first.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

var (
	buildSync   bool
	buildFormat string
	buildTopECO int
)

func init() {
	buildCmd.Flags().BoolVar(&buildSync, "sync", false, "download new months before building")
	buildCmd.Flags().StringVar(&buildFormat, "format", "text", "output format: text, markdown")
	buildCmd.Flags().IntVar(&buildTopECO, "top", 10, "openings listed in markdown output")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	username := args[0]
	if buildFormat != "text" && buildFormat != "markdown" {
		return fmt.Errorf("unknown format: %s", buildFormat)
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	var ds *dataset.Dataset
	if buildSync {
		var syncErr error
		ds, _, syncErr = client.Refresh(ctx, username)
		if syncErr != nil {
			return syncErr
		}
	} else {
		ds, err = client.Dataset(ctx, username, true)
		if err != nil {
			return err
		}
	}

	summary := dataset.Summarize(ds)
	if buildFormat == "text" {
		return report.WriteSummaryText(os.Stdout, summary)
	}

	md := report.NewMarkdown(os.Stdout)
	md.WriteHeader("Games of " + username)
	md.WriteSummary(summary)
	if err := md.WriteTopCategories(ds, dataset.ColumnECO, buildTopECO); err != nil {
		return err
	}
	md.WriteFooter()
	return nil
}
