package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize every locally built dataset",
	Long: `List the players with a built dataset along with game counts, results
and score.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	usernames, err := client.Usernames(ctx)
	if err != nil {
		return err
	}
	if len(usernames) == 0 {
		fmt.Printf("No datasets found in %s.\n", dataLocation())
		fmt.Println("Run 'archivist sync' and 'archivist build' first.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tGAMES\tWIN\tDRAW\tLOSS\tSCORE")
	for _, username := range usernames {
		s, err := client.Summary(ctx, username)
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t%v\n", username, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.1f%%\n",
			username, s.Games, s.Wins, s.Draws, s.Losses, 100*s.Score)
	}
	return tw.Flush()
}
