package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/archivist/internal/provider"
)

var checkCmd = &cobra.Command{
	Use:   "check USER",
	Short: "Check that a player exists and count their rated games",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	username := args[0]

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	n, err := client.CheckPlayer(ctx, username)
	if errors.Is(err, provider.ErrUnknownPlayer) {
		return fmt.Errorf("player %q does not exist on chess.com", username)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d rated games\n", username, n)
	return nil
}
