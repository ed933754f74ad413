//go:build e2e

package archivist_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/discochess/archivist"
	"github.com/discochess/archivist/internal/oracle/ucioracle"
	"github.com/discochess/archivist/internal/provider/chesscom"
)

// e2eUser is a long-standing account with a small archive.
const e2eUser = "erik"

func TestE2E_LiveArchive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	opts := []archivist.Option{
		archivist.WithProvider(chesscom.New(chesscom.WithRateLimit(2, 1))),
	}
	dirOpt, err := archivist.WithDataDir(t.TempDir())
	if err != nil {
		t.Fatalf("WithDataDir() error = %v", err)
	}
	opts = append(opts, dirOpt)

	engine, lookErr := exec.LookPath("stockfish")
	if lookErr == nil {
		opts = append(opts,
			archivist.WithOracle(ucioracle.Factory(ucioracle.Config{Path: engine, Depth: 8})),
			archivist.WithDepth(8),
		)
	}

	client, err := archivist.New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	// Step 1: Check the player.
	n, err := client.CheckPlayer(ctx, e2eUser)
	if err != nil {
		t.Fatalf("CheckPlayer() error = %v", err)
	}
	t.Logf("%s has %d rated games", e2eUser, n)

	// Step 2: Download and build.
	start := time.Now()
	ds, report, err := client.Refresh(ctx, e2eUser)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	t.Logf("Synced %d months and built %d rows in %v",
		len(report.Users[e2eUser].Fetched()), ds.Len(), time.Since(start))
	if failed := report.Failed(); len(failed) > 0 {
		t.Errorf("Refresh() failures = %v", failed)
	}
	if ds.Len() == 0 {
		t.Fatal("dataset is empty")
	}

	// Step 3: Analyse the latest game.
	if lookErr != nil {
		t.Skip("stockfish not found; skipping analysis")
	}
	id := ds.Identifier[ds.Len()-1]
	res, err := client.Analyze(ctx, e2eUser, id)
	if err != nil {
		t.Fatalf("Analyze(%s) error = %v", id, err)
	}
	if failed := res.Failed(); len(failed) > 0 {
		t.Errorf("Analyze(%s) failed plies = %v", id, failed)
	}
	t.Logf("Analysed %d plies of game %s", len(res.Rows), id)
}
