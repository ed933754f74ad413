package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/discochess/archivist"
	"github.com/discochess/archivist/internal/oracle/fakeoracle"
	"github.com/discochess/archivist/internal/stats"
)

const scholarsMate = `[Event "Live Chess"]
[Site "Chess.com"]
[Date "2024.01.05"]
[White "alice"]
[Black "bob"]
[Result "1-0"]
[WhiteElo "1500"]
[BlackElo "1450"]
[ECO "C20"]
[Termination "alice won by checkmate"]
[Link "https://www.chess.com/game/live/1001"]

1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0
`

// setupFlags points the global flags at a fresh data directory holding one
// month of alice's games.
func setupFlags(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "alice"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "alice", "2024-01.txt"), []byte(scholarsMate), 0644); err != nil {
		t.Fatal(err)
	}

	dataDir, cacheDir, storeURL = dir, "", ""
	log = zap.NewNop()
	collector = stats.NewNoop()
	gameID = "1001"
	analyzeDepth = 16
	analyzeWorkers = 1
	analyzeFormat = "json"
	t.Cleanup(func() { enginePath = "stockfish" })
	return dir
}

func TestAnalyze_DryRunSkipsCache(t *testing.T) {
	dir := setupFlags(t)
	enginePath = fakeEngine

	if err := runAnalyze(analyzeCmd, []string{"alice"}); err != nil {
		t.Fatalf("runAnalyze() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, archivist.DefaultAnalysisDir))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("analysis cache holds %d entries after a dry run, want 0", len(entries))
	}

	// A later run with a real engine at the same depth must evaluate.
	ctx := context.Background()
	engine := fakeoracle.New()
	client, err := newClient(ctx,
		archivist.WithOracle(engine.Factory()),
		archivist.WithDepth(analyzeDepth),
		archivist.WithWorkers(1),
	)
	if err != nil {
		t.Fatalf("newClient() error = %v", err)
	}
	defer client.Close()

	res, err := client.Analyze(ctx, "alice", "1001")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.FromCache {
		t.Error("Analyze() FromCache = true, want a fresh evaluation")
	}
	if engine.Created() == 0 {
		t.Error("Analyze() never created an evaluator")
	}

	again, err := client.Analyze(ctx, "alice", "1001")
	if err != nil {
		t.Fatalf("second Analyze() error = %v", err)
	}
	if !again.FromCache {
		t.Error("second Analyze() FromCache = false, want cache hit")
	}
}
