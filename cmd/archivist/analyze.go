package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/archivist"
	"github.com/discochess/archivist/internal/analysis"
	"github.com/discochess/archivist/internal/oracle"
	"github.com/discochess/archivist/internal/oracle/fakeoracle"
	"github.com/discochess/archivist/internal/oracle/ucioracle"
	"github.com/discochess/archivist/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze USER",
	Short: "Evaluate every move of one game",
	Long: `Evaluate every move of one of a player's games with a UCI engine.

For each ply the engine's five preferred moves are computed; the played
move is ranked against them and its evaluation loss recorded. Finished
analyses are cached per game and depth.

Use --engine fake for a deterministic dry run without an engine. Dry runs
never read or write the analysis cache.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

// fakeEngine is the --engine value selecting the built-in fake oracle.
const fakeEngine = "fake"

var (
	gameID         string
	analyzeDepth   int
	analyzeWorkers int
	enginePath     string
	analyzeFormat  string
)

func init() {
	analyzeCmd.Flags().StringVar(&gameID, "game", "", "game identifier (the number at the end of the game's URL)")
	analyzeCmd.Flags().IntVar(&analyzeDepth, "depth", ucioracle.DefaultDepth, "engine search depth")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "engines run in parallel (default: number of CPUs)")
	analyzeCmd.Flags().StringVar(&enginePath, "engine", "stockfish", "UCI engine executable, or \"fake\"")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "output format: text, markdown, json")
	_ = analyzeCmd.MarkFlagRequired("game")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	username := args[0]
	switch analyzeFormat {
	case "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown format: %s", analyzeFormat)
	}

	ctx, cancel := signalContext()
	defer cancel()

	dryRun := enginePath == fakeEngine
	var factory oracle.Factory
	if dryRun {
		factory = fakeoracle.New().Factory()
	} else {
		factory = ucioracle.Factory(ucioracle.Config{
			Path:   enginePath,
			Depth:  analyzeDepth,
			Logger: log,
		})
	}

	start := time.Now()
	client, err := openClient(ctx, !dryRun,
		archivist.WithOracle(factory),
		archivist.WithDepth(analyzeDepth),
		archivist.WithWorkers(analyzeWorkers),
		archivist.WithAnalysisProgress(func(done, total int) {
			fmt.Fprintf(os.Stderr, "\r[Analyze] %d / %d plies", done, total)
		}),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Analyze(ctx, username, gameID)
	if err != nil {
		return err
	}
	if !res.FromCache {
		fmt.Fprintf(os.Stderr, "\n[Done] %d plies in %s\n", len(res.Rows), time.Since(start).Round(time.Millisecond))
	}
	if failed := res.Failed(); len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "%d ply evaluation(s) failed; the result was not cached\n", len(failed))
	}

	switch analyzeFormat {
	case "json":
		return writeJSON(res)
	case "markdown":
		md := report.NewMarkdown(os.Stdout)
		md.WriteHeader(fmt.Sprintf("Analysis of game %s", res.Key.Identifier))
		md.WriteAnalysis(res)
		md.WriteSideSummaries(analysis.Summarize(res.Rows))
		md.WriteLossChart(res.Rows)
		md.WriteFooter()
		return nil
	}
	return report.WriteAnalysisText(os.Stdout, res)
}

func writeJSON(res *analysis.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Game      string                 `json:"game"`
		White     string                 `json:"white"`
		Black     string                 `json:"black"`
		Result    string                 `json:"result"`
		Depth     int                    `json:"depth"`
		State     string                 `json:"state"`
		FromCache bool                   `json:"from_cache"`
		Rows      []analysis.Row         `json:"rows"`
		Sides     []analysis.SideSummary `json:"sides"`
	}{
		Game:      res.Key.Identifier,
		White:     res.Key.White,
		Black:     res.Key.Black,
		Result:    res.Key.Result,
		Depth:     res.Key.Depth,
		State:     res.State.String(),
		FromCache: res.FromCache,
		Rows:      res.Rows,
		Sides:     analysis.Summarize(res.Rows),
	})
}
