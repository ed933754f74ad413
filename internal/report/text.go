package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/discochess/archivist/internal/analysis"
	"github.com/discochess/archivist/internal/dataset"
)

// WriteSummaryText writes a dataset summary as aligned plain text.
func WriteSummaryText(w io.Writer, s dataset.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "player\t%s\n", s.Username)
	fmt.Fprintf(tw, "games\t%d\n", s.Games)
	fmt.Fprintf(tw, "white/black\t%d/%d\n", s.AsWhite, s.AsBlack)
	fmt.Fprintf(tw, "record\t+%d =%d -%d\n", s.Wins, s.Draws, s.Losses)
	fmt.Fprintf(tw, "score\t%.1f%%\n", 100*s.Score)
	fmt.Fprintf(tw, "elo difference\t%.1f ± %.1f\n", s.EloDiffMean, s.EloDiffStdDev)
	fmt.Fprintf(tw, "game length\t%.1f ± %.1f\n", s.LengthMean, s.LengthStdDev)
	return tw.Flush()
}

// WriteAnalysisText writes the move table of an analysed game as aligned
// plain text.
func WriteAnalysisText(w io.Writer, res *analysis.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSIDE\tMOVE\tCLOCK\tBEST\tBEST EVAL\tEVAL\tRANK\tLOSS")
	for _, row := range res.Rows {
		if row.Err != "" {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t-\t-\t-\t-\t%s\n",
				row.MoveNumber, row.Side, row.Move, row.Clock, row.Err)
			continue
		}
		best := formatEval(row.BestMoveEval)
		if row.MateIn != nil {
			best = fmt.Sprintf("#%d", *row.MateIn)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.MoveNumber, row.Side, row.Move, row.Clock, row.BestMove,
			best, formatEval(row.MoveEval), formatRank(row.MoveRank), formatEval(row.MoveLoss))
	}
	return tw.Flush()
}
