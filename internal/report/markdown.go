// Package report renders datasets and game analyses for humans.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/discochess/archivist/internal/analysis"
	"github.com/discochess/archivist/internal/dataset"
)

// Markdown writes reports in Markdown format.
type Markdown struct {
	w   io.Writer
	now func() time.Time
}

// NewMarkdown creates a Markdown report writer.
func NewMarkdown(w io.Writer) *Markdown {
	return &Markdown{w: w, now: time.Now}
}

// WriteHeader writes the report title.
func (r *Markdown) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", r.now().Format(time.RFC3339))
}

// WriteSummary writes the descriptive statistics of a dataset.
func (r *Markdown) WriteSummary(s dataset.Summary) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Player:** %s\n", s.Username)
	fmt.Fprintf(r.w, "- **Games:** %d (%d as White, %d as Black)\n", s.Games, s.AsWhite, s.AsBlack)
	fmt.Fprintf(r.w, "- **Record:** +%d =%d -%d\n", s.Wins, s.Draws, s.Losses)
	fmt.Fprintf(r.w, "- **Score:** %.1f%%\n", 100*s.Score)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "| Metric | Mean | Std Dev |")
	fmt.Fprintln(r.w, "|--------|------|---------|")
	fmt.Fprintf(r.w, "| Elo difference | %.1f | %.1f |\n", s.EloDiffMean, s.EloDiffStdDev)
	fmt.Fprintf(r.w, "| Game length | %.1f | %.1f |\n", s.LengthMean, s.LengthStdDev)
	fmt.Fprintln(r.w)
}

// WriteTopCategories writes the n most frequent values of a categorical
// column with their counts.
func (r *Markdown) WriteTopCategories(ds *dataset.Dataset, column string, n int) error {
	levels, err := dataset.TopCategories(ds, column, n)
	if err != nil {
		return err
	}
	values, err := ds.Strings(column)
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}

	fmt.Fprintf(r.w, "## Top %s\n\n", column)
	fmt.Fprintf(r.w, "| %s | Games |\n", column)
	fmt.Fprintln(r.w, "|"+strings.Repeat("-", len(column)+2)+"|-------|")
	for _, level := range levels {
		fmt.Fprintf(r.w, "| %s | %d |\n", level, counts[level])
	}
	fmt.Fprintln(r.w)
	return nil
}

// WriteAnalysis writes the per-move table of an analysed game.
func (r *Markdown) WriteAnalysis(res *analysis.Result) {
	fmt.Fprintf(r.w, "## %s vs %s (%s)\n\n", res.Key.White, res.Key.Black, res.Key.Result)
	source := "engine"
	if res.FromCache {
		source = "cache"
	}
	fmt.Fprintf(r.w, "Game %s, depth %d, from %s.\n\n", res.Key.Identifier, res.Key.Depth, source)

	fmt.Fprintln(r.w, "| # | Side | Move | Clock | Best | Best Eval | Eval | Rank | Loss |")
	fmt.Fprintln(r.w, "|---|------|------|-------|------|-----------|------|------|------|")
	for _, row := range res.Rows {
		if row.Err != "" {
			fmt.Fprintf(r.w, "| %d | %s | %s | %s | - | - | - | - | %s |\n",
				row.MoveNumber, row.Side, row.Move, row.Clock, row.Err)
			continue
		}
		best := formatEval(row.BestMoveEval)
		if row.MateIn != nil {
			best = fmt.Sprintf("#%d", *row.MateIn)
		}
		fmt.Fprintf(r.w, "| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			row.MoveNumber, row.Side, row.Move, row.Clock, row.BestMove,
			best, formatEval(row.MoveEval), formatRank(row.MoveRank), formatEval(row.MoveLoss))
	}
	fmt.Fprintln(r.w)
}

// WriteSideSummaries writes per-side accuracy statistics.
func (r *Markdown) WriteSideSummaries(sides []analysis.SideSummary) {
	fmt.Fprintln(r.w, "### Accuracy")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Side | Moves | Best | Top 5 | Mean Loss | Std Dev | Failed |")
	fmt.Fprintln(r.w, "|------|-------|------|-------|-----------|---------|--------|")
	for _, s := range sides {
		fmt.Fprintf(r.w, "| %s | %d | %d | %d | %.1f | %.1f | %d |\n",
			s.Side, s.Moves, s.BestMatches, s.TopMatches, s.MeanLoss, s.StdDevLoss, s.Failed)
	}
	fmt.Fprintln(r.w)
}

// WriteLossChart writes an ASCII distribution of move losses.
func (r *Markdown) WriteLossChart(rows []analysis.Row) {
	var losses []float64
	for _, row := range rows {
		if row.MoveLoss != nil {
			losses = append(losses, *row.MoveLoss)
		}
	}

	fmt.Fprintln(r.w, "### Move Loss Distribution")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "```")

	hist, lo, width := makeHistogram(losses, 10)
	maxCount := 0
	for _, count := range hist {
		if count > maxCount {
			maxCount = count
		}
	}

	barWidth := 40
	for i, count := range hist {
		barLen := 0
		if maxCount > 0 {
			barLen = count * barWidth / maxCount
		}
		bar := strings.Repeat("█", barLen)
		from := lo + float64(i)*width
		fmt.Fprintf(r.w, "%6.0f-%6.0f │ %s %d\n", from, from+width, bar, count)
	}

	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

// makeHistogram buckets data into equal-width bins, returning the counts,
// the lower bound and the bin width.
func makeHistogram(data []float64, buckets int) ([]int, float64, float64) {
	hist := make([]int, buckets)
	if len(data) == 0 {
		return hist, 0, 1
	}

	lo, hi := data[0], data[0]
	for _, v := range data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	width := (hi - lo) / float64(buckets)
	for _, v := range data {
		bucket := int((v - lo) / width)
		if bucket >= buckets {
			bucket = buckets - 1
		}
		hist[bucket]++
	}
	return hist, lo, width
}

// WriteFooter writes the report footer.
func (r *Markdown) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by archivist*")
}

func formatEval(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v/100)
}

func formatRank(v *int) string {
	if v == nil {
		return "-"
	}
	if *v >= analysis.RankNotInTop {
		return "-"
	}
	return fmt.Sprint(*v + 1)
}
