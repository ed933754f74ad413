package analysis

import (
	"gonum.org/v1/gonum/stat"
)

// SideSummary aggregates the rows of one side.
type SideSummary struct {
	Side string
	// Moves counts evaluated plies.
	Moves int
	// BestMatches counts moves equal to the engine's first choice.
	BestMatches int
	// TopMatches counts moves found anywhere in the candidate list.
	TopMatches int
	// MeanLoss and StdDevLoss are over plies with a MoveLoss.
	MeanLoss   float64
	StdDevLoss float64
	Failed     int
}

// Summarize aggregates rows per side, White first.
func Summarize(rows []Row) []SideSummary {
	out := []SideSummary{{Side: "W"}, {Side: "B"}}
	losses := make([][]float64, 2)
	for _, r := range rows {
		i := 0
		if r.Side == "B" {
			i = 1
		}
		s := &out[i]
		if r.Err != "" {
			s.Failed++
			continue
		}
		s.Moves++
		if r.MoveRank != nil {
			if *r.MoveRank == 0 {
				s.BestMatches++
			}
			if *r.MoveRank < RankNotInTop {
				s.TopMatches++
			}
		}
		if r.MoveLoss != nil {
			losses[i] = append(losses[i], *r.MoveLoss)
		}
	}
	for i := range out {
		switch len(losses[i]) {
		case 0:
		case 1:
			out[i].MeanLoss = losses[i][0]
		default:
			out[i].MeanLoss, out[i].StdDevLoss = stat.MeanStdDev(losses[i], nil)
		}
	}
	return out
}
