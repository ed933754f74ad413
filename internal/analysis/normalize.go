package analysis

import (
	"math"

	"github.com/discochess/archivist/internal/oracle"
)

// Normalize maps a score to a single number: centipawns as-is, a mate in n
// to sign(n)*fill/|n|. Returns nil for an empty score or a mate of zero.
func Normalize(s oracle.Score, fill float64) *float64 {
	switch {
	case s.Mate != nil:
		m := *s.Mate
		if m == 0 {
			return nil
		}
		v := math.Copysign(fill/math.Abs(float64(m)), float64(m))
		return &v
	case s.Centipawns != nil:
		v := float64(*s.Centipawns)
		return &v
	}
	return nil
}

// derive fills the evaluation columns of row from the candidate list and
// the normalized evaluation of the position after the played move.
func derive(row *Row, top []oracle.Candidate, moveEval *float64, fill float64) {
	row.TopMoves = top
	rank := rankOf(top, row.MoveUCI)
	if rank < 0 {
		rank = RankNotInTop
	}
	row.MoveRank = &rank
	row.MoveEval = moveEval

	if len(top) > 0 {
		best := top[0]
		row.BestMove = best.Move
		row.BestMoveEval = Normalize(best.Score, fill)
		if best.Mate != nil {
			m := *best.Mate
			row.MateIn = &m
		}
	}

	if row.MateIn == nil && row.MoveEval != nil && row.BestMoveEval != nil {
		loss := math.Abs(*row.MoveEval - *row.BestMoveEval)
		row.MoveLoss = &loss
	}
}
