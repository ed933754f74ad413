package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/discochess/archivist/internal/oracle"
	"github.com/discochess/archivist/internal/store"
	"github.com/discochess/archivist/internal/table"
)

const tableKind = "analysis"

var tableColumns = []string{
	"ply", "move_number", "side", "move", "move_uci", "clock",
	"best_move", "best_move_eval", "mate_in", "top_moves",
	"move_rank", "move_eval", "move_loss", "move_corr",
}

// rowTable is the columnar form rows are cached in.
type rowTable struct {
	Ply          []int                `json:"ply"`
	MoveNumber   []int                `json:"move_number"`
	Side         []string             `json:"side"`
	Move         []string             `json:"move"`
	MoveUCI      []string             `json:"move_uci"`
	Clock        []string             `json:"clock"`
	BestMove     []string             `json:"best_move"`
	BestMoveEval []*float64           `json:"best_move_eval"`
	MateIn       []*int               `json:"mate_in"`
	TopMoves     [][]oracle.Candidate `json:"top_moves"`
	MoveRank     []*int               `json:"move_rank"`
	MoveEval     []*float64           `json:"move_eval"`
	MoveLoss     []*float64           `json:"move_loss"`
	MoveCorr     []*float64           `json:"move_corr"`
}

func toTable(rows []Row) *rowTable {
	t := &rowTable{}
	for _, r := range rows {
		t.Ply = append(t.Ply, r.Ply)
		t.MoveNumber = append(t.MoveNumber, r.MoveNumber)
		t.Side = append(t.Side, r.Side)
		t.Move = append(t.Move, r.Move)
		t.MoveUCI = append(t.MoveUCI, r.MoveUCI)
		t.Clock = append(t.Clock, r.Clock)
		t.BestMove = append(t.BestMove, r.BestMove)
		t.BestMoveEval = append(t.BestMoveEval, r.BestMoveEval)
		t.MateIn = append(t.MateIn, r.MateIn)
		t.TopMoves = append(t.TopMoves, r.TopMoves)
		t.MoveRank = append(t.MoveRank, r.MoveRank)
		t.MoveEval = append(t.MoveEval, r.MoveEval)
		t.MoveLoss = append(t.MoveLoss, r.MoveLoss)
		t.MoveCorr = append(t.MoveCorr, r.MoveCorr)
	}
	return t
}

func (t *rowTable) rows(n int) ([]Row, error) {
	err := table.CheckLengths(n, map[string]int{
		"ply":            len(t.Ply),
		"move_number":    len(t.MoveNumber),
		"side":           len(t.Side),
		"move":           len(t.Move),
		"move_uci":       len(t.MoveUCI),
		"clock":          len(t.Clock),
		"best_move":      len(t.BestMove),
		"best_move_eval": len(t.BestMoveEval),
		"mate_in":        len(t.MateIn),
		"top_moves":      len(t.TopMoves),
		"move_rank":      len(t.MoveRank),
		"move_eval":      len(t.MoveEval),
		"move_loss":      len(t.MoveLoss),
		"move_corr":      len(t.MoveCorr),
	})
	if err != nil {
		return nil, err
	}
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Ply:          t.Ply[i],
			MoveNumber:   t.MoveNumber[i],
			Side:         t.Side[i],
			Move:         t.Move[i],
			MoveUCI:      t.MoveUCI[i],
			Clock:        t.Clock[i],
			BestMove:     t.BestMove[i],
			BestMoveEval: t.BestMoveEval[i],
			MateIn:       t.MateIn[i],
			TopMoves:     t.TopMoves[i],
			MoveRank:     t.MoveRank[i],
			MoveEval:     t.MoveEval[i],
			MoveLoss:     t.MoveLoss[i],
			MoveCorr:     t.MoveCorr[i],
		}
	}
	return rows, nil
}

// lookup returns the cached rows for key. Missing and unreadable entries
// are both reported as misses.
func (e *Engine) lookup(ctx context.Context, key CacheKey) ([]Row, bool) {
	if e.cache == nil {
		return nil, false
	}
	rows, err := e.readCache(ctx, key)
	switch {
	case err == nil:
		return rows, true
	case errors.Is(err, store.ErrNotFound):
	default:
		e.logger.Warn("ignoring cached analysis",
			zap.String("key", key.Filename()),
			zap.Error(err),
		)
	}
	return nil, false
}

func (e *Engine) readCache(ctx context.Context, key CacheKey) ([]Row, error) {
	data, err := e.cache.Read(ctx, key.Filename())
	if err != nil {
		return nil, err
	}
	var t rowTable
	h, err := table.Unmarshal(data, table.DefaultRegistry(), tableKind, &t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	rows, err := t.rows(h.Rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	return rows, nil
}

func (e *Engine) writeCache(ctx context.Context, key CacheKey, rows []Row) error {
	if e.cache == nil {
		return nil
	}
	data, err := table.Marshal(e.codec, table.Header{
		Kind:    tableKind,
		Rows:    len(rows),
		Columns: tableColumns,
	}, toTable(rows))
	if err != nil {
		return fmt.Errorf("encoding analysis %s: %w", key.Filename(), err)
	}
	if err := e.cache.Write(ctx, key.Filename(), data); err != nil {
		return fmt.Errorf("writing analysis %s: %w", key.Filename(), err)
	}
	return nil
}
