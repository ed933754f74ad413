// Package analysis evaluates every ply of a game with a pool of position
// evaluators and caches the resulting move table.
package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/discochess/archivist/internal/oracle"
	"github.com/discochess/archivist/internal/pgn"
)

const (
	// DefaultTopK is the number of candidate moves requested per position.
	DefaultTopK = 5

	// RankNotInTop is the MoveRank of a move outside the candidate list.
	RankNotInTop = 6

	// DefaultMateFill is the magnitude a mate in one normalizes to.
	DefaultMateFill = 1000.0
)

var (
	// ErrCacheCorrupt marks a cache entry that exists but cannot be read.
	// Such entries are treated as misses.
	ErrCacheCorrupt = errors.New("analysis: cache entry corrupt")

	// ErrAnalysisFailed is returned when no ply could be evaluated.
	ErrAnalysisFailed = errors.New("analysis: every ply failed")
)

// State is the lifecycle of a game's analysis.
type State int

const (
	StateUnanalyzed State = iota
	StateCacheHit
	StateCacheMiss
	StateEvaluating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnanalyzed:
		return "unanalyzed"
	case StateCacheHit:
		return "cache-hit"
	case StateCacheMiss:
		return "cache-miss"
	case StateEvaluating:
		return "evaluating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Row is the evaluation of one ply. Evaluations are from White's point of
// view with mates normalized to ±fill/|mate|.
type Row struct {
	Ply        int    `json:"ply"`
	MoveNumber int    `json:"move_number"`
	Side       string `json:"side"` // "W" or "B"
	Move       string `json:"move"`
	MoveUCI    string `json:"move_uci"`
	Clock      string `json:"clock,omitempty"`

	BestMove     string             `json:"best_move,omitempty"`
	BestMoveEval *float64           `json:"best_move_eval"`
	MateIn       *int               `json:"mate_in"`
	TopMoves     []oracle.Candidate `json:"top_moves"`
	MoveRank     *int               `json:"move_rank"`
	MoveEval     *float64           `json:"move_eval"`
	// MoveLoss is nil whenever MateIn is set.
	MoveLoss *float64 `json:"move_loss"`
	// MoveCorr is reserved and always nil.
	MoveCorr *float64 `json:"move_corr"`

	// Err describes why the ply could not be evaluated.
	Err string `json:"error,omitempty"`
}

// Result is the analysis of one game.
type Result struct {
	Key       CacheKey
	Rows      []Row
	State     State
	FromCache bool
}

// PlyError is the failure of a single ply.
type PlyError struct {
	Ply int
	Err string
}

func (e PlyError) Error() string {
	return fmt.Sprintf("ply %d: %s", e.Ply, e.Err)
}

// Failed lists the plies that could not be evaluated.
func (r *Result) Failed() []PlyError {
	var out []PlyError
	for _, row := range r.Rows {
		if row.Err != "" {
			out = append(out, PlyError{Ply: row.Ply, Err: row.Err})
		}
	}
	return out
}

// CacheKey identifies a stored analysis.
type CacheKey struct {
	Identifier string
	White      string
	Black      string
	Result     string
	Depth      int
}

// KeyFor returns the cache key of g analysed at depth.
func KeyFor(g *pgn.Game, depth int) CacheKey {
	return CacheKey{
		Identifier: g.Identifier(),
		White:      g.White(),
		Black:      g.Black(),
		Result:     g.Result(),
		Depth:      depth,
	}
}

var filenameReplacer = strings.NewReplacer("/", "-", `\`, "-")

// Filename returns "<identifier>_<white>_<black>_<result>_<depth>.table",
// with path separators in any component replaced by "-".
func (k CacheKey) Filename() string {
	parts := []string{k.Identifier, k.White, k.Black, k.Result, fmt.Sprint(k.Depth)}
	for i, p := range parts {
		parts[i] = filenameReplacer.Replace(p)
	}
	return strings.Join(parts, "_") + ".table"
}
