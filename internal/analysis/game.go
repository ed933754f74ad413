package analysis

import (
	"context"
	"sync"

	"github.com/discochess/archivist/internal/pgn"
)

// Game is a parsed game whose analysis is computed on first use.
type Game struct {
	engine *Engine
	game   *pgn.Game

	mu     sync.Mutex
	state  State
	result *Result
}

// Game wraps g for lazy analysis by e.
func (e *Engine) Game(g *pgn.Game) *Game {
	return &Game{engine: e, game: g}
}

// PGN returns the underlying game.
func (g *Game) PGN() *pgn.Game { return g.game }

// State reports the analysis state.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Ensure returns the analysis, computing it on the first call. Failed
// analyses are not kept, so a later call tries again.
func (g *Game) Ensure(ctx context.Context) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.result != nil {
		return g.result, nil
	}

	g.state = StateEvaluating
	res, err := g.engine.Analyze(ctx, g.game)
	if err != nil {
		g.state = StateFailed
		return res, err
	}
	g.state = res.State
	g.result = res
	return res, nil
}

// Invalidate drops the computed analysis. The cache entry is kept.
func (g *Game) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.result = nil
	g.state = StateUnanalyzed
}
