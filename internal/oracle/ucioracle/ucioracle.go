// Package ucioracle implements oracle.Evaluator on top of a UCI engine
// process such as Stockfish.
package ucioracle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/freeeve/uci"
	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/discochess/archivist/internal/oracle"
)

const (
	// DefaultDepth is the fixed search depth of every evaluation.
	DefaultDepth = 16

	// DefaultMultiPV is the number of principal variations searched.
	DefaultMultiPV = 5

	// DefaultHashMB is the engine hash table size.
	DefaultHashMB = 64
)

// Compile-time check that Evaluator implements oracle.Evaluator.
var _ oracle.Evaluator = (*Evaluator)(nil)

// Config configures the engine process.
type Config struct {
	// Path is the engine executable.
	Path    string
	Depth   int
	MultiPV int
	HashMB  int
	Threads int
	Logger  *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.Depth <= 0 {
		c.Depth = DefaultDepth
	}
	if c.MultiPV <= 0 {
		c.MultiPV = DefaultMultiPV
	}
	if c.HashMB <= 0 {
		c.HashMB = DefaultHashMB
	}
	if c.Threads <= 0 {
		c.Threads = 1
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Evaluator drives one engine process.
type Evaluator struct {
	cfg    Config
	engine *uci.Engine

	// mu guards poisoned and closed; engine calls are never concurrent.
	mu       sync.Mutex
	poisoned bool
	closed   bool

	blackToMove bool
}

// New starts the engine at cfg.Path.
func New(cfg Config) (*Evaluator, error) {
	cfg = cfg.withDefaults()
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: engine path required", oracle.ErrOracle)
	}

	engine, err := uci.NewEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", oracle.ErrOracle, cfg.Path, err)
	}

	opts := uci.Options{
		Hash:    cfg.HashMB,
		Threads: cfg.Threads,
		MultiPV: cfg.MultiPV,
		Ponder:  false,
		OwnBook: false,
	}
	if err := engine.SetOptions(opts); err != nil {
		engine.Close()
		return nil, fmt.Errorf("%w: setting options: %v", oracle.ErrOracle, err)
	}

	cfg.Logger.Debug("engine started",
		zap.String("path", cfg.Path),
		zap.Int("depth", cfg.Depth),
		zap.Int("multipv", cfg.MultiPV),
	)
	return &Evaluator{cfg: cfg, engine: engine}, nil
}

// Factory returns an oracle.Factory starting engines with cfg.
func Factory(cfg Config) oracle.Factory {
	return func(ctx context.Context) (oracle.Evaluator, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return New(cfg)
	}
}

// SetPosition replays uciMoves from the starting position and loads the
// resulting FEN into the engine.
func (e *Evaluator) SetPosition(ctx context.Context, uciMoves []string) error {
	if err := e.usable(); err != nil {
		return err
	}
	fen, blackToMove, err := FEN(uciMoves)
	if err != nil {
		return err
	}
	err = e.call(ctx, func() error {
		return e.engine.SetFEN(fen)
	})
	if err != nil {
		return err
	}
	e.blackToMove = blackToMove
	return nil
}

// line is one principal variation reported by the engine.
type line struct {
	rank  int
	move  string
	score int
	mate  bool
}

// TopMoves searches the current position and returns up to k lines, best
// first. k is capped by the configured MultiPV.
func (e *Evaluator) TopMoves(ctx context.Context, k int) ([]oracle.Candidate, error) {
	lines, err := e.search(ctx)
	if err != nil {
		return nil, err
	}
	if k < len(lines) {
		lines = lines[:k]
	}
	out := make([]oracle.Candidate, 0, len(lines))
	for _, l := range lines {
		if l.move == "" {
			continue
		}
		out = append(out, oracle.Candidate{Move: l.move, Score: e.score(l)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no candidate moves", oracle.ErrOracle)
	}
	return out, nil
}

// Evaluate returns the score of the engine's best line.
func (e *Evaluator) Evaluate(ctx context.Context) (oracle.Score, error) {
	lines, err := e.search(ctx)
	if err != nil {
		return oracle.Score{}, err
	}
	return e.score(lines[0]), nil
}

// Close stops the engine process.
func (e *Evaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.engine.Close()
	return nil
}

// search runs a fixed-depth search and returns the deepest lines ordered by
// MultiPV rank.
func (e *Evaluator) search(ctx context.Context) ([]line, error) {
	if err := e.usable(); err != nil {
		return nil, err
	}
	var lines []line
	err := e.call(ctx, func() error {
		results, err := e.engine.GoDepth(e.cfg.Depth, uci.HighestDepthOnly)
		if err != nil {
			return err
		}
		for _, r := range results.Results {
			l := line{rank: r.MultiPV, score: r.Score, mate: r.Mate}
			if len(r.BestMoves) > 0 {
				l.move = r.BestMoves[0]
			}
			lines = append(lines, l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no results from engine", oracle.ErrOracle)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].rank < lines[j].rank
	})
	return lines, nil
}

// score converts an engine line to White's point of view.
func (e *Evaluator) score(l line) oracle.Score {
	v := l.score
	if e.blackToMove {
		v = -v
	}
	if l.mate {
		return oracle.MateIn(v)
	}
	return oracle.Cp(v)
}

// call runs fn, abandoning it when ctx expires. An abandoned call leaves
// the engine mid-search, so the evaluator is poisoned and the process is
// stopped.
func (e *Evaluator) call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			e.poison()
			return fmt.Errorf("%w: %v", oracle.ErrOracle, err)
		}
		return nil
	case <-ctx.Done():
		e.poison()
		go func() {
			<-done
			e.Close()
		}()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", oracle.ErrTimeout, ctx.Err())
		}
		return ctx.Err()
	}
}

func (e *Evaluator) usable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.poisoned || e.closed {
		return oracle.ErrPoisoned
	}
	return nil
}

func (e *Evaluator) poison() {
	e.mu.Lock()
	e.poisoned = true
	e.mu.Unlock()
}

// FEN replays uciMoves from the starting position and returns the FEN of
// the resulting position and whether Black is to move.
func FEN(uciMoves []string) (string, bool, error) {
	pos := chess.StartingPosition()
	notation := chess.UCINotation{}
	for i, s := range uciMoves {
		m, err := notation.Decode(pos, s)
		if err != nil {
			return "", false, fmt.Errorf("%w: move %d %q: %v", oracle.ErrOracle, i+1, s, err)
		}
		pos = pos.Update(m)
	}
	return pos.String(), pos.Turn() == chess.Black, nil
}
