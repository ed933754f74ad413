// Package fakeoracle provides a deterministic oracle.Evaluator for tests
// and engine-less dry runs.
package fakeoracle

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/notnil/chess"

	"github.com/discochess/archivist/internal/oracle"
)

// TopFunc answers TopMoves for the position reached by moves.
type TopFunc func(moves []string, k int) ([]oracle.Candidate, error)

// EvalFunc answers Evaluate for the position reached by moves.
type EvalFunc func(moves []string) (oracle.Score, error)

// Oracle holds the scripted behaviour shared by every Evaluator it creates.
type Oracle struct {
	top   TopFunc
	eval  EvalFunc
	delay func(moves []string) time.Duration

	created atomic.Int64
	closed  atomic.Int64
	tops    atomic.Int64
	evals   atomic.Int64
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithTopMoves overrides the TopMoves answers.
func WithTopMoves(fn TopFunc) Option {
	return func(o *Oracle) { o.top = fn }
}

// WithEvaluate overrides the Evaluate answers.
func WithEvaluate(fn EvalFunc) Option {
	return func(o *Oracle) { o.eval = fn }
}

// WithDelay makes calls for matching positions take d. Calls honour the
// context, so a delay past the deadline produces oracle.ErrTimeout.
func WithDelay(fn func(moves []string) time.Duration) Option {
	return func(o *Oracle) { o.delay = fn }
}

// New returns an Oracle. Without options it ranks legal moves
// alphabetically and scores positions by ply count, which is enough for a
// reproducible dry run.
func New(opts ...Option) *Oracle {
	o := &Oracle{top: LegalMoves, eval: PlyEval}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Factory returns an oracle.Factory producing evaluators backed by o.
func (o *Oracle) Factory() oracle.Factory {
	return func(ctx context.Context) (oracle.Evaluator, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o.created.Add(1)
		return &Evaluator{oracle: o}, nil
	}
}

// Created reports how many evaluators were created.
func (o *Oracle) Created() int { return int(o.created.Load()) }

// Closed reports how many evaluators were closed.
func (o *Oracle) Closed() int { return int(o.closed.Load()) }

// Calls reports how many TopMoves and Evaluate calls were made.
func (o *Oracle) Calls() (top, eval int) {
	return int(o.tops.Load()), int(o.evals.Load())
}

// Evaluator is a single fake engine handle.
type Evaluator struct {
	oracle *Oracle

	mu       sync.Mutex
	moves    []string
	poisoned bool
	closed   bool
}

// Compile-time check that Evaluator implements oracle.Evaluator.
var _ oracle.Evaluator = (*Evaluator)(nil)

// SetPosition stores the move list.
func (e *Evaluator) SetPosition(ctx context.Context, uciMoves []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.poisoned || e.closed {
		return oracle.ErrPoisoned
	}
	e.moves = append(e.moves[:0], uciMoves...)
	return nil
}

// TopMoves returns the scripted candidates.
func (e *Evaluator) TopMoves(ctx context.Context, k int) ([]oracle.Candidate, error) {
	moves, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	e.oracle.tops.Add(1)
	c, err := e.oracle.top(moves, k)
	if err != nil {
		return nil, e.fail(err)
	}
	if len(c) > k {
		c = c[:k]
	}
	return c, nil
}

// Evaluate returns the scripted score.
func (e *Evaluator) Evaluate(ctx context.Context) (oracle.Score, error) {
	moves, err := e.begin(ctx)
	if err != nil {
		return oracle.Score{}, err
	}
	e.oracle.evals.Add(1)
	s, err := e.oracle.eval(moves)
	if err != nil {
		return oracle.Score{}, e.fail(err)
	}
	return s, nil
}

// Close marks the evaluator closed.
func (e *Evaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		e.oracle.closed.Add(1)
	}
	return nil
}

// begin checks the handle and applies the scripted delay.
func (e *Evaluator) begin(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	if e.poisoned || e.closed {
		e.mu.Unlock()
		return nil, oracle.ErrPoisoned
	}
	moves := append([]string(nil), e.moves...)
	e.mu.Unlock()

	if e.oracle.delay != nil {
		if d := e.oracle.delay(moves); d > 0 {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				e.fail(nil)
				return nil, fmt.Errorf("%w: %v", oracle.ErrTimeout, ctx.Err())
			}
		}
	}
	return moves, nil
}

// fail poisons the handle, as a real engine would be after an error.
func (e *Evaluator) fail(err error) error {
	e.mu.Lock()
	e.poisoned = true
	e.mu.Unlock()
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", oracle.ErrOracle, err)
}

// LegalMoves ranks the legal moves of the position alphabetically by UCI
// string, scoring them 50, 40, 30... centipawns from the mover's side.
func LegalMoves(moves []string, k int) ([]oracle.Candidate, error) {
	pos, err := replay(moves)
	if err != nil {
		return nil, err
	}
	notation := chess.UCINotation{}
	var legal []string
	for _, m := range pos.ValidMoves() {
		legal = append(legal, notation.Encode(pos, m))
	}
	sort.Strings(legal)
	if len(legal) > k {
		legal = legal[:k]
	}

	sign := 1
	if pos.Turn() == chess.Black {
		sign = -1
	}
	out := make([]oracle.Candidate, len(legal))
	for i, m := range legal {
		out[i] = oracle.Candidate{Move: m, Score: oracle.Cp(sign * (50 - 10*i))}
	}
	return out, nil
}

// PlyEval scores a position as a small White edge that shrinks with every
// ply played.
func PlyEval(moves []string) (oracle.Score, error) {
	if _, err := replay(moves); err != nil {
		return oracle.Score{}, err
	}
	return oracle.Cp(25 - len(moves)), nil
}

func replay(moves []string) (*chess.Position, error) {
	pos := chess.StartingPosition()
	notation := chess.UCINotation{}
	for _, s := range moves {
		m, err := notation.Decode(pos, s)
		if err != nil {
			return nil, fmt.Errorf("replaying %s: %w", strings.Join(moves, " "), err)
		}
		pos = pos.Update(m)
	}
	return pos, nil
}
