// Package oracle defines the position evaluator the analysis engine drives.
// Implementations wrap an external engine process; each instance holds one
// position at a time and must not be shared between goroutines.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrOracle is returned when the engine failed to answer.
	ErrOracle = errors.New("oracle: evaluation failed")

	// ErrTimeout is returned when a call did not finish before its deadline.
	ErrTimeout = errors.New("oracle: timeout")

	// ErrPoisoned is returned by every call after a timeout or engine crash.
	// The evaluator must be closed and replaced.
	ErrPoisoned = errors.New("oracle: evaluator unusable")
)

// Score is an evaluation from White's point of view. Exactly one of
// Centipawns and Mate is set.
type Score struct {
	Centipawns *int `json:"cp,omitempty"`
	// Mate is the number of moves to mate; negative when Black mates.
	Mate *int `json:"mate,omitempty"`
}

// Cp returns a centipawn score.
func Cp(v int) Score { return Score{Centipawns: &v} }

// MateIn returns a mate score.
func MateIn(n int) Score { return Score{Mate: &n} }

// IsMate reports whether the score is a forced mate.
func (s Score) IsMate() bool { return s.Mate != nil }

// Negate flips the point of view of the score.
func (s Score) Negate() Score {
	switch {
	case s.Mate != nil:
		return MateIn(-*s.Mate)
	case s.Centipawns != nil:
		return Cp(-*s.Centipawns)
	}
	return s
}

func (s Score) String() string {
	switch {
	case s.Mate != nil:
		return fmt.Sprintf("#%d", *s.Mate)
	case s.Centipawns != nil:
		return fmt.Sprintf("%+.2f", float64(*s.Centipawns)/100)
	}
	return "-"
}

// Candidate is one of the engine's preferred moves in a position.
type Candidate struct {
	// Move is in UCI notation (e.g. "e2e4").
	Move string `json:"move"`
	Score
}

// Evaluator evaluates chess positions.
type Evaluator interface {
	// SetPosition sets the position reached from the start by playing
	// uciMoves.
	SetPosition(ctx context.Context, uciMoves []string) error

	// TopMoves returns up to k candidates for the current position, best first.
	TopMoves(ctx context.Context, k int) ([]Candidate, error)

	// Evaluate returns the score of the current position.
	Evaluate(ctx context.Context) (Score, error)

	// Close releases the engine.
	Close() error
}

// Factory creates a new Evaluator.
type Factory func(ctx context.Context) (Evaluator, error)

func (c Candidate) String() string {
	return c.Move + " (" + c.Score.String() + ")"
}
