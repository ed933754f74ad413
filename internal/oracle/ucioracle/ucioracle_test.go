package ucioracle

import (
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/discochess/archivist/internal/oracle"
)

func TestFEN(t *testing.T) {
	tests := []struct {
		name        string
		moves       []string
		wantPrefix  string
		blackToMove bool
	}{
		{"start", nil, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq", false},
		{"after e4", []string{"e2e4"}, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq", true},
		{"after e4 e5", []string{"e2e4", "e7e5"}, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fen, black, err := FEN(tt.moves)
			if err != nil {
				t.Fatalf("FEN() error = %v", err)
			}
			if !strings.HasPrefix(fen, tt.wantPrefix) {
				t.Errorf("FEN() = %q, want prefix %q", fen, tt.wantPrefix)
			}
			if black != tt.blackToMove {
				t.Errorf("FEN() blackToMove = %v, want %v", black, tt.blackToMove)
			}
		})
	}
}

func TestFEN_IllegalMove(t *testing.T) {
	if _, _, err := FEN([]string{"e2e5"}); !errors.Is(err, oracle.ErrOracle) {
		t.Errorf("FEN() error = %v, want ErrOracle", err)
	}
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, oracle.ErrOracle) {
		t.Errorf("New() error = %v, want ErrOracle", err)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Path: "stockfish"}.withDefaults()
	if cfg.Depth != DefaultDepth || cfg.MultiPV != DefaultMultiPV || cfg.HashMB != DefaultHashMB || cfg.Threads != 1 {
		t.Errorf("withDefaults() = %+v", cfg)
	}
	if cfg.Logger == nil {
		t.Error("withDefaults() left Logger nil")
	}
}

func TestScore_BlackToMove(t *testing.T) {
	e := &Evaluator{blackToMove: true}
	got := e.score(line{score: 120})
	if got.Centipawns == nil || *got.Centipawns != -120 {
		t.Errorf("score() = %v, want -120 from White's side", got)
	}
	got = e.score(line{score: 3, mate: true})
	if got.Mate == nil || *got.Mate != -3 {
		t.Errorf("score() = %v, want #-3", got)
	}
}

// TestEvaluator_Stockfish runs against a real engine when one is installed.
func TestEvaluator_Stockfish(t *testing.T) {
	path, err := exec.LookPath("stockfish")
	if err != nil {
		t.Skip("stockfish not installed")
	}
	e, err := New(Config{Path: path, Depth: 8})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer e.Close()

	ctx := t.Context()
	// Fool's mate setup: White to move is lost after 1. f3 e5 2. g4 Qh4#.
	if err := e.SetPosition(ctx, []string{"f2f3", "e7e5", "g2g4"}); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	top, err := e.TopMoves(ctx, 3)
	if err != nil {
		t.Fatalf("TopMoves() error = %v", err)
	}
	if top[0].Move != "d8h4" || top[0].Mate == nil || *top[0].Mate >= 0 {
		t.Errorf("TopMoves()[0] = %v, want d8h4 mating for Black", top[0])
	}
}
