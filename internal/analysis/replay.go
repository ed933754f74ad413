package analysis

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/discochess/archivist/internal/pgn"
)

// ply is one half-move resolved against the board.
type ply struct {
	row Row
	// terminal is set when the move ends the game on the board; its
	// evaluation is then known without asking the engine.
	terminal *float64
}

// replay converts g's SAN moves to UCI and flags checkmates and stalemates.
func replay(g *pgn.Game, fill float64) ([]ply, []string, error) {
	if fen := g.Header("FEN"); fen != "" {
		return nil, nil, &pgn.ParseError{Reason: "games from a set-up position are not supported"}
	}

	pos := chess.StartingPosition()
	san := chess.AlgebraicNotation{}
	uci := chess.UCINotation{}

	plies := make([]ply, len(g.Moves))
	moves := make([]string, len(g.Moves))
	for i, m := range g.Moves {
		move, err := san.Decode(pos, m.SAN)
		if err != nil {
			return nil, nil, &pgn.ParseError{
				Reason: fmt.Sprintf("illegal move %d. %s: %v", i/2+1, m.SAN, err),
			}
		}
		moves[i] = uci.Encode(pos, move)
		mover := pos.Turn()
		pos = pos.Update(move)

		side := "W"
		if i%2 == 1 {
			side = "B"
		}
		plies[i] = ply{row: Row{
			Ply:        i,
			MoveNumber: i/2 + 1,
			Side:       side,
			Move:       m.SAN,
			MoveUCI:    moves[i],
			Clock:      m.Clock,
		}}

		switch pos.Status() {
		case chess.Checkmate:
			v := fill
			if mover == chess.Black {
				v = -fill
			}
			plies[i].terminal = &v
		case chess.Stalemate:
			v := 0.0
			plies[i].terminal = &v
		}
	}
	return plies, moves, nil
}
