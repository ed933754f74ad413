package pgn

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const chesscomMonth = `[Event "Live Chess"]
[Site "Chess.com"]
[Date "2024.01.05"]
[White "alice"]
[Black "bob"]
[Result "1-0"]
[ECO "C20"]
[Termination "alice won by checkmate"]
[Link "https://www.chess.com/game/live/98765432"]

1. e4 {[%clk 0:02:59.9]} 1... e5 {[%clk 0:02:58.7]} 2. Qh5 {[%clk 0:02:57.1]} 2... Nc6 {[%clk 0:02:55.0]} 3. Bc4 {[%clk 0:02:54.2]} 3... Nf6 {[%clk 0:02:50.3]} 4. Qxf7# {[%clk 0:02:53.8]} 1-0

[Event "Live Chess"]
[Site "Chess.com"]
[Date "2024.01.06"]
[White "carol"]
[Black "alice"]
[Result "1/2-1/2"]
[Termination "Game drawn by agreement"]
[Link "https://www.chess.com/game/live/98765433"]

1. d4 {[%clk 0:10:00]} 1... d5 {[%clk 0:10:00]} 1/2-1/2
`

func TestParse_ChessComMonth(t *testing.T) {
	games, errs := Parse(chesscomMonth)
	if len(errs) != 0 {
		t.Fatalf("Parse() errors = %v", errs)
	}
	if len(games) != 2 {
		t.Fatalf("Parse() returned %d games, want 2", len(games))
	}

	g := games[0]
	if g.White() != "alice" || g.Black() != "bob" || g.Result() != "1-0" {
		t.Errorf("headers = %v", g.Headers)
	}
	if got := g.Header("Termination"); got != "alice won by checkmate" {
		t.Errorf("Termination = %q", got)
	}

	want := []Move{
		{1, "e4", "0:02:59.9"},
		{1, "e5", "0:02:58.7"},
		{2, "Qh5", "0:02:57.1"},
		{2, "Nc6", "0:02:55.0"},
		{3, "Bc4", "0:02:54.2"},
		{3, "Nf6", "0:02:50.3"},
		{4, "Qxf7#", "0:02:53.8"},
	}
	if !reflect.DeepEqual(g.Moves, want) {
		t.Errorf("Moves = %v, want %v", g.Moves, want)
	}
	if got := g.Identifier(); got != "98765432" {
		t.Errorf("Identifier() = %q, want %q", got, "98765432")
	}
	if !strings.HasPrefix(g.Raw, `[Event "Live Chess"]`) || !strings.HasSuffix(g.Raw, "1-0\n") {
		t.Errorf("Raw = %q, want the full first game", g.Raw)
	}
	if strings.Contains(g.Raw, "carol") {
		t.Error("Raw leaks into the next game")
	}

	if got := games[1].SANs(); !reflect.DeepEqual(got, []string{"d4", "d5"}) {
		t.Errorf("SANs() = %v, want [d4 d5]", got)
	}
}

func TestParse_WithoutClocks(t *testing.T) {
	text := `[Event "Casual"]
[White "a"]
[Black "b"]
[Result "0-1"]

1. f3 e5 {a comment} 2. g4?? (2. e4 Nf6) Qh4# $4 0-1
`
	games, errs := Parse(text)
	if len(errs) != 0 {
		t.Fatalf("Parse() errors = %v", errs)
	}
	want := []Move{{1, "f3", ""}, {1, "e5", ""}, {2, "g4", ""}, {2, "Qh4#", ""}}
	if !reflect.DeepEqual(games[0].Moves, want) {
		t.Errorf("Moves = %v, want %v", games[0].Moves, want)
	}
}

func TestParse_MalformedBlockDoesNotFailBatch(t *testing.T) {
	text := `[Event "ok"]
[Link "https://www.chess.com/game/live/1"]

1. e4 {[%clk 0:01:00]} 1-0

[Event "broken"
[Link "https://www.chess.com/game/live/2"]

1. e4 1-0

[Event "ok too"]
[Link "https://www.chess.com/game/live/3"]

1. d4 {[%clk 0:01:00]} 0-1
`
	games, errs := Parse(text)
	if len(games) != 2 {
		t.Fatalf("Parse() returned %d games, want 2", len(games))
	}
	if games[0].Identifier() != "1" || games[1].Identifier() != "3" {
		t.Errorf("identifiers = %s, %s, want 1, 3", games[0].Identifier(), games[1].Identifier())
	}
	if len(errs) != 1 {
		t.Fatalf("Parse() errors = %v, want 1", errs)
	}
	var pe *ParseError
	if !errors.As(errs[0], &pe) {
		t.Fatalf("error %v is not a *ParseError", errs[0])
	}
	if pe.Index != 1 || pe.Line != 6 {
		t.Errorf("ParseError = %+v, want index 1 at line 6", pe)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"movetext only", "1. e4 e5 1-0\n"},
		{"missing movetext", "[Event \"x\"]\n[White \"a\"]\n"},
		{"unterminated comment", "[Event \"x\"]\n\n1. e4 {oops 1-0\n"},
		{"garbage movetext", "[Event \"x\"]\n\n1. e4 <<>> 1-0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games, errs := Parse(tt.text)
			if len(games) != 0 {
				t.Errorf("Parse() returned %d games, want 0", len(games))
			}
			if len(errs) != 1 {
				t.Fatalf("Parse() errors = %v, want 1", errs)
			}
			var pe *ParseError
			if !errors.As(errs[0], &pe) {
				t.Errorf("error %v is not a *ParseError", errs[0])
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	games, errs := Parse("\n\n")
	if len(games) != 0 || len(errs) != 0 {
		t.Errorf("Parse() = %d games, %v, want nothing", len(games), errs)
	}
}

func TestGame_Identifier(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"link", map[string]string{"Link": "https://www.chess.com/game/daily/555"}, "555"},
		{"link trailing slash", map[string]string{"Link": "https://www.chess.com/game/live/42/"}, "42"},
		{"site game url", map[string]string{"Site": "https://lichess.org/game/abcd1234"}, "abcd1234"},
		{"site without game", map[string]string{"Site": "Chess.com"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Game{Headers: tt.headers, Raw: "raw"}
			got := g.Identifier()
			if tt.want == "" {
				if !strings.HasPrefix(got, "fnv-") || len(got) != len("fnv-")+16 {
					t.Errorf("Identifier() = %q, want fnv digest", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Identifier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGame_Identifier_DigestStable(t *testing.T) {
	a := &Game{Raw: "same text"}
	b := &Game{Raw: "same text"}
	c := &Game{Raw: "other text"}
	if a.Identifier() != b.Identifier() {
		t.Error("Identifier() differs for identical raw text")
	}
	if a.Identifier() == c.Identifier() {
		t.Error("Identifier() collides for different raw text")
	}
}
