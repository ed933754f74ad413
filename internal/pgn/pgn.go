// Package pgn splits raw archive text into games and extracts their tag
// pairs, moves and clock annotations.
package pgn

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Move is one half-move as it appears in the movetext.
type Move struct {
	// Number is the full-move number the move belongs to.
	Number int
	// SAN is the move in standard algebraic notation.
	SAN string
	// Clock is the remaining time annotation, empty when absent.
	Clock string
}

// Game is one parsed game record.
type Game struct {
	Headers map[string]string
	Moves   []Move
	// Raw is the game's text exactly as it appeared in the archive.
	Raw string
}

// Header returns the value of a tag pair, or "" when absent.
func (g *Game) Header(name string) string {
	return g.Headers[name]
}

// White returns the White tag.
func (g *Game) White() string { return g.Headers["White"] }

// Black returns the Black tag.
func (g *Game) Black() string { return g.Headers["Black"] }

// Result returns the Result tag.
func (g *Game) Result() string { return g.Headers["Result"] }

// SANs returns the moves in standard algebraic notation.
func (g *Game) SANs() []string {
	out := make([]string, len(g.Moves))
	for i, m := range g.Moves {
		out[i] = m.SAN
	}
	return out
}

// Identifier returns a key that is stable across re-downloads of the same
// game: the last path segment of the Link tag, else of a game URL in the
// Site tag, else a digest of the raw text.
func (g *Game) Identifier() string {
	if id := lastSegment(g.Headers["Link"]); id != "" {
		return id
	}
	if site := g.Headers["Site"]; strings.Contains(site, "/game/") {
		if id := lastSegment(site); id != "" {
			return id
		}
	}
	h := fnv.New64a()
	h.Write([]byte(g.Raw))
	return fmt.Sprintf("fnv-%016x", h.Sum64())
}

func lastSegment(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		return ""
	}
	return u[strings.LastIndex(u, "/")+1:]
}

// ParseError describes a game block that could not be parsed.
type ParseError struct {
	// Index is the position of the block within the parsed text.
	Index int
	// Line is the 1-based line the block starts on, or 0 when the error
	// was found after parsing.
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "pgn: " + e.Reason
	}
	return fmt.Sprintf("pgn: game %d (line %d): %s", e.Index, e.Line, e.Reason)
}
