package pgn

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headerRe = regexp.MustCompile(`\[(\S+) "(.*?)"\]`)
	clockRe  = regexp.MustCompile(`(\d+)\.+ ([a-zA-Z0-9+#=/-]+)(?: \{\[%clk ([0-9:.]+)\]\})?`)

	commentRe   = regexp.MustCompile(`\{[^}]*\}|;[^\n]*`)
	moveNumRe   = regexp.MustCompile(`^\d+\.+`)
	annotations = "!?"
)

var resultTokens = map[string]bool{
	"1-0":     true,
	"0-1":     true,
	"1/2-1/2": true,
	"*":       true,
}

type block struct {
	start, end int // line indices of the first and last non-blank line
	headers    []string
	moves      []string
}

// Parse splits text into games. A new game starts at a tag line that
// follows movetext. Blocks that cannot be parsed are reported in the error
// slice and skipped; the remaining games are still returned.
func Parse(text string) ([]*Game, []error) {
	var (
		games  []*Game
		errs   []error
		cur    *block
		blocks []*block
	)

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		isTag := strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "[%")
		if cur == nil || (isTag && len(cur.moves) > 0) {
			cur = &block{start: i}
			blocks = append(blocks, cur)
		}
		cur.end = i
		if isTag && len(cur.moves) == 0 {
			cur.headers = append(cur.headers, trimmed)
		} else {
			cur.moves = append(cur.moves, trimmed)
		}
	}

	for idx, b := range blocks {
		g, err := parseBlock(idx, b, lines)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		games = append(games, g)
	}
	return games, errs
}

func parseBlock(idx int, b *block, lines []string) (*Game, error) {
	fail := func(reason string) error {
		return &ParseError{Index: idx, Line: b.start + 1, Reason: reason}
	}

	if len(b.headers) == 0 {
		return nil, fail("movetext without tag pairs")
	}

	headers := make(map[string]string, len(b.headers))
	for _, line := range b.headers {
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fail("malformed tag pair " + strconv.Quote(line))
		}
		headers[m[1]] = m[2]
	}

	if len(b.moves) == 0 {
		return nil, fail("missing movetext")
	}
	movetext := strings.Join(b.moves, " ")
	if strings.Count(movetext, "{") != strings.Count(movetext, "}") {
		return nil, fail("unterminated comment")
	}

	moves, ok := parseMoves(movetext)
	if !ok {
		return nil, fail("unreadable movetext")
	}

	raw := strings.Join(lines[b.start:b.end+1], "\n") + "\n"
	return &Game{Headers: headers, Moves: moves, Raw: raw}, nil
}

// parseMoves extracts moves from movetext. Clocked movetext, as served by
// chess.com, numbers every half-move and is matched directly; anything else
// is tokenized.
func parseMoves(movetext string) ([]Move, bool) {
	if strings.Contains(movetext, "[%clk") {
		matches := clockRe.FindAllStringSubmatch(movetext, -1)
		if len(matches) > 0 {
			moves := make([]Move, 0, len(matches))
			for _, m := range matches {
				n, _ := strconv.Atoi(m[1])
				moves = append(moves, Move{Number: n, SAN: m[2], Clock: m[3]})
			}
			return moves, true
		}
	}
	return tokenize(movetext)
}

func tokenize(movetext string) ([]Move, bool) {
	text := commentRe.ReplaceAllString(movetext, " ")
	text = stripVariations(text)

	var moves []Move
	for _, tok := range strings.Fields(text) {
		if resultTokens[tok] || strings.HasPrefix(tok, "$") {
			continue
		}
		tok = moveNumRe.ReplaceAllString(tok, "")
		tok = strings.TrimRight(tok, annotations)
		if tok == "" {
			continue
		}
		if !isSAN(tok) {
			return nil, false
		}
		moves = append(moves, Move{Number: len(moves)/2 + 1, SAN: tok})
	}
	return moves, true
}

func stripVariations(s string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isSAN(tok string) bool {
	for _, r := range tok {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("+#=-", r):
		default:
			return false
		}
	}
	return true
}
