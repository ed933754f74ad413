package dataset

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/discochess/archivist/internal/pgn"
)

// ErrNoUsername is returned when Build is called without a focal player.
var ErrNoUsername = errors.New("dataset: username required")

// Build converts games into a dataset relative to username. Games without a
// Termination tag are dropped.
func Build(games []*pgn.Game, username string) (*Dataset, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrNoUsername
	}

	var kept []*pgn.Game
	for _, g := range games {
		if strings.TrimSpace(g.Header(ColumnTermination)) != "" {
			kept = append(kept, g)
		}
	}

	ds := &Dataset{
		Username:    username,
		Text:        make(map[string][]string),
		Dates:       make(map[string][]*time.Time),
		Times:       make(map[string][]*time.Duration),
		Elos:        make(map[string][]*int),
		Categorical: make(map[string]*Categorical),
	}

	typed := make(map[string]bool)
	for _, name := range dateColumns {
		typed[name] = true
		ds.Dates[name] = mapColumn(kept, name, parseDate)
	}
	for _, name := range timeColumns {
		typed[name] = true
		ds.Times[name] = mapColumn(kept, name, parseTime)
	}
	for _, name := range eloColumns {
		typed[name] = true
		ds.Elos[name] = mapColumn(kept, name, parseInt)
	}
	for _, name := range sortedCategoricals {
		typed[name] = true
		values := column(kept, name)
		ds.Categorical[name] = newCategorical(values, sortedLevels(values))
	}
	for _, name := range frequencyCategoricals {
		typed[name] = true
		values := column(kept, name)
		ds.Categorical[name] = newCategorical(values, frequencyLevels(values))
	}
	typed[ColumnResult] = true
	ds.Categorical[ColumnResult] = newCategorical(column(kept, ColumnResult), resultLevels)

	for _, g := range kept {
		for name := range g.Headers {
			if !typed[name] && ds.Text[name] == nil {
				ds.Text[name] = column(kept, name)
			}
		}
	}

	n := len(kept)
	ds.Identifier = make([]string, n)
	ds.PGN = make([]string, n)
	ds.PlayerResult = make([]float64, n)
	ds.PlayerColour = make([]string, n)
	ds.EloDifference = make([]*int, n)
	ds.GameLength = make([]int, n)

	for i, g := range kept {
		ds.Identifier[i] = g.Identifier()
		ds.PGN[i] = g.Raw
		ds.PlayerResult[i] = PlayerResult(g.Header(ColumnTermination), username)
		ds.PlayerColour[i] = PlayerColour(g.White(), username)
		ds.EloDifference[i] = EloDifference(g.White(), g.Black(),
			ds.Elos["WhiteElo"][i], ds.Elos["BlackElo"][i], username)
		ds.GameLength[i] = len(g.Moves)
	}
	return ds, nil
}

// PlayerResult scores a game for username from its Termination tag: 1 when
// the player is named as the winner, 0.5 for "Game drawn ..." and 0
// otherwise.
func PlayerResult(termination, username string) float64 {
	fields := strings.Fields(termination)
	if len(fields) == 0 {
		return 0
	}
	switch {
	case strings.EqualFold(fields[0], username):
		return 1
	case fields[0] == "Game":
		return 0.5
	default:
		return 0
	}
}

// PlayerColour returns White when username played White, else Black.
func PlayerColour(white, username string) string {
	if strings.EqualFold(white, username) {
		return White
	}
	return Black
}

// EloDifference returns the opponent's rating minus the player's, or nil
// when username played neither side or a rating is missing.
func EloDifference(white, black string, whiteElo, blackElo *int, username string) *int {
	if whiteElo == nil || blackElo == nil {
		return nil
	}
	var d int
	switch {
	case strings.EqualFold(black, username):
		d = *whiteElo - *blackElo
	case strings.EqualFold(white, username):
		d = *blackElo - *whiteElo
	default:
		return nil
	}
	return &d
}

func column(games []*pgn.Game, name string) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Header(name)
	}
	return out
}

func mapColumn[T any](games []*pgn.Game, name string, parse func(string) *T) []*T {
	out := make([]*T, len(games))
	for i, g := range games {
		out[i] = parse(g.Header(name))
	}
	return out
}

func parseDate(s string) *time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func parseTime(s string) *time.Duration {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil
	}
	d := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
	return &d
}

func parseInt(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}
