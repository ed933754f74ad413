// Package dataset turns a player's parsed games into a columnar table with
// typed, categorical and player-relative derived columns.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/discochess/archivist/internal/pgn"
)

// Column names read by downstream consumers.
const (
	ColumnWhite         = "White"
	ColumnBlack         = "Black"
	ColumnECO           = "ECO"
	ColumnResult        = "Result"
	ColumnTermination   = "Termination"
	ColumnPlayerResult  = "player_result"
	ColumnPlayerColour  = "player_colour"
	ColumnEloDifference = "elo_difference"
	ColumnGameLength    = "game_length"
	ColumnUsername      = "Username"
	ColumnIdentifier    = "Identifier"
)

// Colours reported in the player_colour column.
const (
	White = "White"
	Black = "Black"
)

var (
	// ErrUnknownColumn is returned for a column the dataset does not have.
	ErrUnknownColumn = errors.New("dataset: unknown column")

	// ErrGameNotFound is returned when no row has the requested identifier.
	ErrGameNotFound = errors.New("dataset: game not found")
)

var (
	dateColumns = []string{"UTCDate", "Date", "EndDate"}
	timeColumns = []string{"UTCTime", "StartTime", "EndTime"}
	eloColumns  = []string{"WhiteElo", "BlackElo"}

	// Levels sorted lexically.
	sortedCategoricals = []string{"Event", "Site", "Timezone", "TimeControl"}
	// Levels ordered by descending frequency.
	frequencyCategoricals = []string{"ECO", "ECOUrl"}

	resultLevels = []string{"1-0", "1/2-1/2", "0-1"}
)

const (
	dateLayout = "2006.01.02"
	timeLayout = "15:04:05"
)

// Dataset is one player's games, one row per game. Every column slice has
// Len() entries.
type Dataset struct {
	Username string `json:"username"`

	// Text holds every tag that has no dedicated typed column.
	Text        map[string][]string         `json:"text"`
	Dates       map[string][]*time.Time     `json:"dates"`
	Times       map[string][]*time.Duration `json:"times"`
	Elos        map[string][]*int           `json:"elos"`
	Categorical map[string]*Categorical     `json:"categorical"`

	Identifier []string `json:"identifier"`
	PGN        []string `json:"pgn"`

	PlayerResult  []float64 `json:"player_result"`
	PlayerColour  []string  `json:"player_colour"`
	EloDifference []*int    `json:"elo_difference"`
	GameLength    []int     `json:"game_length"`
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Identifier)
}

// Columns returns every column name, sorted.
func (d *Dataset) Columns() []string {
	names := []string{
		ColumnIdentifier, ColumnPlayerResult, ColumnPlayerColour,
		ColumnEloDifference, ColumnGameLength, ColumnUsername,
	}
	for name := range d.Text {
		names = append(names, name)
	}
	for name := range d.Dates {
		names = append(names, name)
	}
	for name := range d.Times {
		names = append(names, name)
	}
	for name := range d.Elos {
		names = append(names, name)
	}
	for name := range d.Categorical {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strings renders any column as strings. Missing values render as "".
func (d *Dataset) Strings(column string) ([]string, error) {
	n := d.Len()
	out := make([]string, n)
	switch column {
	case ColumnIdentifier:
		copy(out, d.Identifier)
	case ColumnPlayerColour:
		copy(out, d.PlayerColour)
	case ColumnUsername:
		for i := range out {
			out[i] = d.Username
		}
	case ColumnPlayerResult:
		for i, v := range d.PlayerResult {
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	case ColumnGameLength:
		for i, v := range d.GameLength {
			out[i] = strconv.Itoa(v)
		}
	case ColumnEloDifference:
		for i, v := range d.EloDifference {
			out[i] = formatInt(v)
		}
	default:
		if col, ok := d.Text[column]; ok {
			copy(out, col)
		} else if col, ok := d.Categorical[column]; ok {
			for i := range out {
				out[i] = col.Value(i)
			}
		} else if col, ok := d.Elos[column]; ok {
			for i, v := range col {
				out[i] = formatInt(v)
			}
		} else if col, ok := d.Dates[column]; ok {
			for i, v := range col {
				if v != nil {
					out[i] = v.Format(dateLayout)
				}
			}
		} else if col, ok := d.Times[column]; ok {
			for i, v := range col {
				if v != nil {
					out[i] = v.String()
				}
			}
		} else {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
		}
	}
	return out, nil
}

// Game re-parses the stored record of the game with the given identifier.
func (d *Dataset) Game(id string) (*pgn.Game, error) {
	for i, rowID := range d.Identifier {
		if rowID != id {
			continue
		}
		games, errs := pgn.Parse(d.PGN[i])
		if len(errs) > 0 {
			return nil, errs[0]
		}
		if len(games) != 1 {
			return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
		}
		return games[0], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
