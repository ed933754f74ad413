// Package archive discovers which months of a player's history exist
// remotely and mirrors the missing ones into a store.
package archive

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidUsername is returned for usernames that cannot name a
	// directory in the archive store.
	ErrInvalidUsername = errors.New("archive: invalid username")

	// ErrInvalidMonth is returned for month strings not of the form YYYY-MM.
	ErrInvalidMonth = errors.New("archive: invalid month")
)

// Month identifies one month of one player's history.
type Month struct {
	Username string
	Year     int
	Month    int
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(username, s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Username: username, Year: t.Year(), Month: int(t.Month())}, nil
}

// String renders the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Key returns the store key of the month's raw archive file.
func (m Month) Key() string {
	return MonthKey(m.Username, m.String())
}

// MonthKey returns the store key "<username>/<YYYY-MM>.txt".
func MonthKey(username, month string) string {
	return username + "/" + month + monthExt
}

const monthExt = ".txt"

// ValidateUsername rejects names that are empty or would escape their
// directory.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" ||
		strings.ContainsAny(username, `/\`) ||
		username == "." || username == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return nil
}
