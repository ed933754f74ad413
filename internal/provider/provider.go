// Package provider defines the remote game-archive source.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when the provider cannot be reached or
	// answered with a server error.
	ErrUnavailable = errors.New("provider: unavailable")

	// ErrRateLimited is returned when the provider throttled the request.
	ErrRateLimited = errors.New("provider: rate limited")

	// ErrUnknownPlayer is returned when the username does not exist.
	ErrUnknownPlayer = errors.New("provider: unknown player")
)

// Provider fetches a player's game history.
type Provider interface {
	// Archives returns the months for which the player has games, as
	// "YYYY-MM" strings in the order the provider lists them.
	Archives(ctx context.Context, username string) ([]string, error)

	// MonthPGN returns the concatenated PGN text of every game the player
	// finished in the given month.
	MonthPGN(ctx context.Context, username string, year, month int) (string, error)

	// Stats returns the player's rating records.
	Stats(ctx context.Context, username string) (*PlayerStats, error)
}

// Record is the win/loss/draw tally for one rating category.
type Record struct {
	Win  int `json:"win"`
	Loss int `json:"loss"`
	Draw int `json:"draw"`
}

// Total returns the number of games in the record.
func (r Record) Total() int {
	return r.Win + r.Loss + r.Draw
}

// PlayerStats holds a player's records keyed by rating category
// (e.g. "chess_blitz", "chess_daily").
type PlayerStats struct {
	Records map[string]Record
}

// GameCount sums the games across every rating category.
func (s *PlayerStats) GameCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, r := range s.Records {
		n += r.Total()
	}
	return n
}
