// Package fakeprovider is an in-memory provider.Provider for tests and
// offline runs.
package fakeprovider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/discochess/archivist/internal/provider"
)

// Compile-time check that Provider implements provider.Provider.
var _ provider.Provider = (*Provider)(nil)

// Provider serves canned archives. Failures can be scripted per call.
type Provider struct {
	mu       sync.Mutex
	months   map[string]map[string]string // username -> "YYYY-MM" -> pgn
	stats    map[string]*provider.PlayerStats
	failures map[string][]error // call key -> errors returned in order
	calls    map[string]int
}

// New returns an empty Provider.
func New() *Provider {
	return &Provider{
		months:   make(map[string]map[string]string),
		stats:    make(map[string]*provider.PlayerStats),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

// AddMonth registers the PGN text served for a player's month.
func (p *Provider) AddMonth(username, month, pgn string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.months[username] == nil {
		p.months[username] = make(map[string]string)
	}
	p.months[username][month] = pgn
}

// SetStats registers the stats served for a player.
func (p *Provider) SetStats(username string, stats *provider.PlayerStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats[username] = stats
}

// FailArchives makes the next Archives calls for username return errs in order.
func (p *Provider) FailArchives(username string, errs ...error) {
	p.fail(archivesKey(username), errs)
}

// FailMonth makes the next MonthPGN calls for the month return errs in order.
func (p *Provider) FailMonth(username, month string, errs ...error) {
	p.fail(monthKey(username, month), errs)
}

// MonthCalls reports how many times MonthPGN was called for the month.
func (p *Provider) MonthCalls(username, month string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[monthKey(username, month)]
}

// Archives returns the registered months in ascending order.
func (p *Provider) Archives(ctx context.Context, username string) ([]string, error) {
	if err := p.next(ctx, archivesKey(username)); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	months, ok := p.months[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnknownPlayer, username)
	}
	out := make([]string, 0, len(months))
	for m := range months {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// MonthPGN returns the registered PGN text for the month.
func (p *Provider) MonthPGN(ctx context.Context, username string, year, month int) (string, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	if err := p.next(ctx, monthKey(username, key)); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	pgn, ok := p.months[username][key]
	if !ok {
		return "", fmt.Errorf("%w: %s %s", provider.ErrUnknownPlayer, username, key)
	}
	return pgn, nil
}

// Stats returns the registered stats.
func (p *Provider) Stats(ctx context.Context, username string) (*provider.PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnknownPlayer, username)
	}
	return s, nil
}

func (p *Provider) fail(key string, errs []error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[key] = append(p.failures[key], errs...)
}

// next records a call and pops the next scripted failure, if any.
func (p *Provider) next(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[key]++
	if errs := p.failures[key]; len(errs) > 0 {
		p.failures[key] = errs[1:]
		return errs[0]
	}
	return nil
}

func archivesKey(username string) string { return "archives/" + username }

func monthKey(username, month string) string { return "month/" + username + "/" + month }
