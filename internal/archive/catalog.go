package archive

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/archivist/internal/provider"
	"github.com/discochess/archivist/internal/stats"
)

// CatalogResult is the outcome of listing one player's archive months.
type CatalogResult struct {
	// Months are "YYYY-MM" strings in the order the provider returned them.
	Months []string
	// Err is set when the listing failed; Months is then empty.
	Err error
}

// Catalog lists the months each player has games in.
type Catalog struct {
	provider provider.Provider
	cfg      config
}

// NewCatalog creates a Catalog backed by p.
func NewCatalog(p provider.Provider, opts ...Option) *Catalog {
	cfg := newConfig(opts)
	cfg.logger = cfg.logger.Named("catalog")
	return &Catalog{provider: p, cfg: cfg}
}

// List fetches the archive months of every username concurrently. A failure
// for one username is recorded in its entry and never affects the others.
func (c *Catalog) List(ctx context.Context, usernames []string) map[string]CatalogResult {
	results := make(map[string]CatalogResult, len(usernames))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(c.cfg.concurrency)

	for _, username := range usernames {
		g.Go(func() error {
			res := c.list(ctx, username)
			mu.Lock()
			results[username] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *Catalog) list(ctx context.Context, username string) CatalogResult {
	if err := ValidateUsername(username); err != nil {
		return CatalogResult{Err: err}
	}

	c.cfg.collector.IncCounter(stats.MetricCatalogRequests, 1)
	months, err := c.provider.Archives(ctx, username)
	if err != nil {
		c.cfg.collector.IncCounter(stats.MetricCatalogErrors, 1)
		c.cfg.logger.Warn("listing archives failed",
			zap.String("username", username),
			zap.Error(err),
		)
		return CatalogResult{Err: err}
	}

	c.cfg.logger.Debug("listed archives",
		zap.String("username", username),
		zap.Int("months", len(months)),
	)
	return CatalogResult{Months: months}
}
