// Package archivist downloads a player's game archive, turns it into a
// tabular dataset and analyses individual games with a chess engine.
//
// Example usage:
//
//	dataDir, err := archivist.WithDataDir("./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := archivist.New(dataDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	report, err := client.Sync(ctx, "hikaru")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ds, err := client.Dataset(ctx, "hikaru", true)
package archivist

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/archivist/internal/analysis"
	"github.com/discochess/archivist/internal/archive"
	"github.com/discochess/archivist/internal/dataset"
	"github.com/discochess/archivist/internal/pgn"
	"github.com/discochess/archivist/internal/provider"
	"github.com/discochess/archivist/internal/provider/chesscom"
	"github.com/discochess/archivist/internal/stats"
	"github.com/discochess/archivist/internal/store"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("archivist: client closed")

	// ErrNoStore indicates no store was provided.
	ErrNoStore = errors.New("archivist: no store provided")

	// ErrNoOracle indicates analysis was requested without an evaluator.
	ErrNoOracle = errors.New("archivist: no oracle configured")
)

// Client ties the archive, dataset and analysis stages together.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	store    store.Store
	cache    store.Store
	provider provider.Provider

	catalog     *archive.Catalog
	coordinator *archive.Coordinator
	builder     *dataset.Builder
	engine      *analysis.Engine

	stats  stats.Collector
	logger *zap.Logger
	closed atomic.Bool
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if cfg.store == nil {
		return nil, ErrNoStore
	}
	if cfg.provider == nil {
		cfg.provider = chesscom.New(chesscom.WithLogger(cfg.logger))
	}

	archiveOpts := []archive.Option{
		archive.WithConcurrency(cfg.concurrency),
		archive.WithStagger(cfg.stagger),
		archive.WithRetryDelay(cfg.retryDelay),
		archive.WithLogger(cfg.logger),
		archive.WithStatsCollector(cfg.stats),
		archive.WithProgress(cfg.progress),
	}

	c := &Client{
		store:       cfg.store,
		cache:       cfg.cache,
		provider:    cfg.provider,
		catalog:     archive.NewCatalog(cfg.provider, archiveOpts...),
		coordinator: archive.NewCoordinator(cfg.provider, cfg.store, archiveOpts...),
		builder: dataset.NewBuilder(cfg.store,
			dataset.WithLogger(cfg.logger),
			dataset.WithStatsCollector(cfg.stats),
		),
		stats:  cfg.stats,
		logger: cfg.logger,
	}

	if cfg.oracle != nil {
		analysisOpts := []analysis.Option{
			analysis.WithLogger(cfg.logger),
			analysis.WithStatsCollector(cfg.stats),
			analysis.WithProgress(cfg.analysisProgress),
		}
		if cfg.cache != nil {
			analysisOpts = append(analysisOpts, analysis.WithCache(cfg.cache))
		}
		if cfg.depth > 0 {
			analysisOpts = append(analysisOpts, analysis.WithDepth(cfg.depth))
		}
		if cfg.workers > 0 {
			analysisOpts = append(analysisOpts, analysis.WithWorkers(cfg.workers))
		}
		c.engine = analysis.NewEngine(cfg.oracle, analysisOpts...)
	}

	c.logger.Debug("client initialized",
		zap.Bool("analysisCache", cfg.cache != nil),
		zap.Bool("oracle", cfg.oracle != nil),
	)

	return c, nil
}

// Sync downloads every month missing locally for each username. Failures
// are scoped to a player or a month and recorded in the report; the error
// is reserved for a closed client.
func (c *Client) Sync(ctx context.Context, usernames ...string) (*archive.SyncReport, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	catalog := c.catalog.List(ctx, usernames)
	return c.coordinator.Sync(ctx, catalog), nil
}

// CheckPlayer returns the number of rated games username has played.
// Returns provider.ErrUnknownPlayer if the player does not exist.
func (c *Client) CheckPlayer(ctx context.Context, username string) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	if err := archive.ValidateUsername(username); err != nil {
		return 0, err
	}
	st, err := c.provider.Stats(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("checking %s: %w", username, err)
	}
	return st.GameCount(), nil
}

// Usernames lists the players with a built dataset, sorted.
func (c *Client) Usernames(ctx context.Context) ([]string, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.builder.Usernames(ctx)
}

// Dataset returns username's dataset, building it from the downloaded
// months when it is missing or forceRefresh is set.
func (c *Client) Dataset(ctx context.Context, username string, forceRefresh bool) (*dataset.Dataset, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.builder.Get(ctx, username, forceRefresh)
}

// Refresh downloads username's new months and rebuilds the dataset.
// The dataset is rebuilt even when some months failed to download.
func (c *Client) Refresh(ctx context.Context, username string) (*dataset.Dataset, *archive.SyncReport, error) {
	report, err := c.Sync(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if u := report.Users[username]; u != nil && u.CatalogErr != nil {
		return nil, report, fmt.Errorf("refreshing %s: %w", username, u.CatalogErr)
	}
	if failed := report.Failed(); len(failed) > 0 {
		c.logger.Warn("rebuilding with missing months",
			zap.String("username", username),
			zap.Int("failed", len(failed)),
		)
	}

	ds, err := c.builder.Rebuild(ctx, username)
	if err != nil {
		return nil, report, err
	}
	return ds, report, nil
}

// Summary returns descriptive statistics of username's dataset.
func (c *Client) Summary(ctx context.Context, username string) (dataset.Summary, error) {
	ds, err := c.Dataset(ctx, username, false)
	if err != nil {
		return dataset.Summary{}, err
	}
	return dataset.Summarize(ds), nil
}

// Game returns the game with the given identifier from username's dataset.
func (c *Client) Game(ctx context.Context, username, gameID string) (*pgn.Game, error) {
	ds, err := c.Dataset(ctx, username, false)
	if err != nil {
		return nil, err
	}
	return ds.Game(gameID)
}

// Analyze evaluates every move of one of username's games, or returns the
// cached analysis.
func (c *Client) Analyze(ctx context.Context, username, gameID string) (*analysis.Result, error) {
	if c.engine == nil {
		return nil, ErrNoOracle
	}
	g, err := c.Game(ctx, username, gameID)
	if err != nil {
		return nil, err
	}
	return c.engine.Analyze(ctx, g)
}

// Close releases all resources associated with the client.
// After Close, the client should not be used.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var errs []error
	if err := c.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing analysis cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Store returns the storage backend used by this client.
func (c *Client) Store() store.Store {
	return c.store
}

// Oracle reports whether analysis is available.
func (c *Client) Oracle() bool {
	return c.engine != nil
}

// Compile-time check that the default provider satisfies the interface.
var _ provider.Provider = (*chesscom.Client)(nil)
