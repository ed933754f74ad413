package archivist

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/archivist/internal/analysis"
	"github.com/discochess/archivist/internal/archive"
	"github.com/discochess/archivist/internal/oracle"
	"github.com/discochess/archivist/internal/provider"
	"github.com/discochess/archivist/internal/stats"
	"github.com/discochess/archivist/internal/store"
	"github.com/discochess/archivist/internal/store/diskstore"
)

// DefaultAnalysisDir is the cache directory WithDataDir uses, relative to
// the data directory.
const DefaultAnalysisDir = "analysis"

// Option configures a Client.
type Option interface {
	apply(*options)
}

// options holds the client configuration.
type options struct {
	store            store.Store
	cache            store.Store
	provider         provider.Provider
	oracle           oracle.Factory
	depth            int
	workers          int
	concurrency      int
	stagger          time.Duration
	retryDelay       time.Duration
	progress         archive.ProgressFunc
	analysisProgress analysis.ProgressFunc
	stats            stats.Collector
	logger           *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		concurrency: archive.DefaultConcurrency,
		stagger:     archive.DefaultStagger,
		retryDelay:  archive.DefaultRetryDelay,
		stats:       stats.NewNoop(),
		logger:      zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStore sets the store holding raw month files and datasets.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithAnalysisCache sets the store finished game analyses are kept in.
// If not set, analyses are not cached.
func WithAnalysisCache(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.cache = s
	})
}

// WithProvider sets the remote game archive.
// If not set, the chess.com public API is used.
func WithProvider(p provider.Provider) Option {
	return optionFunc(func(o *options) {
		o.provider = p
	})
}

// WithOracle sets the factory for position evaluators. Analyze fails with
// ErrNoOracle when none is set.
func WithOracle(f oracle.Factory) Option {
	return optionFunc(func(o *options) {
		o.oracle = f
	})
}

// WithDepth records the search depth the oracle runs at. It is part of
// the analysis cache key.
func WithDepth(depth int) Option {
	return optionFunc(func(o *options) {
		o.depth = depth
	})
}

// WithWorkers sets the number of evaluators analysing a game in parallel.
// Default is the number of CPUs.
func WithWorkers(n int) Option {
	return optionFunc(func(o *options) {
		o.workers = n
	})
}

// WithConcurrency caps simultaneous requests to the provider.
func WithConcurrency(n int) Option {
	return optionFunc(func(o *options) {
		o.concurrency = n
	})
}

// WithStagger sets the delay between the starts of one player's downloads.
func WithStagger(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.stagger = d
	})
}

// WithRetryDelay sets the pause before a rate-limited download is retried.
func WithRetryDelay(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.retryDelay = d
	})
}

// WithSyncProgress sets a callback for download progress.
func WithSyncProgress(fn archive.ProgressFunc) Option {
	return optionFunc(func(o *options) {
		o.progress = fn
	})
}

// WithAnalysisProgress sets a callback invoked as plies are evaluated.
func WithAnalysisProgress(fn analysis.ProgressFunc) Option {
	return optionFunc(func(o *options) {
		o.analysisProgress = fn
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithDataDir stores archives and datasets under dir and caches analyses
// under dir/analysis.
func WithDataDir(dir string) (Option, error) {
	st, err := diskstore.New(dir)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	cache, err := diskstore.New(filepath.Join(dir, DefaultAnalysisDir))
	if err != nil {
		return nil, fmt.Errorf("creating analysis cache: %w", err)
	}

	return optionFunc(func(o *options) {
		o.store = st
		o.cache = cache
	}), nil
}
