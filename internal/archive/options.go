package archive

import (
	"time"

	"go.uber.org/zap"

	"github.com/discochess/archivist/internal/stats"
)

const (
	// DefaultConcurrency caps simultaneous requests to the provider.
	DefaultConcurrency = 6

	// DefaultStagger spaces out the start of consecutive month downloads
	// for one player.
	DefaultStagger = time.Second / 6

	// DefaultRetryDelay is the pause before retrying a rate-limited download.
	DefaultRetryDelay = 2 * time.Second
)

type config struct {
	concurrency int
	stagger     time.Duration
	retryDelay  time.Duration
	logger      *zap.Logger
	collector   stats.Collector
	progress    ProgressFunc
}

func newConfig(opts []Option) config {
	c := config{
		concurrency: DefaultConcurrency,
		stagger:     DefaultStagger,
		retryDelay:  DefaultRetryDelay,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	c.collector = stats.OrNoop(c.collector)
	return c
}

// Option configures a Catalog or Coordinator.
type Option func(*config)

// WithConcurrency caps the number of requests in flight.
func WithConcurrency(n int) Option {
	return func(c *config) { c.concurrency = n }
}

// WithStagger sets the delay between the starts of consecutive downloads
// for one player. Zero disables staggering.
func WithStagger(d time.Duration) Option {
	return func(c *config) { c.stagger = d }
}

// WithRetryDelay sets the pause before the single retry of a rate-limited
// download.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) { c.retryDelay = d }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStatsCollector sets the metrics collector.
func WithStatsCollector(collector stats.Collector) Option {
	return func(c *config) { c.collector = collector }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) { c.progress = fn }
}
