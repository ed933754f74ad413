package analysis

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/archivist/internal/codec"
	"github.com/discochess/archivist/internal/codec/zstdcodec"
	"github.com/discochess/archivist/internal/oracle"
	"github.com/discochess/archivist/internal/oracle/ucioracle"
	"github.com/discochess/archivist/internal/pgn"
	"github.com/discochess/archivist/internal/stats"
	"github.com/discochess/archivist/internal/store"
)

// DefaultOracleTimeout bounds a single evaluator call.
const DefaultOracleTimeout = 30 * time.Second

// ProgressFunc is called after each ply is evaluated.
type ProgressFunc func(done, total int)

// Engine analyses games with a pool of evaluators.
type Engine struct {
	factory   oracle.Factory
	cache     store.Store
	codec     codec.Codec
	depth     int
	workers   int
	topK      int
	fill      float64
	timeout   time.Duration
	progress  ProgressFunc
	logger    *zap.Logger
	collector stats.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache stores finished analyses in s.
func WithCache(s store.Store) Option {
	return func(e *Engine) { e.cache = s }
}

// WithCodec sets the codec cached analyses are written with.
func WithCodec(c codec.Codec) Option {
	return func(e *Engine) { e.codec = c }
}

// WithDepth records the search depth the evaluators use. It is part of the
// cache key, so it must match the factory's configuration.
func WithDepth(depth int) Option {
	return func(e *Engine) { e.depth = depth }
}

// WithWorkers sets the number of evaluators run in parallel.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithMateFill sets the magnitude a mate in one normalizes to.
func WithMateFill(fill float64) Option {
	return func(e *Engine) { e.fill = fill }
}

// WithOracleTimeout bounds each evaluator call.
func WithOracleTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithProgress sets a callback invoked as plies complete.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithStatsCollector sets the metrics collector.
func WithStatsCollector(c stats.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// NewEngine creates an Engine drawing evaluators from factory.
func NewEngine(factory oracle.Factory, opts ...Option) *Engine {
	e := &Engine{
		factory: factory,
		codec:   zstdcodec.New(),
		depth:   ucioracle.DefaultDepth,
		workers: runtime.NumCPU(),
		topK:    DefaultTopK,
		fill:    DefaultMateFill,
		timeout: DefaultOracleTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	e.collector = stats.OrNoop(e.collector)
	e.logger = e.logger.Named("analysis")
	return e
}

// Depth returns the search depth recorded in cache keys.
func (e *Engine) Depth() int { return e.depth }

// Analyze evaluates every ply of g, or returns the cached analysis.
//
// A ply whose evaluation fails keeps its move columns with nil evaluations
// and an error message. The result is cached only when every ply succeeded.
// An error is returned when g cannot be replayed, when no ply could be
// evaluated, or when ctx is done.
func (e *Engine) Analyze(ctx context.Context, g *pgn.Game) (*Result, error) {
	key := KeyFor(g, e.depth)
	if rows, ok := e.lookup(ctx, key); ok {
		e.collector.IncCounter(stats.MetricAnalysisCacheHits, 1)
		return &Result{Key: key, Rows: rows, State: StateCacheHit, FromCache: true}, nil
	}
	e.collector.IncCounter(stats.MetricAnalysisCacheMisses, 1)

	res := &Result{Key: key, State: StateCacheMiss}
	plies, moves, err := replay(g, e.fill)
	if err != nil {
		res.State = StateFailed
		return res, err
	}

	res.State = StateEvaluating
	start := time.Now()
	res.Rows = e.evaluate(ctx, plies, moves)

	if err := ctx.Err(); err != nil {
		res.State = StateFailed
		return res, err
	}

	failed := res.Failed()
	if len(failed) > 0 && len(failed) == len(res.Rows) {
		res.State = StateFailed
		return res, fmt.Errorf("%w: %s: %v", ErrAnalysisFailed, key.Identifier, failed[0])
	}
	res.State = StateDone

	e.logger.Info("analysed game",
		zap.String("game", key.Identifier),
		zap.Int("plies", len(res.Rows)),
		zap.Int("failed", len(failed)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if len(failed) == 0 {
		if err := e.writeCache(ctx, key, res.Rows); err != nil {
			e.logger.Warn("caching analysis", zap.Error(err))
		}
	}
	return res, nil
}
