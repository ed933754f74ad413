package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/discochess/archivist/internal/archive"
	"github.com/discochess/archivist/internal/codec"
	"github.com/discochess/archivist/internal/codec/zstdcodec"
	"github.com/discochess/archivist/internal/pgn"
	"github.com/discochess/archivist/internal/stats"
	"github.com/discochess/archivist/internal/store"
)

// ErrNoArchives is returned when a player has no downloaded months.
var ErrNoArchives = errors.New("dataset: no archived months")

// Builder builds datasets from the raw month files in a store and keeps
// the resulting tables next to them.
type Builder struct {
	store     store.Store
	codec     codec.Codec
	logger    *zap.Logger
	collector stats.Collector
}

// Option configures a Builder.
type Option func(*Builder)

// WithCodec sets the codec tables are written with.
func WithCodec(c codec.Codec) Option {
	return func(b *Builder) { b.codec = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithStatsCollector sets the metrics collector.
func WithStatsCollector(c stats.Collector) Option {
	return func(b *Builder) { b.collector = c }
}

// NewBuilder creates a Builder over s.
func NewBuilder(s store.Store, opts ...Option) *Builder {
	b := &Builder{
		store:  s,
		codec:  zstdcodec.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.collector = stats.OrNoop(b.collector)
	b.logger = b.logger.Named("dataset")
	return b
}

// Games parses every downloaded month of username. Unparseable game blocks
// are returned in the error slice; the final error is reserved for storage
// failures.
func (b *Builder) Games(ctx context.Context, username string) ([]*pgn.Game, []error, error) {
	months, err := archive.ListMonths(ctx, b.store, username)
	if err != nil {
		return nil, nil, err
	}
	if len(months) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoArchives, username)
	}

	var (
		games     []*pgn.Game
		parseErrs []error
	)
	for _, month := range months {
		key := archive.MonthKey(username, month)
		data, err := b.store.Read(ctx, key)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", key, err)
		}
		g, errs := pgn.Parse(string(data))
		for _, e := range errs {
			parseErrs = append(parseErrs, fmt.Errorf("%s: %w", key, e))
		}
		games = append(games, g...)
	}

	b.collector.IncCounter(stats.MetricGamesParsed, int64(len(games)))
	b.collector.IncCounter(stats.MetricParseErrors, int64(len(parseErrs)))
	return games, parseErrs, nil
}

// Rebuild reconstructs username's dataset from the raw months and saves it.
func (b *Builder) Rebuild(ctx context.Context, username string) (*Dataset, error) {
	games, parseErrs, err := b.Games(ctx, username)
	if err != nil {
		return nil, err
	}
	for _, e := range parseErrs {
		b.logger.Warn("skipping game", zap.String("username", username), zap.Error(e))
	}

	ds, err := Build(games, username)
	if err != nil {
		return nil, err
	}
	if err := Save(ctx, b.store, b.codec, ds); err != nil {
		return nil, err
	}

	b.collector.IncCounter(stats.MetricDatasetBuilt, 1)
	b.collector.SetGauge(stats.MetricDatasetRows, int64(ds.Len()))
	b.logger.Info("built dataset",
		zap.String("username", username),
		zap.Int("games", len(games)),
		zap.Int("rows", ds.Len()),
		zap.Int("parse_errors", len(parseErrs)),
	)
	return ds, nil
}

// Get returns the stored dataset, rebuilding it when it is missing,
// unreadable or forceRefresh is set.
func (b *Builder) Get(ctx context.Context, username string, forceRefresh bool) (*Dataset, error) {
	if err := archive.ValidateUsername(username); err != nil {
		return nil, err
	}
	if !forceRefresh {
		ds, err := Load(ctx, b.store, username)
		if err == nil {
			return ds, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			b.logger.Warn("stored dataset unreadable, rebuilding",
				zap.String("username", username),
				zap.Error(err),
			)
		}
	}
	return b.Rebuild(ctx, username)
}

// Usernames lists the players that have a built dataset, sorted.
func (b *Builder) Usernames(ctx context.Context) ([]string, error) {
	keys, err := b.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	var names []string
	for _, key := range keys {
		if strings.Contains(key, "/") || !strings.HasSuffix(key, tableExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(key, tableExt))
	}
	sort.Strings(names)
	return names, nil
}
