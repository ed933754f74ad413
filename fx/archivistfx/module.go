// Package archivistfx provides an fx module for an archivist client.
package archivistfx

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/archivist"
	"github.com/discochess/archivist/internal/oracle/ucioracle"
	"github.com/discochess/archivist/internal/stats"
	"github.com/discochess/archivist/internal/stats/logger"
	"github.com/discochess/archivist/internal/store"
	"github.com/discochess/archivist/internal/store/storeurl"
)

// DefaultCacheSize is the number of analyses kept in memory.
const DefaultCacheSize = 256

// Config holds configuration for the archivist client.
type Config struct {
	// DataLocation holds raw months and datasets: a directory, gs:// or s3://.
	DataLocation string `validate:"required"`

	// CacheLocation holds analysis tables. Default is DataLocation/analysis.
	CacheLocation string

	// CacheSize is the number of analyses cached in memory.
	// Default is 256.
	CacheSize int `validate:"gte=0"`

	// EnginePath is the UCI engine executable. Analysis is disabled
	// when empty.
	EnginePath string

	Depth       int `validate:"gte=0,lte=60"`
	Workers     int `validate:"gte=0,lte=256"`
	Concurrency int `validate:"gte=0,lte=32"`
}

var validate = validator.New()

// Validate checks the configuration.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Errorf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Errorf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("archivistfx: invalid config: %w", errors.Join(msgs...))
}

// Module provides an archivist client.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("archivist",
	fx.Provide(
		newStatsCollector,
		newClient,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("archivist.stats"))
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *archivist.Client
}

func newClient(p Params) (Result, error) {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if cfg.CacheLocation == "" {
		cfg.CacheLocation = storeurl.Join(cfg.DataLocation, archivist.DefaultAnalysisDir)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}

	ctx := context.Background()
	data, err := storeurl.Open(ctx, cfg.DataLocation)
	if err != nil {
		return Result{}, fmt.Errorf("opening data store: %w", err)
	}
	cacheBase, err := storeurl.Open(ctx, cfg.CacheLocation)
	if err != nil {
		return Result{}, fmt.Errorf("opening analysis cache: %w", err)
	}
	var cache store.Store
	cache, err = storeurl.WithLRU(cacheBase, cfg.CacheSize, p.Collector)
	if err != nil {
		return Result{}, err
	}

	opts := []archivist.Option{
		archivist.WithStore(data),
		archivist.WithAnalysisCache(cache),
		archivist.WithStats(p.Collector),
		archivist.WithLogger(p.Logger.Named("archivist")),
	}
	if cfg.Concurrency > 0 {
		opts = append(opts, archivist.WithConcurrency(cfg.Concurrency))
	}
	if cfg.EnginePath != "" {
		depth := cfg.Depth
		if depth <= 0 {
			depth = ucioracle.DefaultDepth
		}
		opts = append(opts,
			archivist.WithOracle(ucioracle.Factory(ucioracle.Config{
				Path:   cfg.EnginePath,
				Depth:  depth,
				Logger: p.Logger,
			})),
			archivist.WithDepth(depth),
			archivist.WithWorkers(cfg.Workers),
		)
	}

	client, err := archivist.New(opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Result{Client: client}, nil
}
