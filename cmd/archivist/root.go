package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/archivist"
	"github.com/discochess/archivist/internal/stats"
	"github.com/discochess/archivist/internal/stats/logger"
	promstats "github.com/discochess/archivist/internal/stats/prometheus"
	"github.com/discochess/archivist/internal/store/storeurl"
)

// analysisCacheSize is the number of analyses kept in memory per run.
const analysisCacheSize = 64

var (
	// Global flags.
	dataDir     string
	cacheDir    string
	storeURL    string
	verbose     bool
	metricsAddr string

	log       *zap.Logger
	collector stats.Collector
)

var rootCmd = &cobra.Command{
	Use:   "archivist",
	Short: "Download, tabulate and analyse chess.com game archives",
	Long: `Archivist keeps a local mirror of a player's chess.com game archive,
turns it into a per-player dataset and analyses individual games with a
UCI engine.

Examples:
  # Download every month not yet stored
  archivist sync hikaru magnuscarlsen

  # Rebuild the dataset from the downloaded months
  archivist build hikaru

  # Analyse one game with Stockfish
  archivist analyze hikaru --game 98765432101 --engine /usr/bin/stockfish

  # Keep archives in a bucket
  archivist sync hikaru --store gs://my-bucket/archivist`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "./data", "directory holding archives and datasets")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "location of the analysis cache (default <data>/analysis)")
	rootCmd.PersistentFlags().StringVar(&storeURL, "store", "", "storage location overriding --data-dir: a directory, gs://bucket/prefix or s3://bucket/prefix")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	switch {
	case metricsAddr != "":
		registry := prometheus.NewRegistry()
		collector = promstats.New(registry)
		srv := &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	case verbose:
		collector = logger.New(log.Named("stats"))
	default:
		collector = stats.NewNoop()
	}
	return nil
}

// dataLocation returns the location archives and datasets are kept in.
func dataLocation() string {
	if storeURL != "" {
		return storeURL
	}
	return dataDir
}

// cacheLocation returns the location analyses are cached in.
func cacheLocation() string {
	if cacheDir != "" {
		return cacheDir
	}
	return storeurl.Join(dataLocation(), archivist.DefaultAnalysisDir)
}

// newClient opens the stores named by the global flags and creates a client
// with the analysis cache attached.
func newClient(ctx context.Context, opts ...archivist.Option) (*archivist.Client, error) {
	return openClient(ctx, true, opts...)
}

// openClient is newClient with the analysis cache optional. Clients whose
// evaluations must not be reused by later runs pass cached = false.
func openClient(ctx context.Context, cached bool, opts ...archivist.Option) (*archivist.Client, error) {
	data, err := storeurl.Open(ctx, dataLocation())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dataLocation(), err)
	}
	base := []archivist.Option{
		archivist.WithStore(data),
		archivist.WithStats(collector),
		archivist.WithLogger(log),
	}

	if cached {
		cacheBase, err := storeurl.Open(ctx, cacheLocation())
		if err != nil {
			data.Close()
			return nil, fmt.Errorf("opening %s: %w", cacheLocation(), err)
		}
		cache, err := storeurl.WithLRU(cacheBase, analysisCacheSize, collector)
		if err != nil {
			data.Close()
			return nil, err
		}
		base = append(base, archivist.WithAnalysisCache(cache))
	}

	client, err := archivist.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return client, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
