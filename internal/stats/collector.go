// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Catalog and synchronization metrics.
	MetricCatalogRequests = "archivist_catalog_requests_total"
	MetricCatalogErrors   = "archivist_catalog_errors_total"
	MetricMonthsFetched   = "archivist_months_fetched_total"
	MetricMonthsFailed    = "archivist_months_failed_total"
	MetricFetchRetries    = "archivist_fetch_retries_total"

	// Parsing and dataset metrics.
	MetricGamesParsed  = "archivist_games_parsed_total"
	MetricParseErrors  = "archivist_parse_errors_total"
	MetricDatasetRows  = "archivist_dataset_rows"
	MetricDatasetBuilt = "archivist_datasets_built_total"

	// Analysis metrics.
	MetricAnalysisCacheHits   = "archivist_analysis_cache_hits_total"
	MetricAnalysisCacheMisses = "archivist_analysis_cache_misses_total"
	MetricPliesEvaluated      = "archivist_plies_evaluated_total"
	MetricPlyFailures         = "archivist_ply_failures_total"
	MetricOracleCallSeconds   = "archivist_oracle_call_seconds"

	// In-memory cache metrics.
	MetricCacheHits   = "archivist_cache_hits_total"
	MetricCacheMisses = "archivist_cache_misses_total"
	MetricCacheSize   = "archivist_cache_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}

// Noop discards every metric.
type Noop struct{}

// Compile-time check that Noop implements Collector.
var _ Collector = Noop{}

// NewNoop returns a collector that discards every metric.
func NewNoop() Noop { return Noop{} }

func (Noop) IncCounter(string, int64)         {}
func (Noop) SetGauge(string, int64)           {}
func (Noop) ObserveHistogram(string, float64) {}

// OrNoop returns c, or a no-op collector when c is nil.
func OrNoop(c Collector) Collector {
	if c == nil {
		return NewNoop()
	}
	return c
}

var descriptions = map[string]string{
	MetricCatalogRequests:     "Archive catalog requests issued, one per username.",
	MetricCatalogErrors:       "Archive catalog requests that failed.",
	MetricMonthsFetched:       "Month archives downloaded and written.",
	MetricMonthsFailed:        "Month archives that could not be downloaded.",
	MetricFetchRetries:        "Month downloads retried after a rate limit.",
	MetricGamesParsed:         "Games parsed from raw archive text.",
	MetricParseErrors:         "Game blocks rejected by the parser.",
	MetricDatasetRows:         "Rows in the most recently built dataset.",
	MetricDatasetBuilt:        "Datasets built.",
	MetricAnalysisCacheHits:   "Game analyses served from the analysis cache.",
	MetricAnalysisCacheMisses: "Game analyses that required the engine.",
	MetricPliesEvaluated:      "Plies evaluated by the engine pool.",
	MetricPlyFailures:         "Plies whose evaluation failed.",
	MetricOracleCallSeconds:   "Duration of a single engine evaluation job.",
	MetricCacheHits:           "In-memory cache hits.",
	MetricCacheMisses:         "In-memory cache misses.",
	MetricCacheSize:           "Entries held by the in-memory cache.",
}

// Describe returns the help text for a metric name, or the name itself.
func Describe(name string) string {
	if d, ok := descriptions[name]; ok {
		return d
	}
	return name
}
