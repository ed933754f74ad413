// Package logger provides a stats collector that writes metrics to a zap
// logger, for runs without a Prometheus endpoint.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/discochess/archivist/internal/stats"
)

// Collector logs every metric update at debug level. Counters of failures
// are logged at warn level so they show up in production logs.
type Collector struct {
	logger *zap.Logger

	mu     sync.Mutex
	totals map[string]int64
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a logger-based collector.
// If logger is nil, a no-op logger is used.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger, totals: make(map[string]int64)}
}

// IncCounter logs the increment and the running total.
func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	c.totals[name] += delta
	total := c.totals[name]
	c.mu.Unlock()

	level := zapcore.DebugLevel
	if isFailure(name) {
		level = zapcore.WarnLevel
	}
	c.logger.Log(level, stats.Describe(name),
		zap.String("metric", name),
		zap.Int64("delta", delta),
		zap.Int64("total", total),
	)
}

// SetGauge logs a gauge value.
func (c *Collector) SetGauge(name string, value int64) {
	c.logger.Debug(stats.Describe(name),
		zap.String("metric", name),
		zap.Int64("value", value),
	)
}

// ObserveHistogram logs a histogram observation.
func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Debug(stats.Describe(name),
		zap.String("metric", name),
		zap.Float64("value", value),
	)
}

// Total returns the sum of increments seen for a counter.
func (c *Collector) Total(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[name]
}

func isFailure(name string) bool {
	return strings.HasSuffix(name, "_errors_total") || strings.HasSuffix(name, "_failed_total") ||
		strings.HasSuffix(name, "_failures_total")
}
