package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/discochess/archivist/internal/stats"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not found in registry", name)
	return nil
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c.registry == nil {
		t.Error("registry should not be nil")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricMonthsFetched, 5)
	c.IncCounter(stats.MetricMonthsFetched, 3)

	f := gather(t, reg, stats.MetricMonthsFetched)
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 8 {
		t.Errorf("counter value = %v, want 8", got)
	}
	if got, want := f.GetHelp(), stats.Describe(stats.MetricMonthsFetched); got != want {
		t.Errorf("help = %q, want %q", got, want)
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge(stats.MetricDatasetRows, 42)

	f := gather(t, reg, stats.MetricDatasetRows)
	if got := f.GetMetric()[0].GetGauge().GetValue(); got != 42 {
		t.Errorf("gauge value = %v, want 42", got)
	}
}

func TestCollector_ObserveHistogram_OracleBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram(stats.MetricOracleCallSeconds, 0.02)
	c.ObserveHistogram(stats.MetricOracleCallSeconds, 3)

	h := gather(t, reg, stats.MetricOracleCallSeconds).GetMetric()[0].GetHistogram()
	if got := h.GetSampleCount(); got != 2 {
		t.Errorf("histogram count = %v, want 2", got)
	}
	if got := len(h.GetBucket()); got != len(oracleBuckets) {
		t.Errorf("bucket count = %d, want %d", got, len(oracleBuckets))
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter(stats.MetricPliesEvaluated, 1)
				c.SetGauge(stats.MetricCacheSize, int64(j))
			}
		}()
	}
	wg.Wait()

	f := gather(t, reg, stats.MetricPliesEvaluated)
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 1000 {
		t.Errorf("counter value = %v, want 1000", got)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: stats.MetricFetchRetries,
		Help: stats.Describe(stats.MetricFetchRetries),
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter(stats.MetricFetchRetries, 5)

	f := gather(t, reg, stats.MetricFetchRetries)
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 105 {
		t.Errorf("counter value = %v, want 105", got)
	}
}
