package archive

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/discochess/archivist/internal/provider"
	"github.com/discochess/archivist/internal/stats"
	"github.com/discochess/archivist/internal/store"
)

// Coordinator mirrors remote archive months into a store.
type Coordinator struct {
	provider provider.Provider
	store    store.Store
	cfg      config
}

// NewCoordinator creates a Coordinator fetching from p and writing to s.
func NewCoordinator(p provider.Provider, s store.Store, opts ...Option) *Coordinator {
	cfg := newConfig(opts)
	cfg.logger = cfg.logger.Named("sync")
	return &Coordinator{provider: p, store: s, cfg: cfg}
}

// Inventory returns the months already present locally for username,
// sorted ascending.
func (c *Coordinator) Inventory(ctx context.Context, username string) ([]string, error) {
	return ListMonths(ctx, c.store, username)
}

// ListMonths returns the "YYYY-MM" months stored for username, sorted
// ascending. Keys that are not month files are ignored.
func ListMonths(ctx context.Context, s store.Store, username string) ([]string, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	keys, err := s.List(ctx, username+"/")
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", username, err)
	}

	var months []string
	for _, key := range keys {
		name := strings.TrimPrefix(key, username+"/")
		if strings.Contains(name, "/") || !strings.HasSuffix(name, monthExt) {
			continue
		}
		month := strings.TrimSuffix(name, monthExt)
		if _, err := ParseMonth(username, month); err != nil {
			continue
		}
		months = append(months, month)
	}
	sort.Strings(months)
	return months, nil
}

// Plan returns the months to download: every remote month missing locally,
// plus the latest remote month, which may have gained games since it was
// last fetched. The result is sorted ascending.
func Plan(remote, local []string) []string {
	if len(remote) == 0 {
		return nil
	}

	have := make(map[string]bool, len(local))
	for _, m := range local {
		have[m] = true
	}

	latest := remote[0]
	seen := make(map[string]bool, len(remote))
	var plan []string
	for _, m := range remote {
		if m > latest {
			latest = m
		}
		if !have[m] && !seen[m] {
			plan = append(plan, m)
			seen[m] = true
		}
	}
	if !seen[latest] {
		plan = append(plan, latest)
	}
	sort.Strings(plan)
	return plan
}

// Sync downloads the planned months of every username with a successful
// catalog entry. Downloads run concurrently up to the configured limit; each
// player's downloads start Stagger apart. Failures are recorded per month in
// the returned report and never stop the remaining downloads.
func (c *Coordinator) Sync(ctx context.Context, catalog map[string]CatalogResult) *SyncReport {
	report := &SyncReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Users:     make(map[string]*UserReport, len(catalog)),
	}
	log := c.cfg.logger.With(zap.String("run_id", report.RunID))

	usernames := make([]string, 0, len(catalog))
	for u := range catalog {
		usernames = append(usernames, u)
	}
	sort.Strings(usernames)

	var jobs []Month
	for _, username := range usernames {
		res := catalog[username]
		ur := &UserReport{Months: make(map[string]error)}
		report.Users[username] = ur

		if res.Err != nil {
			ur.CatalogErr = res.Err
			continue
		}
		local, err := c.Inventory(ctx, username)
		if err != nil {
			ur.CatalogErr = err
			continue
		}
		ur.Planned = Plan(res.Months, local)
		for _, s := range ur.Planned {
			m, err := ParseMonth(username, s)
			if err != nil {
				ur.Months[s] = err
				continue
			}
			jobs = append(jobs, m)
		}
		log.Info("planned downloads",
			zap.String("username", username),
			zap.Int("remote", len(res.Months)),
			zap.Int("local", len(local)),
			zap.Int("planned", len(ur.Planned)),
		)
	}

	var (
		mu   sync.Mutex
		done int
		wg   sync.WaitGroup
	)
	sem := make(chan struct{}, c.cfg.concurrency)
	index := make(map[string]int)

	for _, m := range jobs {
		delay := time.Duration(index[m.Username]) * c.cfg.stagger
		index[m.Username]++

		wg.Add(1)
		go func(m Month, delay time.Duration) {
			defer wg.Done()

			err := sleep(ctx, delay)
			if err == nil {
				err = c.fetch(ctx, sem, m, log)
			}

			mu.Lock()
			report.Users[m.Username].Months[m.String()] = err
			done++
			c.reportProgress(Progress{
				Phase:       "fetch",
				Username:    m.Username,
				Month:       m.String(),
				MonthsDone:  done,
				MonthsTotal: len(jobs),
				StartTime:   report.StartedAt,
				Error:       err,
			})
			mu.Unlock()
		}(m, delay)
	}
	wg.Wait()

	report.Elapsed = time.Since(report.StartedAt)
	c.reportProgress(Progress{
		Phase:       "done",
		MonthsDone:  done,
		MonthsTotal: len(jobs),
		StartTime:   report.StartedAt,
		Error:       report.Err(),
	})
	log.Info("sync finished",
		zap.Int("months", len(jobs)),
		zap.Int("failed", len(report.Failed())),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report
}

// fetch downloads one month, retrying once after a rate limit, and writes it.
// Each request holds a slot of sem; the retry delay does not.
func (c *Coordinator) fetch(ctx context.Context, sem chan struct{}, m Month, log *zap.Logger) error {
	text, err := c.request(ctx, sem, m)
	if errors.Is(err, provider.ErrRateLimited) {
		c.cfg.collector.IncCounter(stats.MetricFetchRetries, 1)
		log.Debug("rate limited, retrying",
			zap.String("username", m.Username),
			zap.Stringer("month", m),
		)
		if err := sleep(ctx, c.cfg.retryDelay); err != nil {
			return err
		}
		text, err = c.request(ctx, sem, m)
	}
	if err != nil {
		c.cfg.collector.IncCounter(stats.MetricMonthsFailed, 1)
		log.Warn("download failed",
			zap.String("username", m.Username),
			zap.Stringer("month", m),
			zap.Error(err),
		)
		return fmt.Errorf("fetching %s %s: %w", m.Username, m, err)
	}

	if err := c.store.Write(ctx, m.Key(), []byte(text)); err != nil {
		c.cfg.collector.IncCounter(stats.MetricMonthsFailed, 1)
		return fmt.Errorf("writing %s: %w", m.Key(), err)
	}
	c.cfg.collector.IncCounter(stats.MetricMonthsFetched, 1)
	log.Debug("wrote month",
		zap.String("username", m.Username),
		zap.Stringer("month", m),
		zap.Int("bytes", len(text)),
	)
	return nil
}

func (c *Coordinator) request(ctx context.Context, sem chan struct{}, m Month) (string, error) {
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-sem }()
	return c.provider.MonthPGN(ctx, m.Username, m.Year, m.Month)
}

func (c *Coordinator) reportProgress(p Progress) {
	if c.cfg.progress != nil {
		c.cfg.progress(p)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
