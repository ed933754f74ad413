package archive

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/discochess/archivist/internal/provider"
	"github.com/discochess/archivist/internal/provider/fakeprovider"
	"github.com/discochess/archivist/internal/store/memstore"
)

func fastOpts() []Option {
	return []Option{WithStagger(0), WithRetryDelay(0)}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("alice", "2024-03")
	if err != nil {
		t.Fatalf("ParseMonth() error = %v", err)
	}
	if m.Year != 2024 || m.Month != 3 || m.String() != "2024-03" {
		t.Errorf("ParseMonth() = %+v, want 2024-03", m)
	}
	if got, want := m.Key(), "alice/2024-03.txt"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}

	for _, bad := range []string{"", "2024-13", "2024/03", "24-03", "2024-03.txt"} {
		if _, err := ParseMonth("alice", bad); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("ParseMonth(%q) error = %v, want ErrInvalidMonth", bad, err)
		}
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name   string
		remote []string
		local  []string
		want   []string
	}{
		{"empty remote", nil, []string{"2024-01"}, nil},
		{"nothing local", []string{"2024-01", "2024-02"}, nil, []string{"2024-01", "2024-02"}},
		{"up to date refetches latest", []string{"2024-01", "2024-02"}, []string{"2024-01", "2024-02"}, []string{"2024-02"}},
		{"gap filled", []string{"2023-12", "2024-01", "2024-02"}, []string{"2024-01"}, []string{"2023-12", "2024-02"}},
		{"new month", []string{"2024-01", "2024-02", "2024-03"}, []string{"2024-01", "2024-02"}, []string{"2024-03"}},
		{"unordered remote", []string{"2024-02", "2023-05", "2024-01"}, []string{"2024-02"}, []string{"2023-05", "2024-01", "2024-02"}},
		{"local extras ignored", []string{"2024-01"}, []string{"2019-01", "2024-01"}, []string{"2024-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.remote, tt.local)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlan_ContainsLatestAndMissing(t *testing.T) {
	remote := []string{"2022-01", "2022-02", "2022-03", "2022-04"}
	for mask := 0; mask < 1<<len(remote); mask++ {
		var local []string
		for i, m := range remote {
			if mask&(1<<i) != 0 {
				local = append(local, m)
			}
		}
		plan := Plan(remote, local)
		if !sort.StringsAreSorted(plan) {
			t.Errorf("Plan(%v) = %v, not sorted", local, plan)
		}
		inPlan := make(map[string]bool)
		for _, m := range plan {
			inPlan[m] = true
		}
		if !inPlan["2022-04"] {
			t.Errorf("Plan(%v) = %v, missing latest month", local, plan)
		}
		for i, m := range remote[:3] {
			missing := mask&(1<<i) == 0
			if inPlan[m] != missing {
				t.Errorf("Plan(%v) includes %s = %v, want %v", local, m, inPlan[m], missing)
			}
		}
	}
}

func TestCatalog_List_IsolatesFailures(t *testing.T) {
	p := fakeprovider.New()
	p.AddMonth("alice", "2024-01", "")
	p.AddMonth("alice", "2024-02", "")
	p.AddMonth("carol", "2023-07", "")
	p.FailArchives("carol", provider.ErrUnavailable)

	got := NewCatalog(p).List(context.Background(), []string{"alice", "bob", "carol", ""})

	if len(got) != 4 {
		t.Fatalf("List() returned %d entries, want 4", len(got))
	}
	if res := got["alice"]; res.Err != nil || !reflect.DeepEqual(res.Months, []string{"2024-01", "2024-02"}) {
		t.Errorf("List()[alice] = %+v, want two months", res)
	}
	if err := got["bob"].Err; !errors.Is(err, provider.ErrUnknownPlayer) {
		t.Errorf("List()[bob].Err = %v, want ErrUnknownPlayer", err)
	}
	if err := got["carol"].Err; !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("List()[carol].Err = %v, want ErrUnavailable", err)
	}
	if err := got[""].Err; !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("List()[\"\"].Err = %v, want ErrInvalidUsername", err)
	}
}

func TestCoordinator_Inventory(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	for _, key := range []string{
		"alice/2024-01.txt",
		"alice/2023-12.txt",
		"alice/notes.md",
		"alice/bad-month.txt",
		"alice/sub/2024-02.txt",
		"alice.table",
		"alicex/2020-01.txt",
	} {
		if err := s.Write(ctx, key, nil); err != nil {
			t.Fatalf("Write(%q) error = %v", key, err)
		}
	}

	got, err := NewCoordinator(fakeprovider.New(), s).Inventory(ctx, "alice")
	if err != nil {
		t.Fatalf("Inventory() error = %v", err)
	}
	if want := []string{"2023-12", "2024-01"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Inventory() = %v, want %v", got, want)
	}
}

func TestCoordinator_Sync_Idempotent(t *testing.T) {
	ctx := context.Background()
	p := fakeprovider.New()
	p.AddMonth("alice", "2024-01", "jan")
	p.AddMonth("alice", "2024-02", "feb")
	p.AddMonth("alice", "2024-03", "mar")
	s := memstore.New()

	cat := NewCatalog(p)
	coord := NewCoordinator(p, s, fastOpts()...)

	first := coord.Sync(ctx, cat.List(ctx, []string{"alice"}))
	if err := first.Err(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if first.RunID == "" {
		t.Error("Sync() RunID is empty")
	}
	if got := first.Users["alice"].Fetched(); len(got) != 3 {
		t.Errorf("first Sync() fetched %v, want 3 months", got)
	}
	data, err := s.Read(ctx, "alice/2024-02.txt")
	if err != nil || string(data) != "feb" {
		t.Errorf("Read(alice/2024-02.txt) = %q, %v, want feb", data, err)
	}

	second := coord.Sync(ctx, cat.List(ctx, []string{"alice"}))
	if err := second.Err(); err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if got := second.Users["alice"].Planned; !reflect.DeepEqual(got, []string{"2024-03"}) {
		t.Errorf("second Sync() planned %v, want [2024-03]", got)
	}
	if first.RunID == second.RunID {
		t.Error("Sync() reused a RunID")
	}

	for month, want := range map[string]int{"2024-01": 1, "2024-02": 1, "2024-03": 2} {
		if got := s.Writes("alice/" + month + ".txt"); got != want {
			t.Errorf("writes of %s = %d, want %d", month, got, want)
		}
	}
}

func TestCoordinator_Sync_RetriesRateLimitOnce(t *testing.T) {
	ctx := context.Background()
	p := fakeprovider.New()
	p.AddMonth("alice", "2024-01", "jan")
	p.AddMonth("alice", "2024-02", "feb")
	p.FailMonth("alice", "2024-01", provider.ErrRateLimited)
	p.FailMonth("alice", "2024-02", provider.ErrRateLimited, provider.ErrRateLimited)
	s := memstore.New()

	report := NewCoordinator(p, s, fastOpts()...).Sync(ctx, map[string]CatalogResult{
		"alice": {Months: []string{"2024-01", "2024-02"}},
	})

	months := report.Users["alice"].Months
	if err := months["2024-01"]; err != nil {
		t.Errorf("2024-01 error = %v, want nil after retry", err)
	}
	if err := months["2024-02"]; !errors.Is(err, provider.ErrRateLimited) {
		t.Errorf("2024-02 error = %v, want ErrRateLimited", err)
	}
	if got := p.MonthCalls("alice", "2024-01"); got != 2 {
		t.Errorf("calls for 2024-01 = %d, want 2", got)
	}
	if got := p.MonthCalls("alice", "2024-02"); got != 2 {
		t.Errorf("calls for 2024-02 = %d, want 2", got)
	}
	if _, err := s.Read(ctx, "alice/2024-02.txt"); err == nil {
		t.Error("failed month should not be written")
	}
}

func TestCoordinator_Sync_NoRetryOnOtherErrors(t *testing.T) {
	p := fakeprovider.New()
	p.AddMonth("alice", "2024-01", "jan")
	p.FailMonth("alice", "2024-01", provider.ErrUnavailable)

	report := NewCoordinator(p, memstore.New(), fastOpts()...).Sync(context.Background(), map[string]CatalogResult{
		"alice": {Months: []string{"2024-01"}},
	})

	if err := report.Users["alice"].Months["2024-01"]; !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("2024-01 error = %v, want ErrUnavailable", err)
	}
	if got := p.MonthCalls("alice", "2024-01"); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestCoordinator_Sync_IsolatesUsers(t *testing.T) {
	ctx := context.Background()
	p := fakeprovider.New()
	p.AddMonth("alice", "2024-01", "a1")
	p.AddMonth("bob", "2024-01", "b1")
	p.AddMonth("bob", "2024-02", "b2")
	p.FailMonth("bob", "2024-01", errors.New("boom"))
	s := memstore.New()

	catalog := map[string]CatalogResult{
		"alice": {Months: []string{"2024-01"}},
		"bob":   {Months: []string{"2024-01", "2024-02"}},
		"carol": {Err: provider.ErrUnknownPlayer},
	}
	var (
		mu     sync.Mutex
		phases []string
	)
	progress := func(p Progress) {
		mu.Lock()
		phases = append(phases, p.Phase)
		mu.Unlock()
	}
	report := NewCoordinator(p, s, append(fastOpts(), WithProgress(progress), WithConcurrency(2))...).Sync(ctx, catalog)

	failed := report.Failed()
	if len(failed) != 2 {
		t.Fatalf("Failed() = %v, want 2 failures", failed)
	}
	if failed[0].Username != "bob" || failed[0].Month != "2024-01" {
		t.Errorf("Failed()[0] = %v, want bob 2024-01", failed[0])
	}
	if failed[1].Username != "carol" || !errors.Is(failed[1], provider.ErrUnknownPlayer) {
		t.Errorf("Failed()[1] = %v, want carol catalog failure", failed[1])
	}
	if !errors.Is(report.Err(), provider.ErrUnknownPlayer) {
		t.Errorf("Err() = %v, want it to wrap ErrUnknownPlayer", report.Err())
	}

	for _, key := range []string{"alice/2024-01.txt", "bob/2024-02.txt"} {
		if _, err := s.Read(ctx, key); err != nil {
			t.Errorf("Read(%q) error = %v", key, err)
		}
	}

	if len(phases) != 4 || phases[len(phases)-1] != "done" {
		t.Errorf("progress phases = %v, want 3 fetch then done", phases)
	}
}

func TestCoordinator_Sync_Canceled(t *testing.T) {
	p := fakeprovider.New()
	p.AddMonth("alice", "2024-01", "jan")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := NewCoordinator(p, memstore.New(), fastOpts()...).Sync(ctx, map[string]CatalogResult{
		"alice": {Months: []string{"2024-01"}},
	})
	if !errors.Is(report.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", report.Err())
	}
}

// timedProvider records when each month request starts and how many
// requests overlap.
type timedProvider struct {
	*fakeprovider.Provider
	hold time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
	starts   map[string][]time.Time
}

func newTimedProvider(hold time.Duration) *timedProvider {
	return &timedProvider{
		Provider: fakeprovider.New(),
		hold:     hold,
		starts:   make(map[string][]time.Time),
	}
}

func (p *timedProvider) MonthPGN(ctx context.Context, username string, year, month int) (string, error) {
	key := fmt.Sprintf("%s/%04d-%02d", username, year, month)
	p.mu.Lock()
	p.starts[key] = append(p.starts[key], time.Now())
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()
	if p.hold > 0 {
		time.Sleep(p.hold)
	}
	return p.Provider.MonthPGN(ctx, username, year, month)
}

func TestCoordinator_Sync_ConcurrencyAndStagger(t *testing.T) {
	const (
		concurrency = 2
		stagger     = 20 * time.Millisecond
	)
	p := newTimedProvider(30 * time.Millisecond)
	catalog := make(map[string]CatalogResult)
	for _, user := range []string{"alice", "bob"} {
		var months []string
		for i := 1; i <= 6; i++ {
			month := fmt.Sprintf("2024-%02d", i)
			p.AddMonth(user, month, user+month)
			months = append(months, month)
		}
		catalog[user] = CatalogResult{Months: months}
	}

	start := time.Now()
	report := NewCoordinator(p, memstore.New(),
		WithConcurrency(concurrency),
		WithStagger(stagger),
		WithRetryDelay(0),
	).Sync(context.Background(), catalog)
	if err := report.Err(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if p.peak > concurrency {
		t.Errorf("peak requests in flight = %d, want <= %d", p.peak, concurrency)
	}
	for _, user := range []string{"alice", "bob"} {
		var prev time.Time
		for i := 1; i <= 6; i++ {
			key := fmt.Sprintf("%s/2024-%02d", user, i)
			if len(p.starts[key]) != 1 {
				t.Fatalf("requests for %s = %d, want 1", key, len(p.starts[key]))
			}
			at := p.starts[key][0]
			if earliest := time.Duration(i-1) * stagger; at.Sub(start) < earliest {
				t.Errorf("%s started after %v, want >= %v", key, at.Sub(start), earliest)
			}
			if at.Before(prev) {
				t.Errorf("%s started before the previous month", key)
			}
			prev = at
		}
	}
}

func TestCoordinator_Sync_RetryDelayFreesSlot(t *testing.T) {
	p := newTimedProvider(0)
	p.AddMonth("alice", "2024-01", "jan")
	p.AddMonth("alice", "2024-02", "feb")
	p.FailMonth("alice", "2024-01", provider.ErrRateLimited)

	report := NewCoordinator(p, memstore.New(),
		WithConcurrency(1),
		WithStagger(50*time.Millisecond),
		WithRetryDelay(300*time.Millisecond),
	).Sync(context.Background(), map[string]CatalogResult{
		"alice": {Months: []string{"2024-01", "2024-02"}},
	})
	if err := report.Err(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	jan, feb := p.starts["alice/2024-01"], p.starts["alice/2024-02"]
	if len(jan) != 2 || len(feb) != 1 {
		t.Fatalf("requests = %d, %d, want 2, 1", len(jan), len(feb))
	}
	if !feb[0].Before(jan[1]) {
		t.Errorf("2024-02 waited for the 2024-01 retry; want it to run during the retry delay")
	}
}
