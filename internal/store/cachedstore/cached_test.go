package cachedstore

import (
	"context"
	"errors"
	"testing"

	"github.com/discochess/archivist/internal/store"
	"github.com/discochess/archivist/internal/store/memstore"
)

// fakeBackend is a map-backed Backend that counts lookups.
type fakeBackend struct {
	data   map[string][]byte
	hits   int64
	misses int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string][]byte)}
}

func (b *fakeBackend) Get(key string) ([]byte, bool) {
	v, ok := b.data[key]
	if ok {
		b.hits++
	} else {
		b.misses++
	}
	return v, ok
}

func (b *fakeBackend) Set(key string, data []byte) { b.data[key] = data }
func (b *fakeBackend) Remove(key string)           { delete(b.data, key) }

func (b *fakeBackend) Stats() Stats {
	return Stats{Hits: b.hits, Misses: b.misses, Size: len(b.data)}
}

// failingStore fails every write.
type failingStore struct {
	store.Store
}

func (failingStore) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestStore_CacheMissThenHit(t *testing.T) {
	ctx := context.Background()
	under := memstore.New()
	if err := under.Write(ctx, "a", []byte("x")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	s := New(under, newFakeBackend())

	for i := 0; i < 2; i++ {
		data, err := s.Read(ctx, "a")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if string(data) != "x" {
			t.Errorf("Read() = %q, want %q", data, "x")
		}
	}

	st := s.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit and 1 miss", st)
	}
}

func TestStore_NotFound(t *testing.T) {
	s := New(memstore.New(), newFakeBackend())
	_, err := s.Read(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Read() error = %v, want ErrNotFound", err)
	}
	if got := s.Stats().Size; got != 0 {
		t.Errorf("Stats().Size = %d, want 0", got)
	}
}

func TestStore_WriteThrough(t *testing.T) {
	ctx := context.Background()
	under := memstore.New()
	backend := newFakeBackend()
	s := New(under, backend)

	if err := s.Write(ctx, "a", []byte("v1")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := under.Read(ctx, "a")
	if err != nil || string(got) != "v1" {
		t.Errorf("underlying Read() = %q, %v, want v1", got, err)
	}
	if string(backend.data["a"]) != "v1" {
		t.Errorf("cached value = %q, want v1", backend.data["a"])
	}
}

func TestStore_FailedWriteEvicts(t *testing.T) {
	backend := newFakeBackend()
	backend.data["a"] = []byte("stale")
	s := New(failingStore{memstore.New()}, backend)

	if err := s.Write(context.Background(), "a", []byte("new")); err == nil {
		t.Fatal("Write() error = nil, want error")
	}
	if _, ok := backend.data["a"]; ok {
		t.Error("cache entry should be removed after a failed write")
	}
}

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  float64
	}{
		{"empty", Stats{}, 0},
		{"all hits", Stats{Hits: 10}, 100},
		{"half", Stats{Hits: 5, Misses: 5}, 50},
		{"all misses", Stats{Misses: 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.HitRate(); got != tt.want {
				t.Errorf("HitRate() = %v, want %v", got, tt.want)
			}
		})
	}
}
