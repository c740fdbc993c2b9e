package tlcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mapBackend is a thread-safe Backend with optional failure injection.
type mapBackend struct {
	mu      sync.Mutex
	data    map[string]string
	failGet map[string]bool
	failSet map[string]bool
	delay   time.Duration

	gets    atomic.Int64
	sets    atomic.Int64
	active  atomic.Int64
	maxSeen atomic.Int64
}

func newMapBackend() *mapBackend {
	return &mapBackend{
		data:    make(map[string]string),
		failGet: make(map[string]bool),
		failSet: make(map[string]bool),
	}
}

func (b *mapBackend) enter() func() {
	n := b.active.Add(1)
	for {
		prev := b.maxSeen.Load()
		if n <= prev || b.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	return func() { b.active.Add(-1) }
}

func (b *mapBackend) Get(ctx context.Context, key string) (string, bool, error) {
	defer b.enter()()
	b.gets.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failGet[key] {
		return "", false, errors.New("connection reset")
	}
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *mapBackend) Set(ctx context.Context, key, value string) error {
	defer b.enter()()
	b.sets.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSet[key] {
		return errors.New("read-only replica")
	}
	b.data[key] = value
	return nil
}

func (b *mapBackend) value(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	return v, ok
}

func (b *mapBackend) put(key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
}

func TestStore_GetSet(t *testing.T) {
	backend := newMapBackend()
	s := NewStore(backend)
	ctx := context.Background()

	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("Expected miss on empty store")
	}
	if !s.Set(ctx, "k", "v") {
		t.Fatal("Set should succeed")
	}
	if v, ok := s.Get(ctx, "k"); !ok || v != "v" {
		t.Errorf("Expected hit 'v', got %q (ok=%v)", v, ok)
	}
}

func TestStore_GetErrorIsMiss(t *testing.T) {
	backend := newMapBackend()
	backend.put("k", "v")
	backend.failGet["k"] = true
	s := NewStore(backend)

	v, ok := s.Get(context.Background(), "k")
	if ok || v != "" {
		t.Errorf("Expected failed get to be a miss, got %q (ok=%v)", v, ok)
	}
}

func TestStore_SetErrorSwallowed(t *testing.T) {
	backend := newMapBackend()
	backend.failSet["k"] = true
	s := NewStore(backend)

	if s.Set(context.Background(), "k", "v") {
		t.Error("Expected Set to report failure")
	}
}

func TestStore_NilBackend(t *testing.T) {
	s := NewStore(nil)
	if _, ok := s.Get(context.Background(), "k"); ok {
		t.Error("nil backend should always miss")
	}
	if s.Set(context.Background(), "k", "v") {
		t.Error("nil backend should never write")
	}
}

func TestStore_GetMany_IndexAligned(t *testing.T) {
	backend := newMapBackend()
	backend.put("a", "A")
	backend.put("c", "C")
	backend.failGet["b"] = true
	s := NewStore(backend)

	keys := []string{"a", "b", "c", "d", "a"}
	got := s.GetMany(context.Background(), keys)

	expected := []Lookup{
		{Value: "A", Found: true},
		{},
		{Value: "C", Found: true},
		{},
		{Value: "A", Found: true},
	}
	if len(got) != len(expected) {
		t.Fatalf("Expected %d results, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("result %d: expected %+v, got %+v", i, expected[i], got[i])
		}
	}

	if backend.gets.Load() != 4 {
		t.Errorf("Duplicate keys should be fetched once, got %d gets", backend.gets.Load())
	}
}

func TestStore_GetMany_Empty(t *testing.T) {
	s := NewStore(newMapBackend())
	if got := s.GetMany(context.Background(), nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}

func TestStore_GetMany_Concurrent(t *testing.T) {
	backend := newMapBackend()
	backend.delay = 20 * time.Millisecond
	s := NewStore(backend, WithLookupConcurrency(0))

	keys := make([]string, 10)
	for i := range keys {
		keys[i] = string(rune('a' + i))
	}

	start := time.Now()
	s.GetMany(context.Background(), keys)
	elapsed := time.Since(start)

	// Ten serial lookups would take at least 200ms.
	if elapsed >= 150*time.Millisecond {
		t.Errorf("Lookups should run concurrently, took %v", elapsed)
	}
	if backend.maxSeen.Load() < 2 {
		t.Errorf("Expected overlapping lookups, max in flight was %d", backend.maxSeen.Load())
	}
}

func TestStore_LookupConcurrencyLimit(t *testing.T) {
	backend := newMapBackend()
	backend.delay = 5 * time.Millisecond
	s := NewStore(backend, WithLookupConcurrency(2))

	keys := make([]string, 12)
	for i := range keys {
		keys[i] = string(rune('a' + i))
	}
	s.GetMany(context.Background(), keys)

	if peak := backend.maxSeen.Load(); peak > 2 {
		t.Errorf("Expected at most 2 concurrent lookups, saw %d", peak)
	}
}

func TestStore_SetMany(t *testing.T) {
	backend := newMapBackend()
	backend.failSet["bad"] = true
	s := NewStore(backend)

	written := s.SetMany(context.Background(), []Entry{
		{Key: "a", Value: "A"},
		{Key: "bad", Value: "X"},
		{Key: "c", Value: "C"},
	})

	if written != 2 {
		t.Errorf("Expected 2 written, got %d", written)
	}
	if v, ok := backend.value("c"); !ok || v != "C" {
		t.Errorf("Expected c=C, got %q", v)
	}
	if s.SetMany(context.Background(), nil) != 0 {
		t.Error("Empty SetMany should write nothing")
	}
}
