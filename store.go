package tlcache

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Backend is a durable key→string store. Implementations live in the cache
// package.
type Backend interface {
	// Get returns the value and true on a hit, "" and false on a miss.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error
}

// Store is the cache front used by the pipeline. It never surfaces backend
// failures: a failed read is a miss and a failed write is logged and dropped,
// to be retried by a later backfill.
type Store struct {
	backend     Backend
	logger      zerolog.Logger
	concurrency int
}

// StoreOption is a functional option for configuring the Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for swallowed backend errors.
func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithLookupConcurrency bounds the number of concurrent backend calls made
// by GetMany and SetMany. Zero or negative means unbounded.
func WithLookupConcurrency(n int) StoreOption {
	return func(s *Store) {
		s.concurrency = n
	}
}

// NewStore creates a Store over backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend:     backend,
		logger:      zerolog.Nop(),
		concurrency: 32,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get looks up a single key.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	if s == nil || s.backend == nil {
		return "", false
	}

	value, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		return "", false
	}
	return value, ok
}

// Set writes a single key and reports whether the write succeeded.
func (s *Store) Set(ctx context.Context, key, value string) bool {
	if s == nil || s.backend == nil {
		return false
	}

	if err := s.backend.Set(ctx, key, value); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
		return false
	}
	return true
}

// GetMany looks up all keys concurrently. The result is index-aligned with
// keys; duplicate keys are fetched once.
func (s *Store) GetMany(ctx context.Context, keys []string) []Lookup {
	out := make([]Lookup, len(keys))
	if len(keys) == 0 {
		return out
	}

	unique := make(map[string]int, len(keys))
	order := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, seen := unique[key]; !seen {
			unique[key] = len(order)
			order = append(order, key)
		}
	}

	fetched := make([]Lookup, len(order))
	g := s.group()
	for i, key := range order {
		g.Go(func() error {
			value, ok := s.Get(ctx, key)
			fetched[i] = Lookup{Value: value, Found: ok}
			return nil
		})
	}
	_ = g.Wait()

	for i, key := range keys {
		out[i] = fetched[unique[key]]
	}
	return out
}

// SetMany writes all entries concurrently and returns how many succeeded.
func (s *Store) SetMany(ctx context.Context, entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}

	ok := make([]bool, len(entries))
	g := s.group()
	for i, entry := range entries {
		g.Go(func() error {
			ok[i] = s.Set(ctx, entry.Key, entry.Value)
			return nil
		})
	}
	_ = g.Wait()

	written := 0
	for _, success := range ok {
		if success {
			written++
		}
	}
	return written
}

func (s *Store) group() *errgroup.Group {
	g := new(errgroup.Group)
	if s != nil && s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	return g
}
