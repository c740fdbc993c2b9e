package tlcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrBackfillClosed is returned by Close when called more than once.
var ErrBackfillClosed = errors.New("backfill closed")

// BackfillJob asks for Texts to be translated from SourceLocale into
// TargetLocale and stored.
type BackfillJob struct {
	SourceLocale string
	TargetLocale string
	Texts        []string
}

// BackfillConfig configures a Backfiller.
type BackfillConfig struct {
	Workers    int           // Number of worker goroutines (default: 4)
	QueueSize  int           // Jobs buffered before Submit starts dropping (default: 256)
	JobTimeout time.Duration // Upper bound for one job (default: 2m)
}

// Backfiller runs backfill jobs on a fixed pool of workers whose lifetime is
// tied to the Backfiller, not to the request that submitted the job. Texts
// already queued or running for a locale are not queued again.
type Backfiller struct {
	runner  BatchRunner
	logger  zerolog.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan BackfillJob
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
}

// BackfillOption is a functional option for configuring the Backfiller.
type BackfillOption func(*Backfiller)

// WithBackfillLogger sets the backfiller's logger.
func WithBackfillLogger(logger zerolog.Logger) BackfillOption {
	return func(b *Backfiller) {
		b.logger = logger
	}
}

// NewBackfiller starts the worker pool. Call Close to drain and stop it.
func NewBackfiller(runner BatchRunner, cfg BackfillConfig, opts ...BackfillOption) *Backfiller {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Backfiller{
		runner:   runner,
		logger:   zerolog.Nop(),
		timeout:  cfg.JobTimeout,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(chan BackfillJob, cfg.QueueSize),
		inflight: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go b.worker()
	}

	return b
}

// Submit queues job without blocking. It returns false when the backfiller
// is closed or the queue is full. Texts already pending for the same target
// are dropped from the job; a job left with nothing to do counts as accepted.
func (b *Backfiller) Submit(job BackfillJob) bool {
	job.SourceLocale = NormalizeLocale(job.SourceLocale)
	job.TargetLocale = NormalizeLocale(job.TargetLocale)
	if job.TargetLocale == "" || SameLocale(job.SourceLocale, job.TargetLocale) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	pending := make([]string, 0, len(job.Texts))
	keys := make([]string, 0, len(job.Texts))
	for _, text := range job.Texts {
		key := CacheKeyForText(text, job.TargetLocale)
		if _, busy := b.inflight[key]; busy {
			continue
		}
		b.inflight[key] = struct{}{}
		pending = append(pending, text)
		keys = append(keys, key)
	}
	if len(pending) == 0 {
		return true
	}
	job.Texts = pending

	select {
	case b.jobs <- job:
		return true
	default:
		for _, key := range keys {
			delete(b.inflight, key)
		}
		b.logger.Warn().
			Str("locale", job.TargetLocale).
			Int("texts", len(pending)).
			Msg("backfill queue full, dropping job")
		return false
	}
}

// Pending returns the number of texts queued or running.
func (b *Backfiller) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight)
}

// Close stops accepting jobs and waits for queued ones to finish. If ctx ends
// first the running jobs are cancelled and ctx's error is returned.
func (b *Backfiller) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBackfillClosed
	}
	b.closed = true
	close(b.jobs)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.cancel()
		return nil
	case <-ctx.Done():
		b.cancel()
		<-done
		return ctx.Err()
	}
}

func (b *Backfiller) worker() {
	defer b.wg.Done()
	for job := range b.jobs {
		b.run(job)
	}
}

func (b *Backfiller) run(job BackfillJob) {
	defer b.release(job)
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Str("locale", job.TargetLocale).Msg("backfill job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()

	items := make([]Item, len(job.Texts))
	for i, text := range job.Texts {
		items[i] = Item{ID: ComputeStableHash(text).Encoded(), Text: text}
	}

	results := b.runner.Run(ctx, job.SourceLocale, []string{job.TargetLocale}, items)
	res := results[job.TargetLocale]
	b.logger.Debug().
		Str("locale", job.TargetLocale).
		Int("texts", len(items)).
		Int("written", res.Written).
		Bool("fallback", res.Log.Fallback).
		Bool("cancelled", res.Log.Cancelled).
		Msg("backfill finished")
}

func (b *Backfiller) release(job BackfillJob) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, text := range job.Texts {
		delete(b.inflight, CacheKeyForText(text, job.TargetLocale))
	}
}
