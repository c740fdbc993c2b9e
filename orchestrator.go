package tlcache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BatchRunner runs a batch translation across target locales.
type BatchRunner interface {
	Run(ctx context.Context, sourceLocale string, targetLocales []string, items []Item) Results
}

// Orchestrator translates a set of items into several locales and writes
// every result to the Store. Locales are processed in parallel and a failure
// in one never affects the others.
type Orchestrator struct {
	adapter BatchTranslator
	store   *Store
	logger  zerolog.Logger
}

// OrchestratorOption is a functional option for configuring the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the orchestrator's logger.
func WithOrchestratorLogger(logger zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(adapter BatchTranslator, store *Store, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		adapter: adapter,
		store:   store,
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run translates items from sourceLocale into each of targetLocales. The
// returned Results has one entry per distinct normalized target. Targets
// equal to the source are reported as skipped and never written.
func (o *Orchestrator) Run(ctx context.Context, sourceLocale string, targetLocales []string, items []Item) Results {
	source := NormalizeLocale(sourceLocale)
	texts := uniqueTexts(items)

	results := make(Results, len(targetLocales))
	var mu sync.Mutex

	var g errgroup.Group
	seen := make(map[string]struct{}, len(targetLocales))
	for _, raw := range targetLocales {
		target := NormalizeLocale(raw)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}

		if target == source {
			mu.Lock()
			results[target] = LocaleResult{Skipped: true}
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			res := o.runLocale(ctx, source, target, texts)
			mu.Lock()
			results[target] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) runLocale(ctx context.Context, source, target string, texts []string) (res LocaleResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("locale", target).Interface("panic", r).Msg("batch translation panicked")
			res = LocaleResult{Log: ProviderLog{
				Texts:    len(texts),
				Fallback: true,
				Error:    fmt.Sprintf("panic: %v", r),
			}}
		}
	}()

	if len(texts) == 0 {
		return LocaleResult{Log: ProviderLog{}}
	}

	batch := o.adapter.TranslateBatch(ctx, BatchRequest{
		Texts:        texts,
		SourceLocale: source,
		TargetLocale: target,
	})

	// Originals from a call we cut short ourselves are not placeholders.
	if batch.Log.Cancelled {
		o.logger.Warn().
			Str("source", source).
			Str("locale", target).
			Int("texts", len(texts)).
			Str("error", batch.Log.Error).
			Msg("batch translation cancelled, nothing written")
		return LocaleResult{Log: batch.Log}
	}

	entries := make([]Entry, 0, len(texts))
	for i, text := range texts {
		if i >= len(batch.Translations) {
			break
		}
		entries = append(entries, Entry{
			Key:   CacheKeyForText(text, target),
			Value: batch.Translations[i],
		})
	}

	// Writes outlive a cancelled caller so finished provider work is kept.
	written := o.store.SetMany(context.WithoutCancel(ctx), entries)

	event := o.logger.Info()
	if batch.Log.Fallback {
		event = o.logger.Warn().Str("error", batch.Log.Error)
	}
	event.
		Str("source", source).
		Str("locale", target).
		Int("texts", len(texts)).
		Int("written", written).
		Int("attempts", batch.Log.Attempts).
		Int64("latency_ms", batch.Log.LatencyMs).
		Msg("batch translated")

	return LocaleResult{Log: batch.Log, Written: written}
}

// uniqueTexts returns the distinct non-blank texts of items in first-seen order.
func uniqueTexts(items []Item) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		if _, dup := seen[item.Text]; dup {
			continue
		}
		seen[item.Text] = struct{}{}
		out = append(out, item.Text)
	}
	return out
}
