package tlcache

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// BackfillSubmitter accepts background translation work. Submit must not
// block; it reports whether the job was accepted.
type BackfillSubmitter interface {
	Submit(job BackfillJob) bool
}

// Resolver answers "what should be shown for these texts in this locale"
// using only what is already cached.
type Resolver struct {
	store         *Store
	backfill      BackfillSubmitter
	sanitizer     Sanitizer
	defaultLocale string
	logger        zerolog.Logger
}

// ResolverOption is a functional option for configuring the Resolver.
type ResolverOption func(*Resolver)

// WithBackfill sets where cache misses are sent for background translation.
func WithBackfill(b BackfillSubmitter) ResolverOption {
	return func(r *Resolver) {
		r.backfill = b
	}
}

// WithSanitizer sets the check applied to cached values before they are shown.
func WithSanitizer(s Sanitizer) ResolverOption {
	return func(r *Resolver) {
		if s != nil {
			r.sanitizer = s
		}
	}
}

// WithDefaultLocale sets the locale used when a caller passes an empty default.
func WithDefaultLocale(locale string) ResolverOption {
	return func(r *Resolver) {
		r.defaultLocale = locale
	}
}

// WithResolverLogger sets the resolver's logger.
func WithResolverLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver reading from store.
func NewResolver(store *Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:         store,
		sanitizer:     LabelEchoSanitizer,
		defaultLocale: "en",
		logger:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// DefaultLocale returns the locale used when callers pass an empty default.
func (r *Resolver) DefaultLocale() string {
	return r.defaultLocale
}

// Sanitize reports whether value may be shown for locale under the
// resolver's sanitizer.
func (r *Resolver) Sanitize(value, locale string) bool {
	return r.sanitizer(value, NormalizeLocale(locale))
}

// GetTranslationsOrDefault returns, for each text, its cached translation in
// targetLocale or the text itself. The result has the same length and order
// as texts. When targetLocale is the default locale texts is returned as-is
// without touching the cache.
//
// Misses are handed to the backfill without waiting for it.
func (r *Resolver) GetTranslationsOrDefault(ctx context.Context, texts []string, targetLocale, defaultLocale string) []string {
	if strings.TrimSpace(defaultLocale) == "" {
		defaultLocale = r.defaultLocale
	}
	if strings.TrimSpace(targetLocale) == "" || SameLocale(targetLocale, defaultLocale) {
		return texts
	}
	if len(texts) == 0 {
		return []string{}
	}

	target := NormalizeLocale(targetLocale)
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = CacheKeyForText(text, target)
	}

	lookups := r.store.GetMany(ctx, keys)

	out := make([]string, len(texts))
	var missed []string
	seen := make(map[string]struct{})
	for i, text := range texts {
		hit := lookups[i]
		if hit.Found && r.sanitizer(hit.Value, target) {
			out[i] = hit.Value
			continue
		}

		out[i] = text
		if strings.TrimSpace(text) == "" {
			continue
		}
		// A placeholder equal to the source is already a settled answer.
		if hit.Found && hit.Value == text {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		missed = append(missed, text)
	}

	if len(missed) > 0 && r.backfill != nil {
		job := BackfillJob{
			SourceLocale: NormalizeLocale(defaultLocale),
			TargetLocale: target,
			Texts:        missed,
		}
		if !r.backfill.Submit(job) {
			r.logger.Debug().
				Str("locale", target).
				Int("texts", len(missed)).
				Msg("backfill not scheduled")
		}
	}

	return out
}
