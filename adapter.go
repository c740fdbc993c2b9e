package tlcache

import (
	"context"
	"errors"
	"time"
)

// Provider is the interface for translation backends.
type Provider interface {
	// Name identifies the provider in logs and results.
	Name() string

	// Translate returns one translation per request text, in order.
	Translate(ctx context.Context, req BatchRequest) ([]string, error)
}

type modelReporter interface {
	Model() string
}

func providerModel(p Provider) string {
	if m, ok := p.(modelReporter); ok {
		return m.Model()
	}
	return ""
}

// BatchTranslator is what the orchestrator needs from an adapter.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, req BatchRequest) BatchResult
}

// Adapter turns a Provider into a call that never fails: retries and rate
// limits are applied here, and if the provider still fails the original
// texts come back unchanged. Callers persist those originals as placeholders
// so a failing provider is not asked about the same text on every request,
// unless the log is marked Cancelled.
type Adapter struct {
	provider  Provider
	retry     RetryConfig
	timeout   time.Duration
	sanitizer Sanitizer
}

// AdapterOption is a functional option for configuring the Adapter.
type AdapterOption func(*Adapter)

// WithRetryConfig sets the retry policy for provider calls.
func WithRetryConfig(cfg RetryConfig) AdapterOption {
	return func(a *Adapter) {
		a.retry = cfg
	}
}

// WithRateLimit wraps the provider with a token bucket limiter.
func WithRateLimit(cfg RateLimitConfig) AdapterOption {
	return func(a *Adapter) {
		a.provider = NewRateLimitedProvider(a.provider, cfg)
	}
}

// WithCallTimeout bounds a whole TranslateBatch call, retries included.
func WithCallTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.timeout = d
	}
}

// WithResultSanitizer sets the check applied to each individual result.
// Rejected results are replaced with the original text.
func WithResultSanitizer(s Sanitizer) AdapterOption {
	return func(a *Adapter) {
		if s != nil {
			a.sanitizer = s
		}
	}
}

// NewAdapter creates an Adapter around provider.
func NewAdapter(provider Provider, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		provider:  provider,
		retry:     DefaultRetryConfig(),
		timeout:   2 * time.Minute,
		sanitizer: LabelEchoSanitizer,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// TranslateBatch translates req.Texts into req.TargetLocale. The result is
// always index-aligned with req.Texts.
func (a *Adapter) TranslateBatch(ctx context.Context, req BatchRequest) BatchResult {
	log := ProviderLog{
		Provider: a.provider.Name(),
		Model:    providerModel(a.provider),
		Texts:    len(req.Texts),
	}
	if len(req.Texts) == 0 {
		return BatchResult{Translations: []string{}, Log: log}
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	translations, attempts, err := WithRetry(callCtx, a.retry, func() ([]string, error) {
		out, err := a.provider.Translate(callCtx, req)
		if err != nil {
			return nil, err
		}
		if len(out) != len(req.Texts) {
			return nil, &CountMismatchError{Expected: len(req.Texts), Got: len(out)}
		}
		return out, nil
	})
	log.Attempts = attempts
	log.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		log.Fallback = true
		log.Cancelled = cutShort(callCtx, err)
		log.Error = err.Error()
		return BatchResult{
			Translations: append([]string(nil), req.Texts...),
			Log:          log,
		}
	}

	for i, value := range translations {
		if !a.sanitizer(value, req.TargetLocale) {
			translations[i] = req.Texts[i]
			log.Replaced++
		}
	}

	return BatchResult{Translations: translations, Log: log}
}

// cutShort reports whether err comes from our own cancellation, deadline or
// throttling rather than from the provider.
func cutShort(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrRateLimitWait)
}
