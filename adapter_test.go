package tlcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// stubProvider answers "[locale] text" unless fn is set.
type stubProvider struct {
	name  string
	model string
	fn    func(req BatchRequest) ([]string, error)

	mu    sync.Mutex
	calls int
	reqs  []BatchRequest
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Model() string { return p.model }

func (p *stubProvider) Translate(ctx context.Context, req BatchRequest) ([]string, error) {
	p.mu.Lock()
	p.calls++
	p.reqs = append(p.reqs, req)
	p.mu.Unlock()

	if p.fn != nil {
		return p.fn(req)
	}
	out := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		out[i] = "[" + req.TargetLocale + "] " + text
	}
	return out, nil
}

func (p *stubProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestAdapter_TranslateBatch(t *testing.T) {
	p := &stubProvider{name: "stub", model: "stub-1"}
	a := NewAdapter(p, WithRetryConfig(fastRetry(2)))

	res := a.TranslateBatch(context.Background(), BatchRequest{
		Texts:        []string{"Hello", "World"},
		SourceLocale: "en",
		TargetLocale: "sv",
	})

	if len(res.Translations) != 2 {
		t.Fatalf("Expected 2 translations, got %d", len(res.Translations))
	}
	if res.Translations[0] != "[sv] Hello" || res.Translations[1] != "[sv] World" {
		t.Errorf("Unexpected translations: %v", res.Translations)
	}
	if res.Log.Provider != "stub" || res.Log.Model != "stub-1" {
		t.Errorf("Expected provider stub/stub-1 in log, got %+v", res.Log)
	}
	if res.Log.Attempts != 1 || res.Log.Fallback || res.Log.Texts != 2 {
		t.Errorf("Unexpected log: %+v", res.Log)
	}
}

func TestAdapter_EmptyBatch(t *testing.T) {
	p := &stubProvider{name: "stub"}
	a := NewAdapter(p)

	res := a.TranslateBatch(context.Background(), BatchRequest{TargetLocale: "sv"})
	if res.Translations == nil || len(res.Translations) != 0 {
		t.Errorf("Expected empty non-nil translations, got %v", res.Translations)
	}
	if p.Calls() != 0 {
		t.Errorf("Provider should not be called for an empty batch")
	}
}

func TestAdapter_ProviderFailureReturnsOriginals(t *testing.T) {
	p := &stubProvider{
		name: "stub",
		fn: func(req BatchRequest) ([]string, error) {
			return nil, &ProviderError{Message: "service unavailable", Retryable: true}
		},
	}
	a := NewAdapter(p, WithRetryConfig(fastRetry(2)))

	texts := []string{"Hello", "World"}
	res := a.TranslateBatch(context.Background(), BatchRequest{Texts: texts, TargetLocale: "sv"})

	if len(res.Translations) != 2 || res.Translations[0] != "Hello" || res.Translations[1] != "World" {
		t.Errorf("Expected originals, got %v", res.Translations)
	}
	if !res.Log.Fallback {
		t.Error("Expected Fallback in log")
	}
	if res.Log.Cancelled {
		t.Error("A provider failure is not a cancellation")
	}
	if !strings.Contains(res.Log.Error, "service unavailable") {
		t.Errorf("Expected provider error in log, got %q", res.Log.Error)
	}
	if p.Calls() != 3 || res.Log.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got calls=%d attempts=%d", p.Calls(), res.Log.Attempts)
	}

	res.Translations[0] = "changed"
	if texts[0] != "Hello" {
		t.Error("Fallback result must not alias the request texts")
	}
}

func TestAdapter_FatalErrorNotRetried(t *testing.T) {
	p := &stubProvider{
		name: "stub",
		fn: func(req BatchRequest) ([]string, error) {
			return nil, errors.New("invalid api key")
		},
	}
	a := NewAdapter(p, WithRetryConfig(fastRetry(3)))

	res := a.TranslateBatch(context.Background(), BatchRequest{Texts: []string{"Hello"}, TargetLocale: "sv"})
	if !res.Log.Fallback || res.Translations[0] != "Hello" {
		t.Errorf("Expected fallback to original, got %+v", res)
	}
	if p.Calls() != 1 {
		t.Errorf("Expected 1 call, got %d", p.Calls())
	}
}

func TestAdapter_CountMismatchRetried(t *testing.T) {
	var mu sync.Mutex
	call := 0
	p := &stubProvider{
		name: "stub",
		fn: func(req BatchRequest) ([]string, error) {
			mu.Lock()
			defer mu.Unlock()
			call++
			if call == 1 {
				return []string{"Hej"}, nil
			}
			return []string{"Hej", "Värld"}, nil
		},
	}
	a := NewAdapter(p, WithRetryConfig(fastRetry(2)))

	res := a.TranslateBatch(context.Background(), BatchRequest{Texts: []string{"Hello", "World"}, TargetLocale: "sv"})
	if res.Log.Fallback {
		t.Fatalf("Expected success after retry, got %+v", res.Log)
	}
	if res.Translations[1] != "Värld" || res.Log.Attempts != 2 {
		t.Errorf("Unexpected result: %v attempts=%d", res.Translations, res.Log.Attempts)
	}
}

func TestAdapter_LabelEchoReplaced(t *testing.T) {
	p := &stubProvider{
		name: "stub",
		fn: func(req BatchRequest) ([]string, error) {
			return []string{"italiano: ", "Benvenuto", ""}, nil
		},
	}
	a := NewAdapter(p)

	res := a.TranslateBatch(context.Background(), BatchRequest{
		Texts:        []string{"Join now", "Welcome", "Sign in"},
		TargetLocale: "it",
	})

	expected := []string{"Join now", "Benvenuto", "Sign in"}
	for i, want := range expected {
		if res.Translations[i] != want {
			t.Errorf("translation %d: expected %q, got %q", i, want, res.Translations[i])
		}
	}
	if res.Log.Replaced != 2 {
		t.Errorf("Expected 2 replaced, got %d", res.Log.Replaced)
	}
	if res.Log.Fallback {
		t.Error("Per-item replacement is not a batch fallback")
	}
}

func TestAdapter_CustomSanitizer(t *testing.T) {
	p := &stubProvider{
		name: "stub",
		fn: func(req BatchRequest) ([]string, error) {
			return []string{"Italian:"}, nil
		},
	}
	a := NewAdapter(p, WithResultSanitizer(AcceptNonEmpty))

	res := a.TranslateBatch(context.Background(), BatchRequest{Texts: []string{"Hello"}, TargetLocale: "it"})
	if res.Translations[0] != "Italian:" {
		t.Errorf("Expected custom sanitizer to accept the value, got %q", res.Translations[0])
	}
}

func TestAdapter_CallTimeout(t *testing.T) {
	p := &stubProvider{name: "stub"}
	p.fn = func(req BatchRequest) ([]string, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, &ProviderError{Message: "slow", Retryable: true}
	}
	a := NewAdapter(p,
		WithRetryConfig(RetryConfig{MaxRetries: 10, BaseDelay: 20 * time.Millisecond, MaxDelay: 20 * time.Millisecond}),
		WithCallTimeout(30*time.Millisecond),
	)

	start := time.Now()
	res := a.TranslateBatch(context.Background(), BatchRequest{Texts: []string{"Hello"}, TargetLocale: "sv"})
	if !res.Log.Fallback || !res.Log.Cancelled {
		t.Errorf("Expected a cancelled fallback after timeout, got %+v", res.Log)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Timeout should stop retries early, took %v", elapsed)
	}
}

func TestAdapter_WithRateLimit(t *testing.T) {
	p := &stubProvider{name: "stub", model: "m"}
	a := NewAdapter(p, WithRateLimit(RateLimitConfig{RequestsPerMinute: 600}))

	res := a.TranslateBatch(context.Background(), BatchRequest{Texts: []string{"Hello"}, TargetLocale: "sv"})
	if res.Log.Provider != "stub" || res.Log.Model != "m" {
		t.Errorf("Rate limiting should keep provider identity, got %+v", res.Log)
	}
	if res.Translations[0] != "[sv] Hello" {
		t.Errorf("Unexpected translation %q", res.Translations[0])
	}
}

func TestAdapter_CancelledCallerMarksLog(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &stubProvider{name: "stub"}
	p.fn = func(req BatchRequest) ([]string, error) {
		cancel()
		return nil, &ProviderError{Message: "request aborted", Cause: context.Canceled}
	}
	a := NewAdapter(p, WithRetryConfig(fastRetry(2)))

	res := a.TranslateBatch(ctx, BatchRequest{Texts: []string{"Hello"}, TargetLocale: "sv"})
	if res.Translations[0] != "Hello" {
		t.Errorf("Expected the original, got %q", res.Translations[0])
	}
	if !res.Log.Fallback || !res.Log.Cancelled {
		t.Errorf("Expected a cancelled fallback, got %+v", res.Log)
	}
}

func TestAdapter_ThrottledMarksLog(t *testing.T) {
	p := &stubProvider{name: "stub"}
	a := NewAdapter(p,
		WithRateLimit(RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1}),
		WithCallTimeout(50*time.Millisecond),
	)

	first := a.TranslateBatch(context.Background(), BatchRequest{Texts: []string{"Hello"}, TargetLocale: "sv"})
	if first.Log.Fallback {
		t.Fatalf("First call should use the burst token, got %+v", first.Log)
	}

	second := a.TranslateBatch(context.Background(), BatchRequest{Texts: []string{"Bye"}, TargetLocale: "sv"})
	if !second.Log.Cancelled {
		t.Errorf("A refused rate limiter wait should be marked cancelled, got %+v", second.Log)
	}
	if p.Calls() != 1 {
		t.Errorf("Provider should not be called while throttled, got %d calls", p.Calls())
	}
}
