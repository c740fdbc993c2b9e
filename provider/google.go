package provider

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ZaguanLabs/tlcache"
)

// googleClient is the part of *translate.Client the provider uses.
type googleClient interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)
	Close() error
}

// GoogleConfig holds configuration for the Google Cloud Translation provider.
type GoogleConfig struct {
	APIKey string // API key; application default credentials are used when empty
	Model  string // "nmt" or "base" (default: "nmt")
}

// GoogleProvider implements Provider with Google Cloud Translation (v2).
type GoogleProvider struct {
	client googleClient
	model  string
}

// NewGoogleProvider creates a Google Cloud Translation client.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create google translate client: %w", err)
	}

	return newGoogleProvider(client, cfg.Model), nil
}

func newGoogleProvider(client googleClient, model string) *GoogleProvider {
	if model == "" {
		model = "nmt"
	}
	return &GoogleProvider{client: client, model: model}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string {
	return "google"
}

// Model returns the translation model requested from Google.
func (p *GoogleProvider) Model() string {
	return p.model
}

// Translate implements Provider.
func (p *GoogleProvider) Translate(ctx context.Context, req BatchRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	target, err := language.Parse(tlcache.NormalizeLocale(req.TargetLocale))
	if err != nil {
		return nil, &tlcache.ProviderError{
			Message:   fmt.Sprintf("unsupported target locale %q", req.TargetLocale),
			Cause:     err,
			Retryable: false,
		}
	}

	opts := &translate.Options{
		Format: translate.Text,
		Model:  p.model,
	}
	if req.SourceLocale != "" {
		if source, err := language.Parse(tlcache.NormalizeLocale(req.SourceLocale)); err == nil {
			opts.Source = source
		}
	}

	out, err := p.client.Translate(ctx, req.Texts, target, opts)
	if err != nil {
		return nil, &tlcache.ProviderError{
			Message:   "Google Translate call failed",
			Cause:     err,
			Retryable: isRetryableGoogleError(err),
		}
	}

	if len(out) != len(req.Texts) {
		return nil, &tlcache.CountMismatchError{Expected: len(req.Texts), Got: len(out)}
	}

	results := make([]string, len(out))
	for i, t := range out {
		// The v2 API escapes entities even in text mode.
		results[i] = html.UnescapeString(t.Text)
	}
	return results, nil
}

// Close releases the underlying client.
func (p *GoogleProvider) Close() error {
	return p.client.Close()
}

func isRetryableGoogleError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return false
}

var _ Provider = (*GoogleProvider)(nil)
