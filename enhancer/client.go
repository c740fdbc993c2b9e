package enhancer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZaguanLabs/tlcache"
)

// CachePath is the server route answering cache-only lookups.
const CachePath = "/api/translate/cache"

// Client calls the cache endpoint of a tlcache server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type cacheRequest struct {
	Locale        string   `json:"locale"`
	DefaultLocale string   `json:"defaultLocale,omitempty"`
	Texts         []string `json:"texts"`
}

type cacheResponse struct {
	Translations []string `json:"translations"`
	Error        string   `json:"error"`
}

// Translate implements Translator.
func (c *Client) Translate(ctx context.Context, locale, defaultLocale string, texts []string) ([]string, error) {
	body, err := json.Marshal(cacheRequest{Locale: locale, DefaultLocale: defaultLocale, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+CachePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", tlcache.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cache request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out cacheResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error == "" {
			out.Error = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("cache endpoint returned %d: %s", resp.StatusCode, out.Error)
	}

	return out.Translations, nil
}

// Lookup is the cache-only read the server side offers; *tlcache.Resolver
// satisfies it.
type Lookup interface {
	GetTranslationsOrDefault(ctx context.Context, texts []string, targetLocale, defaultLocale string) []string
}

// LocalTranslator serves a Translator straight from a Lookup, for enhancing
// documents inside the server process.
type LocalTranslator struct {
	lookup Lookup
}

// NewLocalTranslator wraps lookup.
func NewLocalTranslator(lookup Lookup) *LocalTranslator {
	return &LocalTranslator{lookup: lookup}
}

// Translate implements Translator. It never fails.
func (t *LocalTranslator) Translate(ctx context.Context, locale, defaultLocale string, texts []string) ([]string, error) {
	return t.lookup.GetTranslationsOrDefault(ctx, texts, locale, defaultLocale), nil
}

var (
	_ Translator = (*Client)(nil)
	_ Translator = (*LocalTranslator)(nil)
)
