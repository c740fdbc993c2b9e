// Package enhancer swaps rendered page text for cached translations once the
// page has settled. It never asks a provider for anything: it only reads what
// the cache endpoint already holds, so a page rendered with originals picks
// up translations that were backfilled after it was served.
package enhancer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ZaguanLabs/tlcache"
)

// Translator returns, for each text, what should be shown in locale.
// Results are index-aligned with texts.
type Translator interface {
	Translate(ctx context.Context, locale, defaultLocale string, texts []string) ([]string, error)
}

// Report summarizes one Run.
type Report struct {
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Total    int    `json:"total"`    // Text nodes considered
	Queried  int    `json:"queried"`  // Distinct source texts sent to the translator
	Replaced int    `json:"replaced"` // Text nodes swapped
}

// Enhancer re-queries the cache for a rendered document and swaps text that
// has a translation available.
type Enhancer struct {
	translator    Translator
	session       *Session
	defaultLocale string
	settle        time.Duration
	logger        zerolog.Logger
}

// Option is a functional option for configuring the Enhancer.
type Option func(*Enhancer)

// WithDefaultLocale sets the locale pages are authored in (default: "en").
func WithDefaultLocale(locale string) Option {
	return func(e *Enhancer) {
		e.defaultLocale = locale
	}
}

// WithSettleDelay sets how long Run waits before reading the document.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Enhancer) {
		e.settle = d
	}
}

// WithLogger sets the enhancer's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Enhancer) {
		e.logger = logger
	}
}

// New creates an Enhancer. A nil session gets a fresh one.
func New(translator Translator, session *Session, opts ...Option) *Enhancer {
	if session == nil {
		session = NewSession()
	}
	e := &Enhancer{
		translator:    translator,
		session:       session,
		defaultLocale: "en",
		settle:        1500 * time.Millisecond,
		logger:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Session returns the session guarding this enhancer.
func (e *Enhancer) Session() *Session {
	return e.session
}

// Run returns document with every text node that has a cached translation in
// locale swapped in. It does nothing for the default locale or for a
// navigation that already ran. On a translator error the document is
// returned unchanged together with the error.
func (e *Enhancer) Run(ctx context.Context, navigationID, locale, document string) (string, Report, error) {
	if strings.TrimSpace(locale) == "" || tlcache.SameLocale(locale, e.defaultLocale) {
		return document, Report{Skipped: true, Reason: "default locale"}, nil
	}
	if !e.session.begin(navigationID, locale) {
		return document, Report{Skipped: true, Reason: "already ran"}, nil
	}

	if e.settle > 0 {
		timer := time.NewTimer(e.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return document, Report{}, ctx.Err()
		case <-timer.C:
		}
	}

	full := isFullDocument(document)
	root, err := parse(document, full)
	if err != nil {
		return document, Report{}, &tlcache.ProcessorError{Message: "parse document", Cause: err, ContentType: "html"}
	}

	adapter := NewHTMLAdapter(root)
	leaves := CollectLeaves[*html.Node](adapter, root)
	report := Report{Total: len(leaves)}

	var sources []string
	seen := make(map[string]struct{})
	for _, leaf := range leaves {
		src := e.session.source(locale, strings.TrimSpace(leaf))
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	report.Queried = len(sources)
	if len(sources) == 0 {
		return document, report, nil
	}

	translated, err := e.translator.Translate(ctx, locale, e.defaultLocale, sources)
	if err != nil {
		return document, report, fmt.Errorf("lookup translations: %w", err)
	}
	if len(translated) != len(sources) {
		return document, report, &tlcache.CountMismatchError{Expected: len(sources), Got: len(translated)}
	}

	bySource := make(map[string]string, len(sources))
	for i, src := range sources {
		bySource[src] = translated[i]
	}

	out := MapLeaves[*html.Node](adapter, root, func(text string) string {
		shown := strings.TrimSpace(text)
		src := e.session.source(locale, shown)
		next := strings.TrimSpace(bySource[src])
		if next == "" || next == shown {
			return text
		}
		e.session.remember(locale, next, src)
		report.Replaced++
		return preserveWhitespace(text, next)
	})

	if full {
		goquery.NewDocumentFromNode(out).Find("html").
			SetAttr("lang", tlcache.NormalizeLocale(locale)).
			SetAttr("dir", tlcache.GetDirection(locale))
	}

	rendered, err := render(out, full)
	if err != nil {
		return document, report, &tlcache.ProcessorError{Message: "render document", Cause: err, ContentType: "html"}
	}

	e.logger.Debug().
		Str("navigation", navigationID).
		Str("locale", locale).
		Int("total", report.Total).
		Int("replaced", report.Replaced).
		Msg("page enhanced")

	return rendered, report, nil
}

func isFullDocument(document string) bool {
	lower := strings.ToLower(document)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}

// parse returns the document node for a full page, or a detached <body>
// holding the parsed fragment.
func parse(document string, full bool) (*html.Node, error) {
	if full {
		return html.Parse(strings.NewReader(document))
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(document), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, nil
}

func render(root *html.Node, full bool) (string, error) {
	var buf bytes.Buffer
	if full {
		if err := html.Render(&buf, root); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
