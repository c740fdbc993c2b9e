package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ZaguanLabs/tlcache"
	"github.com/ZaguanLabs/tlcache/enhancer"
)

type cacheRequest struct {
	Locale        string   `json:"locale"`
	DefaultLocale string   `json:"defaultLocale"`
	Texts         []string `json:"texts"`
}

type cacheResponse struct {
	Translations []string `json:"translations"`
}

type batchRequest struct {
	SourceLocale  string         `json:"sourceLocale"`
	TargetLocales []string       `json:"targetLocales"`
	Items         []tlcache.Item `json:"items"`
}

type batchResponse struct {
	OK      bool            `json:"ok"`
	Results tlcache.Results `json:"results"`
}

type htmlRequest struct {
	Locale        string `json:"locale"`
	DefaultLocale string `json:"defaultLocale"`
	HTML          string `json:"html"`
}

type htmlResponse struct {
	HTML     string `json:"html"`
	Replaced int    `json:"replaced"`
	Total    int    `json:"total"`
}

func readPayload(c echo.Context, schemaName string, dst any) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	return decodePayload(raw, schemaName, dst)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"service": tlcache.Name,
		"version": tlcache.FullVersion(),
	})
}

// handleCache answers from the cache only. Misses come back as originals and
// are queued for backfill by the resolver.
func (s *Server) handleCache(c echo.Context) error {
	var req cacheRequest
	if err := readPayload(c, cacheRequestSchema, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Locale) == "" {
		return &tlcache.ValidationError{Field: "locale", Message: "must not be blank"}
	}

	texts := req.Texts
	if texts == nil {
		texts = []string{}
	}

	if !s.supports(req.Locale) {
		return c.JSON(http.StatusOK, cacheResponse{Translations: texts})
	}

	out := s.resolver.GetTranslationsOrDefault(c.Request().Context(), texts, req.Locale, req.DefaultLocale)
	translations := make([]string, len(out))
	for i, value := range out {
		if value != texts[i] && !s.resolver.Sanitize(value, req.Locale) {
			value = texts[i]
		}
		translations[i] = value
	}

	return c.JSON(http.StatusOK, cacheResponse{Translations: translations})
}

// handleBatch runs the orchestrator synchronously. The run is detached from
// the request so a client disconnect does not abandon provider work.
func (s *Server) handleBatch(c echo.Context) error {
	var req batchRequest
	if err := readPayload(c, batchRequestSchema, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.SourceLocale) == "" {
		return &tlcache.ValidationError{Field: "sourceLocale", Message: "must not be blank"}
	}
	if s.batch == nil {
		return fmt.Errorf("batch translation is not configured")
	}

	targets := make([]string, 0, len(req.TargetLocales))
	rejected := make([]string, 0)
	for _, locale := range req.TargetLocales {
		if s.supports(locale) {
			targets = append(targets, locale)
		} else {
			rejected = append(rejected, tlcache.NormalizeLocale(locale))
		}
	}

	results := s.batch.Run(context.WithoutCancel(c.Request().Context()), req.SourceLocale, targets, req.Items)
	if results == nil {
		results = tlcache.Results{}
	}
	for _, locale := range rejected {
		if locale == "" {
			continue
		}
		if _, done := results[locale]; !done {
			results[locale] = tlcache.LocaleResult{Skipped: true}
		}
	}

	return c.JSON(http.StatusOK, batchResponse{OK: true, Results: results})
}

// handleHTML swaps cached translations into an HTML document or fragment.
func (s *Server) handleHTML(c echo.Context) error {
	var req htmlRequest
	if err := readPayload(c, htmlRequestSchema, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Locale) == "" {
		return &tlcache.ValidationError{Field: "locale", Message: "must not be blank"}
	}

	if !s.supports(req.Locale) {
		return c.JSON(http.StatusOK, htmlResponse{HTML: req.HTML})
	}

	defaultLocale := req.DefaultLocale
	if strings.TrimSpace(defaultLocale) == "" {
		defaultLocale = s.resolver.DefaultLocale()
	}

	e := enhancer.New(
		enhancer.NewLocalTranslator(s.resolver),
		enhancer.NewSession(),
		enhancer.WithDefaultLocale(defaultLocale),
		enhancer.WithSettleDelay(0),
		enhancer.WithLogger(s.logger),
	)

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	out, report, err := e.Run(c.Request().Context(), requestID, req.Locale, req.HTML)
	if err != nil {
		return fmt.Errorf("enhance html: %w", err)
	}

	return c.JSON(http.StatusOK, htmlResponse{
		HTML:     out,
		Replaced: report.Replaced,
		Total:    report.Total,
	})
}
