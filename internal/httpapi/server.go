package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/tlcache"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// SupportedLocales limits which target locales are served. Requests for
	// any other locale get their originals back. Empty means every locale.
	SupportedLocales []string
}

type Server struct {
	resolver  *tlcache.Resolver
	batch     tlcache.BatchRunner
	logger    zerolog.Logger
	opts      Options
	supported map[string]struct{}
}

func NewServer(resolver *tlcache.Resolver, batch tlcache.BatchRunner, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Minute
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	supported := make(map[string]struct{}, len(opts.SupportedLocales))
	for _, locale := range opts.SupportedLocales {
		if normalized := tlcache.NormalizeLocale(locale); normalized != "" {
			supported[normalized] = struct{}{}
		}
	}

	return &Server{
		resolver:  resolver,
		batch:     batch,
		logger:    logger,
		supported: supported,
		opts: Options{
			Host:             host,
			Port:             port,
			ReadTimeout:      readTimeout,
			WriteTimeout:     writeTimeout,
			ShutdownTimeout:  shutdownTimeout,
			SupportedLocales: opts.SupportedLocales,
		},
	}
}

// Handler builds the echo instance serving the API.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("4M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Info()
			if v.Error != nil {
				event = s.logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/translate", s.handleBatch)
	api.POST("/translate/cache", s.handleCache)
	api.POST("/translate/html", s.handleHTML)

	return e
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.resolver == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.Handler()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("tlcache server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("tlcache server stopped")
	return nil
}

// supports reports whether locale may be served. A listed base language
// admits its regional variants.
func (s *Server) supports(locale string) bool {
	if len(s.supported) == 0 {
		return true
	}
	if _, ok := s.supported[tlcache.NormalizeLocale(locale)]; ok {
		return true
	}
	_, ok := s.supported[tlcache.BaseLanguage(locale)]
	return ok
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var ve *tlcache.ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		_ = c.JSON(http.StatusBadRequest, errorResponse{Error: ve.Error()})
	case errors.As(err, &he):
		message := http.StatusText(he.Code)
		if v, ok := he.Message.(string); ok && strings.TrimSpace(v) != "" {
			message = v
		}
		if he.Code >= 500 {
			s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
			message = "internal server error"
		}
		_ = c.JSON(he.Code, errorResponse{Error: message})
	default:
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
		_ = c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
