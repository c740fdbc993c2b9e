package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/tlcache"
	"github.com/ZaguanLabs/tlcache/cache"
	"github.com/ZaguanLabs/tlcache/internal/config"
	"github.com/ZaguanLabs/tlcache/provider"
)

// app holds the wired pipeline for one process.
type app struct {
	cfg          *config.Config
	logger       zerolog.Logger
	backend      cache.Backend
	store        *tlcache.Store
	orchestrator *tlcache.Orchestrator
	backfill     *tlcache.Backfiller
	resolver     *tlcache.Resolver
	closers      []func() error
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.backend = backend
	if closeBackend != nil {
		a.closers = append(a.closers, closeBackend)
	}

	p, err := a.selectProvider(ctx)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}

	adapter := tlcache.NewAdapter(p,
		tlcache.WithRetryConfig(tlcache.RetryConfig{
			MaxRetries: cfg.ProviderMaxRetries,
			BaseDelay:  time.Second,
			MaxDelay:   30 * time.Second,
		}),
		tlcache.WithRateLimit(tlcache.RateLimitConfig{RequestsPerMinute: cfg.ProviderRequestsPerMinute}),
	)

	a.store = tlcache.NewStore(backend,
		tlcache.WithStoreLogger(logger),
		tlcache.WithLookupConcurrency(cfg.LookupConcurrency),
	)
	a.orchestrator = tlcache.NewOrchestrator(adapter, a.store, tlcache.WithOrchestratorLogger(logger))
	a.backfill = tlcache.NewBackfiller(a.orchestrator, tlcache.BackfillConfig{
		Workers:   cfg.BackfillWorkers,
		QueueSize: cfg.BackfillQueueSize,
	}, tlcache.WithBackfillLogger(logger))
	a.resolver = tlcache.NewResolver(a.store,
		tlcache.WithBackfill(a.backfill),
		tlcache.WithDefaultLocale(cfg.DefaultLocale),
		tlcache.WithResolverLogger(logger),
	)

	logger.Debug().
		Str("backend", cfg.Backend()).
		Str("provider", p.Name()).
		Msg("pipeline ready")

	return a, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (cache.Backend, func() error, error) {
	switch cfg.Backend() {
	case config.BackendRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:       cfg.RedisURL,
			TTL:       cfg.CacheTTLSeconds,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis cache: %w", err)
		}
		return c, c.Close, nil
	case config.BackendPostgres:
		c, err := cache.NewPostgresCache(ctx, cache.PostgresConfig{
			DatabaseURL: cfg.DatabaseURL,
			TTL:         cfg.CacheTTLSeconds,
			MaxConns:    cfg.DBMaxConns,
			Migrate:     cfg.DBAutoMigrate,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres cache: %w", err)
		}
		return c, c.Close, nil
	default:
		return cache.NewInMemoryCache(cfg.CacheTTLSeconds), nil, nil
	}
}

// selectProvider registers every provider the configuration can build and
// resolves the configured one.
func (a *app) selectProvider(ctx context.Context) (tlcache.Provider, error) {
	cfg := a.cfg
	registry := provider.NewRegistry(cfg.Provider())

	if err := registry.Register(provider.NewMockProvider()); err != nil {
		return nil, err
	}
	if cfg.OpenAIAPIKey != "" {
		if err := registry.Register(provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})); err != nil {
			return nil, err
		}
	}
	if cfg.Provider() == config.ProviderGoogle {
		g, err := provider.NewGoogleProvider(ctx, provider.GoogleConfig{
			APIKey: cfg.GoogleAPIKey,
			Model:  cfg.GoogleModel,
		})
		if err != nil {
			return nil, fmt.Errorf("create google provider: %w", err)
		}
		a.closers = append(a.closers, g.Close)
		if err := registry.Register(g); err != nil {
			return nil, err
		}
	}

	return registry.Provider("")
}

// close drains the backfill queue and releases backends.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.backfill != nil {
		if err := a.backfill.Close(ctx); err != nil && !errors.Is(err, tlcache.ErrBackfillClosed) {
			errs = append(errs, fmt.Errorf("drain backfill: %w", err))
		}
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *app) closeResources() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
