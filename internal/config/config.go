package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/ZaguanLabs/tlcache"
)

// Cache backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Translation providers.
const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	HTTPHost string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8090"`

	DefaultLocale    string `envconfig:"DEFAULT_LOCALE" default:"en"`
	SupportedLocales string `envconfig:"SUPPORTED_LOCALES" default:""`

	CacheBackend    string `envconfig:"CACHE_BACKEND" default:"memory"`
	CacheTTLSeconds int    `envconfig:"CACHE_TTL_SECONDS" default:"0"`
	RedisURL        string `envconfig:"REDIS_URL" default:""`
	RedisKeyPrefix  string `envconfig:"REDIS_KEY_PREFIX" default:"tlcache:"`
	DatabaseURL     string `envconfig:"DATABASE_URL" default:""`
	DBMaxConns      int    `envconfig:"DB_MAX_CONNS" default:"8"`
	DBAutoMigrate   bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	TranslationProvider string `envconfig:"TRANSLATION_PROVIDER" default:"mock"`
	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel         string `envconfig:"OPENAI_MODEL" default:""`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL" default:""`
	GoogleAPIKey        string `envconfig:"GOOGLE_API_KEY" default:""`
	GoogleModel         string `envconfig:"GOOGLE_MODEL" default:"nmt"`

	ProviderRequestsPerMinute int `envconfig:"PROVIDER_REQUESTS_PER_MINUTE" default:"60"`
	ProviderMaxRetries        int `envconfig:"PROVIDER_MAX_RETRIES" default:"3"`

	BackfillWorkers   int `envconfig:"BACKFILL_WORKERS" default:"4"`
	BackfillQueueSize int `envconfig:"BACKFILL_QUEUE_SIZE" default:"256"`
	LookupConcurrency int `envconfig:"LOOKUP_CONCURRENCY" default:"32"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if strings.TrimSpace(c.DefaultLocale) == "" {
		return fmt.Errorf("DEFAULT_LOCALE is required")
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be >= 0")
	}

	switch c.Backend() {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when CACHE_BACKEND=postgres")
		}
		if c.DBMaxConns < 1 {
			return fmt.Errorf("DB_MAX_CONNS must be >= 1")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, redis, postgres (got %q)", c.CacheBackend)
	}

	switch c.Provider() {
	case ProviderMock, ProviderGoogle:
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when TRANSLATION_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("TRANSLATION_PROVIDER must be one of mock, openai, google (got %q)", c.TranslationProvider)
	}

	if c.ProviderRequestsPerMinute < 1 {
		return fmt.Errorf("PROVIDER_REQUESTS_PER_MINUTE must be >= 1")
	}
	if c.ProviderMaxRetries < 0 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES must be >= 0")
	}
	if c.BackfillWorkers < 1 {
		return fmt.Errorf("BACKFILL_WORKERS must be >= 1")
	}
	if c.BackfillQueueSize < 1 {
		return fmt.Errorf("BACKFILL_QUEUE_SIZE must be >= 1")
	}
	if c.LookupConcurrency < 1 {
		return fmt.Errorf("LOOKUP_CONCURRENCY must be >= 1")
	}
	return nil
}

// Backend returns the normalized CACHE_BACKEND.
func (c *Config) Backend() string {
	return strings.ToLower(strings.TrimSpace(c.CacheBackend))
}

// Provider returns the normalized TRANSLATION_PROVIDER.
func (c *Config) Provider() string {
	return strings.ToLower(strings.TrimSpace(c.TranslationProvider))
}

// SupportedLocalesList returns the normalized SUPPORTED_LOCALES, deduplicated
// in the order given. An empty list means every locale is accepted.
func (c *Config) SupportedLocalesList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.SupportedLocales, ",")
	locales := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		locale := tlcache.NormalizeLocale(part)
		if locale == "" {
			continue
		}
		if _, exists := seen[locale]; exists {
			continue
		}
		seen[locale] = struct{}{}
		locales = append(locales, locale)
	}
	return locales
}
