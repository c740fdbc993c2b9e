package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TranslationRecord is one row of the translation cache table.
type TranslationRecord struct {
	CacheKey  string     `gorm:"column:cache_key;primaryKey"`
	Value     string     `gorm:"column:value;not null"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
}

// TableName implements gorm's tabler interface.
func (TranslationRecord) TableName() string {
	return "translation_cache"
}

// PostgresConfig holds configuration for the PostgreSQL cache.
type PostgresConfig struct {
	DatabaseURL string
	TTL         int  // TTL in seconds (0 = no expiration)
	MaxConns    int  // Maximum open connections (default: 8)
	Migrate     bool // Create the table on startup
}

// PostgresCache stores translations in a PostgreSQL table through gorm.
type PostgresCache struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewPostgresCache opens a connection pool, pings it and optionally migrates
// the schema.
func NewPostgresCache(ctx context.Context, cfg PostgresConfig) (*PostgresCache, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}

	maxOpen := cfg.MaxConns
	if maxOpen <= 0 {
		maxOpen = 8
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(max(1, maxOpen/2))
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c := NewPostgresCacheFromDB(gdb, cfg.TTL)
	if cfg.Migrate {
		if err := c.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return c, nil
}

// NewPostgresCacheFromDB wraps an existing gorm handle.
func NewPostgresCacheFromDB(gdb *gorm.DB, ttlSeconds int) *PostgresCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}
	return &PostgresCache{
		db:  gdb,
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates or updates the cache table.
func (c *PostgresCache) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&TranslationRecord{}); err != nil {
		return fmt.Errorf("gorm auto-migrate translation cache: %w", err)
	}
	return nil
}

// Get reads a live value.
func (c *PostgresCache) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `
SELECT value
FROM translation_cache
WHERE cache_key = $1
  AND (expires_at IS NULL OR expires_at > $2)
LIMIT 1
	`

	var value string
	err := c.db.WithContext(ctx).Raw(q, key, c.now()).Row().Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query cached translation %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a value; the last write wins.
func (c *PostgresCache) Set(ctx context.Context, key string, value string) error {
	const q = `
INSERT INTO translation_cache (cache_key, value, updated_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cache_key)
DO UPDATE SET
	value = EXCLUDED.value,
	updated_at = EXCLUDED.updated_at,
	expires_at = EXCLUDED.expires_at
	`

	now := c.now()
	var expiresAt *time.Time
	if c.ttl > 0 {
		t := now.Add(c.ttl)
		expiresAt = &t
	}

	if err := c.db.WithContext(ctx).Exec(q, key, value, now, expiresAt).Error; err != nil {
		return fmt.Errorf("upsert cached translation %s: %w", key, err)
	}
	return nil
}

// Entries returns every live row.
func (c *PostgresCache) Entries(ctx context.Context) (map[string]string, error) {
	var records []TranslationRecord
	err := c.db.WithContext(ctx).
		Where("expires_at IS NULL OR expires_at > ?", c.now()).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list cached translations: %w", err)
	}

	out := make(map[string]string, len(records))
	for _, r := range records {
		out[r.CacheKey] = r.Value
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (c *PostgresCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var (
	_ Backend = (*PostgresCache)(nil)
	_ Lister  = (*PostgresCache)(nil)
)
