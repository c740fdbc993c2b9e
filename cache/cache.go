// Package cache provides durable key/value backends for translated strings.
package cache

import "context"

// Backend is the interface for translation caching.
type Backend interface {
	// Get retrieves a cached translation. Returns "" and false if not found
	// or expired. A non-nil error means the lookup itself failed.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a translation, replacing any previous value.
	Set(ctx context.Context, key string, value string) error
}

// Lister is implemented by backends that can enumerate their entries.
type Lister interface {
	// Entries returns all live entries as key-value pairs.
	Entries(ctx context.Context) (map[string]string, error)
}
