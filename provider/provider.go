// Package provider contains translation backends for the adapter.
package provider

import "github.com/ZaguanLabs/tlcache"

// Provider is an alias to the root package interface for convenience.
type Provider = tlcache.Provider

// BatchRequest is an alias to the root package type.
type BatchRequest = tlcache.BatchRequest
