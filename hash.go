package tlcache

import (
	_ "crypto/sha256" // registers the canonical digest algorithm

	"github.com/opencontainers/go-digest"
)

// ContentHash is the stable digest of an exact source string.
type ContentHash = digest.Digest

// ComputeStableHash returns the SHA-256 digest of text exactly as given.
// No trimming or case folding is applied: translations are stored per exact
// string, so "Hello" and "Hello " are different entries.
func ComputeStableHash(text string) ContentHash {
	return digest.FromString(text)
}

// CacheKeyFrom combines a content hash and a locale into a cache key of the
// form "<hex>:<locale>". The locale is normalized first.
func CacheKeyFrom(hash ContentHash, locale string) string {
	return hash.Encoded() + ":" + NormalizeLocale(locale)
}

// CacheKeyForText is shorthand for CacheKeyFrom(ComputeStableHash(text), locale).
func CacheKeyForText(text, locale string) string {
	return CacheKeyFrom(ComputeStableHash(text), locale)
}
