package tlcache

import (
	"errors"
	"testing"
)

func TestProviderError(t *testing.T) {
	err := &ProviderError{Message: "rate limited", Retryable: true}

	if err.Error() != "provider error: rate limited" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	cause := errors.New("503 Service Unavailable")
	wrapped := &ProviderError{Message: "request failed", Cause: cause}
	if wrapped.Error() != "provider error: request failed: 503 Service Unavailable" {
		t.Errorf("unexpected error message: %s", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("ProviderError should unwrap to its cause")
	}
}

func TestCacheError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &CacheError{Message: "get failed", Key: "abc:sv", Cause: cause}

	if err.Error() != "cache error: get failed (key abc:sv): connection refused" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("CacheError should unwrap to its cause")
	}

	bare := &CacheError{Message: "closed"}
	if bare.Error() != "cache error: closed" {
		t.Errorf("unexpected error message: %s", bare.Error())
	}
}

func TestProcessorError(t *testing.T) {
	err := &ProcessorError{Message: "parse failed", ContentType: "html"}

	if err.Error() != "processor error (html): parse failed" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

func TestCountMismatchError(t *testing.T) {
	err := &CountMismatchError{Expected: 5, Got: 3}

	if err.Error() != "translation count mismatch: expected 5, got 3" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "texts", Message: "must be an array"}
	if err.Error() != "texts: must be an array" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	noField := &ValidationError{Message: "empty body"}
	if noField.Error() != "empty body" {
		t.Errorf("unexpected error message: %s", noField.Error())
	}
}
