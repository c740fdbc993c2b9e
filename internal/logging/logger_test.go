package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "production", "INFO")
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	logger.Debug().Msg("hidden")
	logger.Info().Str("locale", "sv").Msg("hello")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["service"] != "tlcache" || entry["locale"] != "sv" || entry["message"] != "hello" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "local", "debug")
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	logger.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("console output missing message: %q", buf.String())
	}
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("local environment should not log JSON: %q", buf.String())
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("local", "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
