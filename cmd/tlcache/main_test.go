package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cleanEnv pins the configuration to the in-process defaults.
func cleanEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envFileVar, "")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("TRANSLATION_PROVIDER", "mock")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DEFAULT_LOCALE", "en")
	t.Setenv("SUPPORTED_LOCALES", "")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"--version"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "tlcache") {
		t.Errorf("expected version output, got: %s", stdout.String())
	}
}

func TestRun_MissingCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "command is required") {
		t.Fatalf("expected missing command error, got: %v", err)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("usage should be printed, got: %s", stderr.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"frobnicate"}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), `unknown command "frobnicate"`) {
		t.Fatalf("expected unknown command error, got: %v", err)
	}
}

func TestRun_LookupMissingLocale(t *testing.T) {
	cleanEnv(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"lookup", "Hello"}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "--locale is required") {
		t.Fatalf("expected '--locale is required' error, got: %v", err)
	}
}

func TestRun_LookupWait(t *testing.T) {
	cleanEnv(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"lookup", "--locale", "sv", "--wait", "--json", "Hello", "Welcome", "Hello"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("lookup failed: %v (stderr: %s)", err, stderr.String())
	}

	var result struct {
		Translations []string `json:"translations"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\n%s", err, stdout.String())
	}

	want := []string{"Hej", "Välkommen", "Hej"}
	if strings.Join(result.Translations, "|") != strings.Join(want, "|") {
		t.Errorf("translations = %v, want %v", result.Translations, want)
	}
}

func TestRun_LookupWithoutWaitReturnsOriginals(t *testing.T) {
	cleanEnv(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"lookup", "--locale", "sv", "Hello"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "\"Hello\"\t\"Hello\"" {
		t.Errorf("unexpected output: %q", stdout.String())
	}
}

func TestRun_Translate(t *testing.T) {
	cleanEnv(t)

	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "batch.json")
	batch := `{"sourceLocale":"en","items":[{"id":"1","text":"Welcome"},{"id":"2","text":"Hello"}]}`
	if err := os.WriteFile(inputFile, []byte(batch), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", "--to", "sv, da,en", inputFile}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	var result struct {
		OK      bool `json:"ok"`
		Results map[string]struct {
			Written int  `json:"written"`
			Skipped bool `json:"skipped"`
		} `json:"results"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\n%s", err, stdout.String())
	}

	if !result.OK {
		t.Error("ok should be true")
	}
	if result.Results["sv"].Written != 2 || result.Results["da"].Written != 2 {
		t.Errorf("unexpected results: %+v", result.Results)
	}
	if !result.Results["en"].Skipped {
		t.Error("source locale should be skipped")
	}
}

func TestRun_TranslateMissingTargets(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", "batch.json"}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "--to is required") {
		t.Fatalf("expected '--to is required' error, got: %v", err)
	}
}

func TestRun_ExportImport(t *testing.T) {
	cleanEnv(t)

	path := filepath.Join(t.TempDir(), "dump.json.zst")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"export", path}, &stdout, &stderr); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Exported 0 entries") {
		t.Errorf("unexpected export output: %s", stdout.String())
	}

	stdout.Reset()
	if err := run([]string{"import", path}, &stdout, &stderr); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Imported 0 entries") {
		t.Errorf("unexpected import output: %s", stdout.String())
	}
}

func TestRun_MissingEnvFile(t *testing.T) {
	cleanEnv(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"lookup", "--env", filepath.Join(t.TempDir(), "missing.env"), "--locale", "sv", "x"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "load env file") {
		t.Fatalf("expected env file error, got: %v", err)
	}
}

func TestRun_EnvFileOverridesConfig(t *testing.T) {
	cleanEnv(t)

	envFile := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(envFile, []byte("CACHE_BACKEND=memcached\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{"lookup", "--env", envFile, "--locale", "sv", "x"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "CACHE_BACKEND") {
		t.Fatalf("expected config validation error, got: %v", err)
	}
}

func TestRun_Enhance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Locale string   `json:"locale"`
			Texts  []string `json:"texts"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		out := make([]string, len(req.Texts))
		for i, text := range req.Texts {
			out[i] = text
			if text == "Hello" && req.Locale == "sv" {
				out[i] = "Hej"
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"translations": out})
	}))
	defer srv.Close()

	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "page.html")
	if err := os.WriteFile(inputFile, []byte("<p>Hello</p><p>World</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	outputFile := filepath.Join(tmpDir, "page.sv.html")

	var stdout, stderr bytes.Buffer
	err := run([]string{"enhance", "--server", srv.URL, "--locale", "sv", "-o", outputFile, inputFile}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("enhance failed: %v", err)
	}

	got, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<p>Hej</p><p>World</p>" {
		t.Errorf("unexpected output: %q", got)
	}
	if !strings.Contains(stderr.String(), "Replaced:    1") {
		t.Errorf("stats missing: %s", stderr.String())
	}
}
