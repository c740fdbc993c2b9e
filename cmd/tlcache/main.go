// Command tlcache serves and manages the translation cache.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/tlcache"
	"github.com/ZaguanLabs/tlcache/cache"
	"github.com/ZaguanLabs/tlcache/enhancer"
	"github.com/ZaguanLabs/tlcache/internal/config"
	"github.com/ZaguanLabs/tlcache/internal/httpapi"
	"github.com/ZaguanLabs/tlcache/internal/logging"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = tlcache.Version
	commit    = tlcache.GitCommit
	buildDate = tlcache.BuildDate
)

const usage = `Usage: tlcache <command> [flags] [args]

Commands:
  serve     Run the HTTP API
  translate Translate a JSON batch file into one or more locales
  lookup    Resolve texts from the cache, queueing misses
  enhance   Swap cached translations into an HTML file via a running server
  export    Write every cache entry to a file (.zst for zstd)
  import    Load entries from an export file

Run "tlcache <command> -h" for command flags.
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tlcache", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", tlcache.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("a command is required")
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "serve":
		return runServe(rest, stdout, stderr)
	case "translate":
		return runTranslate(rest, stdout, stderr)
	case "lookup":
		return runLookup(rest, stdout, stderr)
	case "enhance":
		return runEnhance(rest, stdout, stderr)
	case "export":
		return runExport(rest, stdout, stderr)
	case "import":
		return runImport(rest, stdout, stderr)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// setup loads the environment and configuration and builds the pipeline.
// Logs go to logOut.
func setup(ctx context.Context, envPath string, logOut, stderr io.Writer) (*app, error) {
	if err := loadEnv(envPath, ".env", stderr); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewWithWriter(logOut, cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return buildApp(ctx, cfg, logger)
}

func shutdown(a *app, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.close(ctx)
}

func runServe(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envPath := fs.String("env", ".env", "Path to the .env file")
	drain := fs.Duration("drain-timeout", 30*time.Second, "How long to wait for queued backfills on shutdown")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, *envPath, stdout, stderr)
	if err != nil {
		return err
	}

	server := httpapi.NewServer(a.resolver, a.orchestrator, a.logger, httpapi.Options{
		Host:             a.cfg.HTTPHost,
		Port:             a.cfg.HTTPPort,
		SupportedLocales: a.cfg.SupportedLocalesList(),
	})

	serveErr := server.Start(ctx)

	a.logger.Info().Int("pending", a.backfill.Pending()).Msg("draining backfill")
	if err := shutdown(a, *drain); err != nil {
		a.logger.Warn().Err(err).Msg("shutdown incomplete")
	}
	return serveErr
}

// batchFile is the input of the translate command.
type batchFile struct {
	SourceLocale string         `json:"sourceLocale"`
	Items        []tlcache.Item `json:"items"`
}

func runTranslate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envPath := fs.String("env", ".env", "Path to the .env file")
	to := fs.String("to", "", "Comma-separated target locales (e.g., sv,da)")
	source := fs.String("source", "", "Source locale (default: file's sourceLocale, then DEFAULT_LOCALE)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" {
		fs.Usage()
		return fmt.Errorf("--to is required")
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one batch file, got %d arguments", fs.NArg())
	}

	data, err := os.ReadFile(fs.Arg(0)) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	var batch batchFile
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("parsing batch file: %w", err)
	}

	ctx := context.Background()
	a, err := setup(ctx, *envPath, stderr, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(a, 30*time.Second) }()

	sourceLocale := firstNonBlank(*source, batch.SourceLocale, a.cfg.DefaultLocale)
	results := a.orchestrator.Run(ctx, sourceLocale, splitList(*to), batch.Items)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"ok": true, "results": results})
}

func runLookup(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envPath := fs.String("env", ".env", "Path to the .env file")
	locale := fs.String("locale", "", "Target locale")
	defaultLocale := fs.String("default", "", "Default locale (default: DEFAULT_LOCALE)")
	wait := fs.Bool("wait", false, "Wait for backfill and look up again")
	jsonOutput := fs.Bool("json", false, "Output result as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*locale) == "" {
		fs.Usage()
		return fmt.Errorf("--locale is required")
	}
	texts := fs.Args()

	ctx := context.Background()
	a, err := setup(ctx, *envPath, stderr, stderr)
	if err != nil {
		return err
	}

	out := a.resolver.GetTranslationsOrDefault(ctx, texts, *locale, *defaultLocale)
	if *wait {
		if err := a.backfill.Close(ctx); err != nil {
			_ = a.closeResources()
			return fmt.Errorf("waiting for backfill: %w", err)
		}
		out = a.resolver.GetTranslationsOrDefault(ctx, texts, *locale, *defaultLocale)
	}
	if err := shutdown(a, 30*time.Second); err != nil {
		a.logger.Warn().Err(err).Msg("shutdown incomplete")
	}

	if *jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"translations": out})
	}
	for i, text := range texts {
		fmt.Fprintf(stdout, "%q\t%q\n", text, out[i])
	}
	return nil
}

func runEnhance(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("enhance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", "http://localhost:8090", "Base URL of a running tlcache server")
	locale := fs.String("locale", "", "Target locale")
	defaultLocale := fs.String("default", "en", "Locale the page is authored in")
	settle := fs.Duration("settle", 0, "Delay before reading the document")
	output := fs.String("output", "", "Output file (default: stdout)")
	outputShort := fs.String("o", "", "Output file (short for --output)")
	quiet := fs.Bool("quiet", false, "Suppress progress output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outputShort != "" && *output == "" {
		*output = *outputShort
	}
	if strings.TrimSpace(*locale) == "" {
		fs.Usage()
		return fmt.Errorf("--locale is required")
	}

	var input []byte
	var err error
	inputName := "stdin"
	if fs.NArg() == 0 {
		input, err = io.ReadAll(os.Stdin)
	} else {
		inputName = filepath.Base(fs.Arg(0))
		input, err = os.ReadFile(fs.Arg(0)) // #nosec G304 - CLI tool reads user-specified files
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	e := enhancer.New(enhancer.NewClient(*server), enhancer.NewSession(),
		enhancer.WithDefaultLocale(*defaultLocale),
		enhancer.WithSettleDelay(*settle),
		enhancer.WithLogger(zerolog.New(stderr).Level(zerolog.WarnLevel)),
	)

	start := time.Now()
	result, report, err := e.Run(context.Background(), inputName, *locale, string(input))
	if err != nil {
		return fmt.Errorf("enhance failed: %w", err)
	}

	var out io.Writer = stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	fmt.Fprint(out, result)

	if !*quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", time.Since(start).Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Text nodes:  %d\n", report.Total)
		fmt.Fprintf(stderr, "  Replaced:    %d\n", report.Replaced)
	}
	return nil
}

func runExport(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envPath := fs.String("env", ".env", "Path to the .env file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one output path, got %d arguments", fs.NArg())
	}

	ctx := context.Background()
	a, err := setup(ctx, *envPath, stderr, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(a, 5*time.Second) }()

	lister, ok := a.backend.(cache.Lister)
	if !ok {
		return fmt.Errorf("cache backend %q cannot list entries", a.cfg.Backend())
	}

	n, err := cache.NewExporter(lister).ExportToFile(ctx, fs.Arg(0), map[string]string{
		"backend": a.cfg.Backend(),
		"version": tlcache.Version,
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(stdout, "Exported %d entries to %s\n", n, fs.Arg(0))
	return nil
}

func runImport(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envPath := fs.String("env", ".env", "Path to the .env file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one input path, got %d arguments", fs.NArg())
	}

	ctx := context.Background()
	a, err := setup(ctx, *envPath, stderr, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(a, 5*time.Second) }()

	result, err := cache.NewImporter(a.backend).ImportFromFile(ctx, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(stdout, "Imported %d entries (%d failed)\n", result.Imported, result.Failed)
	if result.Failed > 0 {
		return errors.New("some entries could not be written")
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
