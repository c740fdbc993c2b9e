package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// envFileVar names a .env file that takes precedence over --env.
const envFileVar = "TLCACHE_ENV_FILE"

// loadEnv loads variables from a .env file into the process environment.
// A missing file at the default path is not an error.
func loadEnv(path, defaultPath string, stderr io.Writer) error {
	if custom := strings.TrimSpace(os.Getenv(envFileVar)); custom != "" {
		if err := godotenv.Overload(custom); err != nil {
			return fmt.Errorf("load %s=%s: %w", envFileVar, custom, err)
		}
		fmt.Fprintf(stderr, "Loaded environment from %s: %s\n", envFileVar, custom)
		return nil
	}

	requested := strings.TrimSpace(path)
	if requested == "" {
		requested = defaultPath
	}

	if err := godotenv.Overload(requested); err != nil {
		if errors.Is(err, fs.ErrNotExist) && requested == defaultPath {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", requested, err)
	}
	fmt.Fprintf(stderr, "Loaded environment from: %s\n", requested)
	return nil
}
