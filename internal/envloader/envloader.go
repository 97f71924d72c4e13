// Package envloader loads .env files and collects CODESTART_* settings from the environment.
//
// Overview:
//   - Responsibility: Load .env files, expose prefixed environment variables as plain keys
//   - Key Types: Plain string maps
//   - Concurrency Model: LoadDotEnv mutates the process environment and belongs in main;
//     Prefixed is pure
//   - Error Semantics: A missing optional file is not an error; parse failures are wrapped
//   - Performance Notes: Files are read once at startup
//
// Usage:
//
//	_ = envloader.LoadDotEnv(".env")
//	settings := envloader.Prefixed(os.Environ(), envloader.Prefix)
//	artifactID := settings["ARTIFACT_ID"]
package envloader

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Prefix marks environment variables read by codestart.
const Prefix = "CODESTART_"

// LoadDotEnv loads path into the process environment. Variables already set win.
// A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load .env file %s: %w", path, err)
	}
	return nil
}

// Prefixed returns the variables of environ starting with prefix, keyed without it.
// Empty values are dropped.
func Prefixed(environ []string, prefix string) map[string]string {
	out := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) || value == "" {
			continue
		}
		out[strings.TrimPrefix(key, prefix)] = value
	}
	return out
}
