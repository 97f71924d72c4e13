// Package version provides build metadata for the codestart CLI.
//
// Overview:
//   - Responsibility: CLI version metadata (version, commit, build time, default platform)
//   - Key Types: Version variables and formatting functions
//   - Concurrency Model: Set at link time, read-only afterwards
//   - Error Semantics: No errors
//   - Performance Notes: Zero-cost variables
//
// Usage:
//
//	fmt.Println(version.GetVersionString())
package version

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"

	"go.eggybyte.com/codestart/internal/codestart"
)

// Version is the CLI version, overridden with -ldflags during release builds.
var Version = "v0.1.0-dev"

// Commit is the git commit hash, overridden with -ldflags during release builds.
var Commit = "unknown"

// BuildTime is the build timestamp in RFC3339 format, overridden with -ldflags during release builds.
var BuildTime = "unknown"

var (
	nameColor    = color.New(color.FgCyan, color.Bold)
	versionColor = color.New(color.FgGreen, color.Bold)
)

// GetVersionString returns the one-line version string:
// codestart version v0.1.0 (commit 4a9b2c1, built 2026-01-01T12:00:00Z)
func GetVersionString() string {
	return fmt.Sprintf("codestart version %s (commit %s, built %s)", Version, Commit, BuildTime)
}

// GetFullVersionInfo returns multi-line version information including the default platform.
func GetFullVersionInfo() string {
	return fmt.Sprintf(`%s
default platform %s
go version %s (%s/%s)`,
		GetVersionString(),
		codestart.DefaultPlatform,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Banner returns the colored name and version for terminal output.
func Banner() string {
	return nameColor.Sprint("codestart") + " " + versionColor.Sprint(Version)
}
