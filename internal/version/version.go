// Package version provides build-time version information for cronalarm.
// Version, Commit, and BuildTime are populated via ldflags during the build process.
// For development builds, default values are used.
package version

import "fmt"

// Build information variables, set via ldflags at build time:
//
//	go build -ldflags "-X github.com/nejstastnejsistene/cronalarm/internal/version.Version=1.0.0 \
//	                   -X github.com/nejstastnejsistene/cronalarm/internal/version.Commit=abc123 \
//	                   -X github.com/nejstastnejsistene/cronalarm/internal/version.BuildTime=2026-10-19T12:00:00Z"
var (
	// Version is the semantic version (e.g., "1.0.0", "dev").
	Version = "dev"

	// Commit is the git commit hash from which the binary was built.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built (RFC3339 format).
	BuildTime = "unknown"
)

// Info returns a formatted string with all version information for program.
func Info(program string) string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", program, Version, Commit, BuildTime)
}
