// Package version carries the build metadata stamped into the fleetman
// binaries via ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Stamped at build time with
// -ldflags "-X github.com/edgefleet/fleetman/pkg/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// ShortCommit trims the commit SHA to the first eight characters.
func ShortCommit() string {
	if len(Commit) > 8 {
		return Commit[:8]
	}
	return Commit
}

// Info renders the one-line version string printed by both binaries.
func Info() string {
	return fmt.Sprintf("fleetman %s (%s) built %s, %s %s/%s",
		Version, ShortCommit(), BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Map returns the build metadata for structured surfaces.
func Map() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"buildTime": BuildTime,
		"goVersion": runtime.Version(),
		"os":        runtime.GOOS,
		"arch":      runtime.GOARCH,
	}
}
