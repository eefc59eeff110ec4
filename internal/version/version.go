// Package version holds build information injected with ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is set with -ldflags "-X github.com/jmylchreest/neopixel/internal/version.Version=x.y.z".
	Version = "dev"

	// Commit is the git commit the binaries were built from.
	Commit = "unknown"

	// Date is the build date (RFC3339).
	Date = "unknown"
)

// Info describes a build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the build information for the given binary name.
func String(binary string) string {
	info := GetInfo()
	if Commit == "unknown" || Date == "unknown" {
		return fmt.Sprintf("%s %s (%s, %s)", binary, info.Version, info.GoVersion, info.Platform)
	}
	commit := info.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	return fmt.Sprintf("%s %s (commit %s, built %s, %s, %s)",
		binary, info.Version, commit, info.Date, info.GoVersion, info.Platform)
}

// UserAgent is the User-Agent sent by the HTTP delegate.
func UserAgent() string {
	return "neopixel/" + Version
}
