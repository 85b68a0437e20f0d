// Package buildinfo carries version stamps set with -ldflags, e.g.
//
//	-X beatbyte/internal/buildinfo.Version=1.2.0
package buildinfo

import "fmt"

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Short returns a compact build identifier for the window title and logs.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String returns the full identifier printed by the version command.
func String() string {
	return fmt.Sprintf("beatbyte %s (commit %s, built %s)", Version, Commit, Date)
}
