// Package version holds serprank build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/serprank/internal/version.Version=v0.1.0
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
