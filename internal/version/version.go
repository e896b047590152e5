package version

import "fmt"

// Version is set at build time:
// go build -ldflags "-X github.com/ramppdev/extlinks/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version line printed by --version.
func String() string {
	return fmt.Sprintf("extlinks %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
