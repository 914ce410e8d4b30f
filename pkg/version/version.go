// Package version provides build information for datalake.
package version

import (
	"fmt"
	"runtime"
)

// Build information set at compile time via ldflags.
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns formatted version information.
func Info() string {
	return fmt.Sprintf("datalake %s (commit: %s, built: %s, go: %s)",
		Version, Commit, BuildDate, runtime.Version())
}
