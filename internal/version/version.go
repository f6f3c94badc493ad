package version

import (
	"fmt"
	"runtime"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/ichi0g0y/ql-label-printer/internal/version.Version=1.2.0 ..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns a formatted version string
func String() string {
	if Commit == "unknown" && BuildTime == "unknown" {
		return fmt.Sprintf("labelprint %s", Version)
	}
	return fmt.Sprintf("labelprint %s (commit: %s, built: %s)", Version, shortCommit(), BuildTime)
}

// Full adds the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s %s %s/%s", String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
