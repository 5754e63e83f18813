package version

import (
	"fmt"
	"runtime"
)

// Version indicates the version of the binary, such as a release number or semantic version.
// Set via -ldflags "-X main.version=v1.0.0" or
// -ldflags "-X github.com/OpenCHAMI/pductl/internal/version.Version=v1.0.0"
var Version = "dev"

// GitCommit stores the latest Git commit hash.
// Set via -ldflags "-X main.commit=$(git rev-parse HEAD)"
var GitCommit string

// BuildTime stores the build timestamp in UTC.
// Set via -ldflags "-X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var BuildTime string

// Set overrides the build information with the values passed to main,
// keeping the current ones for empty arguments.
func Set(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if date != "" {
		BuildTime = date
	}
}

func VersionInfo() string {
	return fmt.Sprintf("Version: %s, Git Commit: %s, Build Time: %s, Go Version: %s",
		Version, GitCommit, BuildTime, runtime.Version())
}
