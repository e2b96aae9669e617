package config

import (
	"fmt"
	"runtime"
)

// Set at link time, e.g.
//
//	-ldflags "-X github.com/bobmcallan/stockdash/internal/config.Version=1.4.0"
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// BuildInfo describes the running binary. It is served by /api/version and
// the get_version MCP tool.
type BuildInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// CurrentBuild returns the linked build metadata.
func CurrentBuild() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Build:     Build,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}
}

// Release reports whether a version was linked in.
func (b BuildInfo) Release() bool {
	return b.Version != "" && b.Version != "dev"
}

// ShortCommit is the first seven characters of the commit hash.
func (b BuildInfo) ShortCommit() string {
	if len(b.GitCommit) > 7 {
		return b.GitCommit[:7]
	}
	return b.GitCommit
}

// String renders the footer and --version form, e.g.
// "1.4.0 (build: 2026-01-02, commit: 1a2b3c4)".
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", b.Version, b.Build, b.ShortCommit())
}
