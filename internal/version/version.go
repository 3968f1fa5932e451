// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "fmt"

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// String returns the version, or "dev" before ldflags injection.
func (i *Info) String() string {
	if i == nil || i.Version == "" {
		return "dev"
	}
	return i.Version
}

// Banner is the line printed by -version.
func (i *Info) Banner(name string) string {
	commit, built := "unknown", "unknown"
	if i != nil && i.GitCommit != "" {
		commit = i.GitCommit
	}
	if i != nil && i.BuildTime != "" {
		built = i.BuildTime
	}
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", name, i.String(), commit, built)
}
