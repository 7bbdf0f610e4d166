// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package provider implements monorepo-layout detection and package
// discovery for the workspace managers built on top of it: Cargo, pnpm,
// npm/yarn, Lerna, Nx, Turbo, and a Custom escape hatch for anything else.
package provider

import "path/filepath"

// PackageInfo describes one package discovered within a workspace.
type PackageInfo struct {
	// Root is the package's directory, as an absolute path.
	Root string
	// Name is the package's declared name, when the manifest carries one.
	Name string
	// RelativePath is Root relative to the workspace root.
	RelativePath string
}

// Provider detects and enumerates the packages of one monorepo layout.
// Implementations must be safe for concurrent use; the Manager calls
// Discover at most once per Rescan but may call Detect more often.
type Provider interface {
	// Name identifies this provider, e.g. "cargo", "pnpm", "turbo".
	Name() string
	// Detect reports whether root looks like a workspace root for this
	// provider, typically by checking for a specific configuration file.
	Detect(root string) bool
	// Discover enumerates the workspace's member packages. It is only
	// called after Detect has returned true for the same root.
	Discover(root string) ([]PackageInfo, error)
}

// relativeTo returns path relative to root, falling back to path itself if
// it cannot be made relative (e.g. different volumes on Windows).
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
