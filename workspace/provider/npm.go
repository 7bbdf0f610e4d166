// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NpmProvider detects and enumerates an npm or Yarn classic workspace, via
// the `workspaces` field of the root package.json. That field may be
// either a bare array of globs or an object with a `packages` array
// (Yarn's nohoist-style form).
type NpmProvider struct{}

// Name implements Provider.
func (NpmProvider) Name() string { return "npm" }

// Detect implements Provider.
func (NpmProvider) Detect(root string) bool {
	manifest, err := readPackageJSON(root)
	if err != nil {
		return false
	}
	return len(manifest.workspaceGlobs()) > 0
}

// Discover implements Provider.
func (NpmProvider) Discover(root string) ([]PackageInfo, error) {
	manifest, err := readPackageJSON(root)
	if err != nil {
		return nil, err
	}
	return discoverGlobPackages(root, manifest.workspaceGlobs())
}

type packageJSONManifest struct {
	Name       string          `json:"name"`
	Workspaces json.RawMessage `json:"workspaces"`
}

func readPackageJSON(root string) (packageJSONManifest, error) {
	var manifest packageJSONManifest
	raw, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return manifest, err
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return manifest, fmt.Errorf("npm: parsing package.json: %w", err)
	}
	return manifest, nil
}

func (m packageJSONManifest) workspaceGlobs() []string {
	if len(m.Workspaces) == 0 {
		return nil
	}
	var globs []string
	if err := json.Unmarshal(m.Workspaces, &globs); err == nil {
		return globs
	}
	var withPackages struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(m.Workspaces, &withPackages); err == nil {
		return withPackages.Packages
	}
	return nil
}

// discoverGlobPackages resolves a list of npm-style glob patterns (with
// optional "!" negation) to PackageInfo, relative to root. It is shared by
// the npm and Lerna providers, whose manifests differ only in where the
// glob list lives.
func discoverGlobPackages(root string, globs []string) ([]PackageInfo, error) {
	seen := make(map[string]bool)
	var packages []PackageInfo
	for _, pattern := range globs {
		negate := false
		if len(pattern) > 0 && pattern[0] == '!' {
			negate = true
			pattern = pattern[1:]
		}
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("npm: invalid workspace pattern %q: %w", pattern, err)
		}
		for _, dir := range matches {
			if negate {
				delete(seen, dir)
				continue
			}
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() || seen[dir] {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
				continue
			}
			seen[dir] = true
			packages = append(packages, PackageInfo{
				Root:         dir,
				Name:         packageJSONName(dir),
				RelativePath: relativeTo(root, dir),
			})
		}
	}
	return packages, nil
}

var _ Provider = NpmProvider{}
