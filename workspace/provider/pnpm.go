// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PnpmProvider detects and enumerates a pnpm workspace, via the `packages`
// glob list in pnpm-workspace.yaml.
type PnpmProvider struct{}

// Name implements Provider.
func (PnpmProvider) Name() string { return "pnpm" }

type pnpmWorkspaceManifest struct {
	Packages []string `yaml:"packages"`
}

// Detect implements Provider.
func (PnpmProvider) Detect(root string) bool {
	_, err := os.Stat(filepath.Join(root, "pnpm-workspace.yaml"))
	return err == nil
}

// Discover implements Provider.
func (PnpmProvider) Discover(root string) ([]PackageInfo, error) {
	raw, err := os.ReadFile(filepath.Join(root, "pnpm-workspace.yaml"))
	if err != nil {
		return nil, err
	}
	var manifest pnpmWorkspaceManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("pnpm: parsing pnpm-workspace.yaml: %w", err)
	}

	seen := make(map[string]bool)
	var packages []PackageInfo
	for _, pattern := range manifest.Packages {
		negate := false
		if len(pattern) > 0 && pattern[0] == '!' {
			negate = true
			pattern = pattern[1:]
		}
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("pnpm: invalid package pattern %q: %w", pattern, err)
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

// packageJSONName reads the "name" field out of dir/package.json, falling
// back to the directory's base name if the manifest is missing or invalid.
func packageJSONName(dir string) string {
	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return filepath.Base(dir)
	}
	var manifest struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &manifest); err != nil || manifest.Name == "" {
		return filepath.Base(dir)
	}
	return manifest.Name
}

var _ Provider = PnpmProvider{}
