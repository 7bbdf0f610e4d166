// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CargoProvider detects and enumerates a Rust Cargo workspace, via the
// `[workspace]` table in the root Cargo.toml.
type CargoProvider struct{}

// Name implements Provider.
func (CargoProvider) Name() string { return "cargo" }

type cargoManifest struct {
	Workspace *struct {
		Members []string `toml:"members"`
		Exclude []string `toml:"exclude"`
	} `toml:"workspace"`
	Package *struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// Detect implements Provider.
func (CargoProvider) Detect(root string) bool {
	_, err := os.Stat(filepath.Join(root, "Cargo.toml"))
	return err == nil
}

// Discover implements Provider.
func (CargoProvider) Discover(root string) ([]PackageInfo, error) {
	manifest, err := readCargoManifest(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil, err
	}
	if manifest.Workspace == nil {
		return nil, fmt.Errorf("cargo: %s has no [workspace] table", filepath.Join(root, "Cargo.toml"))
	}

	excluded := make(map[string]bool, len(manifest.Workspace.Exclude))
	for _, pattern := range manifest.Workspace.Exclude {
		matches, _ := filepath.Glob(filepath.Join(root, pattern))
		for _, m := range matches {
			excluded[m] = true
		}
	}

	seen := make(map[string]bool)
	var packages []PackageInfo
	for _, pattern := range manifest.Workspace.Members {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("cargo: invalid member pattern %q: %w", pattern, err)
		}
		for _, dir := range matches {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() || excluded[dir] || seen[dir] {
				continue
			}
			seen[dir] = true

			name := filepath.Base(dir)
			if pkg, err := readCargoManifest(filepath.Join(dir, "Cargo.toml")); err == nil && pkg.Package != nil && pkg.Package.Name != "" {
				name = pkg.Package.Name
			}
			packages = append(packages, PackageInfo{
				Root:         dir,
				Name:         name,
				RelativePath: relativeTo(root, dir),
			})
		}
	}
	return packages, nil
}

func readCargoManifest(path string) (cargoManifest, error) {
	var manifest cargoManifest
	_, err := toml.DecodeFile(path, &manifest)
	return manifest, err
}

var _ Provider = CargoProvider{}
