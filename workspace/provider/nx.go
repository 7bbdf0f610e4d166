// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
)

// NxProvider detects and enumerates an Nx workspace. Nx does not declare
// its member packages in nx.json; it discovers them by the presence of a
// project.json alongside each package, so Discover walks the tree for
// those instead of reading a glob list.
type NxProvider struct{}

// Name implements Provider.
func (NxProvider) Name() string { return "nx" }

// Detect implements Provider.
func (NxProvider) Detect(root string) bool {
	_, err := os.Stat(filepath.Join(root, "nx.json"))
	return err == nil
}

// Discover implements Provider.
func (NxProvider) Discover(root string) ([]PackageInfo, error) {
	var packages []PackageInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" || d.Name() == "dist" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "project.json" {
			return nil
		}
		dir := filepath.Dir(path)
		packages = append(packages, PackageInfo{
			Root:         dir,
			Name:         nxProjectName(path, dir),
			RelativePath: relativeTo(root, dir),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return packages, nil
}

func nxProjectName(path, dir string) string {
	raw, err := os.ReadFile(path)
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

var _ Provider = NxProvider{}
