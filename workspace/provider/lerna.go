// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LernaProvider detects and enumerates a Lerna workspace, via the
// `packages` glob list in lerna.json. Lerna repos are frequently also npm
// or Yarn workspaces; when lerna.json omits `packages`, it defaults to
// ["packages/*"] per Lerna's own convention.
type LernaProvider struct{}

// Name implements Provider.
func (LernaProvider) Name() string { return "lerna" }

type lernaManifest struct {
	Packages []string `json:"packages"`
}

// Detect implements Provider.
func (LernaProvider) Detect(root string) bool {
	_, err := os.Stat(filepath.Join(root, "lerna.json"))
	return err == nil
}

// Discover implements Provider.
func (LernaProvider) Discover(root string) ([]PackageInfo, error) {
	raw, err := os.ReadFile(filepath.Join(root, "lerna.json"))
	if err != nil {
		return nil, err
	}
	var manifest lernaManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("lerna: parsing lerna.json: %w", err)
	}
	globs := manifest.Packages
	if len(globs) == 0 {
		globs = []string{"packages/*"}
	}
	return discoverGlobPackages(root, globs)
}

var _ Provider = LernaProvider{}
