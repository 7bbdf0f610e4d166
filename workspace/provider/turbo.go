// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"fmt"
	"os"
	"path/filepath"
)

// TurboProvider detects a Turborepo workspace (turbo.json present) but
// delegates package discovery to whichever of PnpmProvider or NpmProvider
// is also detected at the same root, since Turborepo itself piggybacks on
// npm/Yarn/pnpm workspaces rather than declaring its own package list.
type TurboProvider struct{}

// Name implements Provider.
func (TurboProvider) Name() string { return "turbo" }

// Detect implements Provider.
func (TurboProvider) Detect(root string) bool {
	_, err := os.Stat(filepath.Join(root, "turbo.json"))
	return err == nil
}

// Discover implements Provider.
func (TurboProvider) Discover(root string) ([]PackageInfo, error) {
	if (PnpmProvider{}).Detect(root) {
		return (PnpmProvider{}).Discover(root)
	}
	if (NpmProvider{}).Detect(root) {
		return (NpmProvider{}).Discover(root)
	}
	return nil, fmt.Errorf("turbo: %s has turbo.json but no pnpm-workspace.yaml or package.json workspaces field to delegate to", root)
}

var _ Provider = TurboProvider{}
