// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

// CustomProvider adapts caller-supplied DetectFunc/DiscoverFunc values into
// a Provider, for monorepo layouts none of the built-in providers
// recognize.
type CustomProvider struct {
	ProviderName string
	DetectFunc   func(root string) bool
	DiscoverFunc func(root string) ([]PackageInfo, error)
}

// Name implements Provider.
func (c CustomProvider) Name() string {
	if c.ProviderName != "" {
		return c.ProviderName
	}
	return "custom"
}

// Detect implements Provider.
func (c CustomProvider) Detect(root string) bool {
	if c.DetectFunc == nil {
		return false
	}
	return c.DetectFunc(root)
}

// Discover implements Provider.
func (c CustomProvider) Discover(root string) ([]PackageInfo, error) {
	if c.DiscoverFunc == nil {
		return nil, nil
	}
	return c.DiscoverFunc(root)
}

var _ Provider = CustomProvider{}

// BuiltIns returns the built-in providers in the fixed detection order:
// Turbo and Lerna before the workspace managers they may sit on top of, so
// the more specific layout wins when a repo carries more than one
// configuration file.
func BuiltIns() []Provider {
	return []Provider{
		TurboProvider{},
		LernaProvider{},
		NxProvider{},
		CargoProvider{},
		PnpmProvider{},
		NpmProvider{},
	}
}
