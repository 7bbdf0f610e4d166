// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package envconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Loader reads Options from an optional configuration file, environment
// variables prefixed ENVCORE_ (with "." replaced by "_", so
// ENVCORE_CACHE_HOT_CAPACITY maps to cache.hot_capacity), and finally
// whatever explicit overrides the caller applies with Set.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader seeded with Defaults and wired for
// ENVCORE_-prefixed environment overrides.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("envcore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault("workspace.root", defaults.Workspace.Root)
	v.SetDefault("workspace.provider", defaults.Workspace.Provider)
	v.SetDefault("workspace.cascading", defaults.Workspace.Cascading)
	v.SetDefault("resolution.interpolation_enabled", defaults.Resolution.InterpolationEnabled)
	v.SetDefault("resolution.max_depth", defaults.Resolution.MaxDepth)
	v.SetDefault("resolution.precedence", defaults.Resolution.Precedence)
	v.SetDefault("files.patterns", defaults.Files.Patterns)
	v.SetDefault("cache.hot_capacity", defaults.Cache.HotCapacity)
	v.SetDefault("cache.warm_ttl_seconds", defaults.Cache.WarmTTLSeconds)
	v.SetDefault("events.buffer_size", defaults.Events.BufferSize)

	return &Loader{v: v}
}

// ReadFile merges the configuration file at path (format inferred from its
// extension: YAML, TOML, or JSON) into the loader. A missing file is not an
// error: the loader proceeds with whatever defaults and environment
// overrides it already has.
func (l *Loader) ReadFile(path string) error {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("envconfig: reading %s: %w", path, err)
	}
	return nil
}

// Set applies an explicit Builder-supplied override, taking precedence over
// both the configuration file and the environment.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// Load materializes the merged configuration into an Options value.
func (l *Loader) Load() (Options, error) {
	var opts Options
	if err := l.v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("envconfig: unmarshaling configuration: %w", err)
	}
	return opts, nil
}
