// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package envconfig loads envcore's build-time configuration surface from a
// YAML, TOML, or JSON file, an ENVCORE_-prefixed environment override, and
// explicit Builder field overrides, via spf13/viper.
package envconfig

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/envlayer/envcore/cache"
	"github.com/envlayer/envcore/event"
	"github.com/envlayer/envcore/resolve"
	"github.com/envlayer/envcore/workspace"
)

// Options is the full set of recognized configuration options. Every field
// has a conservative default from the package it configures, so a caller
// that loads no configuration file at all still gets a working instance.
//
// Each top-level section is its own struct rather than a dotted field name:
// viper.Unmarshal decodes from viper.AllSettings(), which is a nested map
// ({"cache": {"hot_capacity": ...}}), and mapstructure matches a tag against
// one map level at a time. A tag like "cache.hot_capacity" would look for a
// literal key of that name at the top level and never find it; a nested
// struct with "cache" on the outer field and "hot_capacity" on the inner one
// walks the map the way it's actually shaped.
type Options struct {
	Workspace  WorkspaceOptions  `mapstructure:"workspace"`
	Resolution ResolutionOptions `mapstructure:"resolution"`
	Files      FilesOptions      `mapstructure:"files"`
	Cache      CacheOptions      `mapstructure:"cache"`
	Events     EventsOptions     `mapstructure:"events"`
}

// WorkspaceOptions configures monorepo package discovery and env-file
// cascading.
type WorkspaceOptions struct {
	Root      string `mapstructure:"root"`
	Provider  string `mapstructure:"provider"`
	Cascading bool   `mapstructure:"cascading"`
}

// ResolutionOptions configures the resolution engine.
type ResolutionOptions struct {
	InterpolationEnabled bool     `mapstructure:"interpolation_enabled"`
	MaxDepth             int      `mapstructure:"max_depth"`
	Precedence           []string `mapstructure:"precedence"`
}

// FilesOptions configures which env files the workspace manager looks for.
type FilesOptions struct {
	Patterns []string `mapstructure:"patterns"`
}

// CacheOptions configures the resolved-variable cache.
type CacheOptions struct {
	HotCapacity    int `mapstructure:"hot_capacity"`
	WarmTTLSeconds int `mapstructure:"warm_ttl_seconds"`
}

// EventsOptions configures the event bus.
type EventsOptions struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// Defaults returns the Options envcore falls back to when a configuration
// file sets nothing: every value mirrors the owning package's own default
// constant, so envconfig never becomes a second source of truth for them.
func Defaults() Options {
	return Options{
		Workspace: WorkspaceOptions{
			Cascading: true,
		},
		Resolution: ResolutionOptions{
			InterpolationEnabled: true,
			MaxDepth:             resolve.DefaultMaxDepth,
			Precedence:           []string{"shell", "remote", "file", "memory"},
		},
		Files: FilesOptions{
			Patterns: append([]string(nil), workspace.DefaultEnvFilePatterns...),
		},
		Cache: CacheOptions{
			HotCapacity:    cache.DefaultHotCapacity,
			WarmTTLSeconds: int(cache.DefaultTTL.Seconds()),
		},
		Events: EventsOptions{
			BufferSize: event.DefaultBroadcastBuffer,
		},
	}
}

// ConfigDir returns the envcore configuration directory under the given
// XDG config home. DefaultConfigDir wraps this with the process's actual
// XDG config home; ConfigDir exists separately so tests can inject one.
func ConfigDir(configHome string) string {
	return filepath.Join(configHome, "envcore")
}

// DefaultConfigDir returns envcore's configuration directory under the
// process's XDG config home (respecting $XDG_CONFIG_HOME).
func DefaultConfigDir() string {
	return ConfigDir(xdg.ConfigHome)
}
