// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package envcore assembles the source registry, workspace manager,
// resolution engine, cache, and event bus into a single queryable instance.
package envcore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/envlayer/envcore/cache"
	"github.com/envlayer/envcore/envconfig"
	"github.com/envlayer/envcore/envlog"
	"github.com/envlayer/envcore/event"
	"github.com/envlayer/envcore/resolve"
	"github.com/envlayer/envcore/source"
	"github.com/envlayer/envcore/source/memory"
	"github.com/envlayer/envcore/source/shellenv"
	"github.com/envlayer/envcore/sourceregistry"
	"github.com/envlayer/envcore/workspace"
	"github.com/envlayer/envcore/workspace/provider"
)

// Builder assembles an Instance from explicit sources and a workspace
// layout, layered over whatever envconfig.Options a configuration file and
// the ENVCORE_ environment prefix contribute.
type Builder struct {
	configPath        string
	workspaceRoot     string
	workspaceProvider provider.Provider
	extraSources      []source.Source
	logger            *slog.Logger
	overrides         map[string]any
}

// NewBuilder creates an empty Builder. The shell environment is always
// registered as a source; everything else is opt-in.
func NewBuilder() *Builder {
	return &Builder{overrides: make(map[string]any)}
}

// WithConfigFile loads options from the YAML, TOML, or JSON file at path.
// A missing file is not an error.
func (b *Builder) WithConfigFile(path string) *Builder {
	b.configPath = path
	return b
}

// WithWorkspace configures monorepo-aware, per-file resolution: root is the
// workspace root, and prov detects and enumerates its packages.
func (b *Builder) WithWorkspace(root string, prov provider.Provider) *Builder {
	b.workspaceRoot = root
	b.workspaceProvider = prov
	return b
}

// WithSource registers an additional source, e.g. a memory.Source for
// programmatically supplied values.
func (b *Builder) WithSource(src source.Source) *Builder {
	b.extraSources = append(b.extraSources, src)
	return b
}

// WithValues registers an anonymous memory source (source.NewID-assigned id,
// since the caller has no name in mind) preloaded with values, inserted in
// key-sorted order for a deterministic snapshot. It is a convenience over
// WithSource(memory.New(...)) for callers that just want to supply a flat
// map of overrides, e.g. from flags or a test fixture.
func (b *Builder) WithValues(values map[string]string) *Builder {
	mem := memory.NewAnonymous()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// Values supplied programmatically are trusted; a malformed key
		// here is a caller bug, not a runtime condition to report through
		// Build's error return.
		_ = mem.Set(k, values[k])
	}
	return b.WithSource(mem)
}

// WithLogger overrides the *slog.Logger Instance methods log through.
// The default is envlog.New() with its package defaults.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithOption applies an explicit configuration override, taking precedence
// over both the configuration file and the environment. key follows
// envconfig's dotted option names, e.g. "cache.hot_capacity".
func (b *Builder) WithOption(key string, value any) *Builder {
	b.overrides[key] = value
	return b
}

// Build loads configuration, wires together the registry, workspace
// manager, resolution engine, cache, and event bus, and returns a queryable
// Instance. A workspace provider that fails to detect its configured root
// is a build-time error: no Instance is returned.
func (b *Builder) Build() (*Instance, error) {
	loader := envconfig.NewLoader()
	if b.configPath != "" {
		if err := loader.ReadFile(b.configPath); err != nil {
			return nil, fmt.Errorf("envcore: %w", err)
		}
	}
	for key, value := range b.overrides {
		loader.Set(key, value)
	}
	opts, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("envcore: %w", err)
	}
	if b.workspaceRoot != "" {
		opts.Workspace.Root = b.workspaceRoot
	}

	logger := b.logger
	if logger == nil {
		logger = envlog.New()
	}

	bus := event.NewBus(opts.Events.BufferSize)
	registry := sourceregistry.New(bus, sourceregistry.WithPrecedence(opts.Resolution.Precedence))

	if err := registry.Register(shellenv.New("shell", nil)); err != nil {
		return nil, fmt.Errorf("envcore: registering shell source: %w", err)
	}
	for _, src := range b.extraSources {
		if err := registry.Register(src); err != nil {
			return nil, fmt.Errorf("envcore: registering source %q: %w", src.ID(), err)
		}
	}

	engine := resolve.New(
		resolve.WithMaxDepth(opts.Resolution.MaxDepth),
		resolve.WithInterpolation(opts.Resolution.InterpolationEnabled),
	)

	var mgr *workspace.Manager
	if opts.Workspace.Root != "" && b.workspaceProvider != nil {
		mgr = workspace.New(
			opts.Workspace.Root,
			b.workspaceProvider,
			workspace.WithCascade(opts.Workspace.Cascading),
			workspace.WithEnvFilePatterns(opts.Files.Patterns),
		)
		if _, err := mgr.Packages(context.Background()); err != nil {
			return nil, fmt.Errorf("envcore: %w", err)
		}
	}

	resolvedCache := cache.New[resolve.ResolvedVariable](
		registry.Epoch,
		cache.WithHotCapacity[resolve.ResolvedVariable](opts.Cache.HotCapacity),
		cache.WithTTL[resolve.ResolvedVariable](time.Duration(opts.Cache.WarmTTLSeconds)*time.Second),
	)

	return &Instance{
		registry:      registry,
		workspace:     mgr,
		engine:        engine,
		bus:           bus,
		resolvedCache: resolvedCache,
		logger:        logger,
	}, nil
}
