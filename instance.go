// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package envcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/envlayer/envcore/cache"
	"github.com/envlayer/envcore/enverr"
	"github.com/envlayer/envcore/event"
	"github.com/envlayer/envcore/resolve"
	"github.com/envlayer/envcore/source"
	"github.com/envlayer/envcore/source/fileenv"
	"github.com/envlayer/envcore/sourceregistry"
	"github.com/envlayer/envcore/workspace"
)

// Instance is envcore's public query surface: a registry of sources, an
// optional workspace layout, a resolution engine, a two-tier cache in front
// of it, and an event bus. Build one with NewBuilder().Build().
type Instance struct {
	registry      *sourceregistry.Registry
	workspace     *workspace.Manager
	engine        *resolve.Engine
	bus           *event.Bus
	resolvedCache *cache.Cache[resolve.ResolvedVariable]
	logger        *slog.Logger
}

// Get resolves key against every registered source, without regard to any
// workspace context. Results are memoized until the source set changes.
func (i *Instance) Get(ctx context.Context, key string) (resolve.ResolvedVariable, error) {
	return i.resolvedCache.GetOrCompute("key::"+key, func() (resolve.ResolvedVariable, error) {
		snapshots, loadErr := i.registry.LoadAll(ctx)
		i.logLoadErr(loadErr)
		rv, err := i.engine.ResolveKey(snapshots, key)
		if err != nil {
			return resolve.ResolvedVariable{}, err
		}
		rv.Warnings = diagnosticsFromLoadErr(loadErr)
		return rv, nil
	})
}

// GetForFile resolves key the way it would apply to the file at path: file
// sources are restricted to the dotenv files the workspace manager reports
// for that path, cascaded from the workspace root down to the owning
// package. It returns an error if no workspace was configured on the
// Builder.
func (i *Instance) GetForFile(ctx context.Context, key, path string) (resolve.ResolvedVariable, error) {
	if i.workspace == nil {
		return resolve.ResolvedVariable{}, fmt.Errorf("envcore: no workspace configured")
	}

	wsCtx, err := i.workspace.ContextForFile(ctx, path)
	if err != nil {
		return resolve.ResolvedVariable{}, err
	}

	cacheKey := "file::" + path + "::" + key
	return i.resolvedCache.GetOrCompute(cacheKey, func() (resolve.ResolvedVariable, error) {
		snapshots, loadErr := i.snapshotsForContext(ctx, wsCtx)
		i.logLoadErr(loadErr)
		rv, err := i.engine.ResolveKey(snapshots, key)
		if err != nil {
			return resolve.ResolvedVariable{}, err
		}
		rv.Warnings = diagnosticsFromLoadErr(loadErr)
		return rv, nil
	})
}

// All resolves every variable defined across every registered source,
// sorted by key for a deterministic result.
func (i *Instance) All(ctx context.Context) ([]resolve.ResolvedVariable, error) {
	snapshots, loadErr := i.registry.LoadAll(ctx)
	i.logLoadErr(loadErr)
	return i.resolveAll(snapshots, loadErr)
}

// AllForFile resolves every variable that applies to the file at path,
// restricting file sources to the dotenv files the workspace manager
// reports for that path.
func (i *Instance) AllForFile(ctx context.Context, path string) ([]resolve.ResolvedVariable, error) {
	if i.workspace == nil {
		return nil, fmt.Errorf("envcore: no workspace configured")
	}
	wsCtx, err := i.workspace.ContextForFile(ctx, path)
	if err != nil {
		return nil, err
	}
	snapshots, loadErr := i.snapshotsForContext(ctx, wsCtx)
	i.logLoadErr(loadErr)
	return i.resolveAll(snapshots, loadErr)
}

// AllKeys returns the sorted set of keys defined across every registered
// source, without resolving their values. It is a convenience over All for
// callers that only need to know what is defined.
func (i *Instance) AllKeys(ctx context.Context) ([]string, error) {
	snapshots, loadErr := i.registry.LoadAll(ctx)
	i.logLoadErr(loadErr)
	merged := i.engine.Merge(snapshots)
	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, loadErr
}

// Subscribe registers fn to be called, synchronously, for every future
// event published on this Instance's bus (source registration, variable
// changes, cache invalidation). The returned function removes fn.
func (i *Instance) Subscribe(fn event.Subscriber) (unsubscribe func()) {
	return i.bus.Subscribe(fn)
}

// Events returns the bounded broadcast channel carrying the same events
// Subscribe delivers synchronously, for consumers that prefer to range over
// a channel on their own goroutine.
func (i *Instance) Events() <-chan event.Event {
	return i.bus.Events()
}

// RegisterSource adds src to the underlying registry, bumping the cache
// epoch so prior Get/All results are invalidated on next use.
func (i *Instance) RegisterSource(src source.Source) error {
	return i.registry.Register(src)
}

// UnregisterSource removes the source with the given id, if present.
func (i *Instance) UnregisterSource(id source.ID) bool {
	return i.registry.Unregister(id)
}

// Rescan forces the workspace manager, if one is configured, to re-detect
// its packages. It has no effect on the source registry.
func (i *Instance) Rescan(ctx context.Context) error {
	if i.workspace == nil {
		return nil
	}
	return i.workspace.Rescan(ctx)
}

func (i *Instance) resolveAll(snapshots []source.Snapshot, loadErr error) ([]resolve.ResolvedVariable, error) {
	merged := i.engine.Merge(snapshots)
	warnings := diagnosticsFromLoadErr(loadErr)

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	results := make([]resolve.ResolvedVariable, 0, len(keys))
	for _, key := range keys {
		rv, err := i.engine.ResolveKey(snapshots, key)
		if err != nil {
			i.logger.Warn("skipping variable that failed to resolve", "key", key, "error", err)
			continue
		}
		rv.Warnings = warnings
		results = append(results, rv)
	}
	return results, loadErr
}

// snapshotsForContext loads every non-file source in their usual priority
// order, with the file sources that apply to wsCtx taking the place of the
// file band (where the first registered file source sorts). wsCtx.EnvFiles
// is ordered lowest to highest cascade precedence (workspace root first,
// package root last), but resolve.Engine.Merge expects snapshots ordered
// highest precedence first, so the file portion is walked in reverse. A
// fileenv.Source is registered lazily for any env file the workspace
// manager names but which has no source yet.
func (i *Instance) snapshotsForContext(ctx context.Context, wsCtx workspace.Context) ([]source.Snapshot, error) {
	i.ensureFileSources(wsCtx.EnvFiles)

	var errs []error
	snapshots := make([]source.Snapshot, 0, len(wsCtx.EnvFiles)+1)
	fileBand := -1

	for _, src := range i.registry.ByPriority() {
		if src.Type() == source.TypeFile {
			if fileBand < 0 {
				fileBand = len(snapshots)
			}
			continue
		}
		snap, err := src.Load(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		snapshots = append(snapshots, snap)
	}
	if fileBand < 0 {
		fileBand = len(snapshots)
	}

	var files []source.Snapshot
	for idx := len(wsCtx.EnvFiles) - 1; idx >= 0; idx-- {
		id := source.ID(wsCtx.EnvFiles[idx])
		src, ok := i.registry.Get(id)
		if !ok {
			continue
		}
		snap, err := src.Load(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, snap)
	}

	snapshots = append(snapshots[:fileBand], append(files, snapshots[fileBand:]...)...)
	return snapshots, errors.Join(errs...)
}

// ensureFileSources registers a fileenv.Source, keyed by its own path, for
// every path in envFiles that has no source yet. A file that does not exist
// on disk still gets a source: fileenv.Source.Load treats a missing file as
// an empty snapshot, not an error, so a package without a local .env.local
// simply contributes nothing.
func (i *Instance) ensureFileSources(envFiles []string) {
	for _, path := range envFiles {
		id := source.ID(path)
		if _, ok := i.registry.Get(id); ok {
			continue
		}
		if err := i.registry.Register(fileenv.New(id, path)); err != nil {
			// Another goroutine registered the same path first; that's fine.
			continue
		}
	}
}

func (i *Instance) logLoadErr(err error) {
	if err != nil {
		i.logger.Warn("one or more sources failed to load", "error", err)
	}
}

// diagnosticsFromLoadErr walks a joined load error for the first
// *source.ParseError and the first *source.IOError cause, turning each one
// found into a Diagnostic annotated with the file it came from.
func diagnosticsFromLoadErr(err error) []enverr.Diagnostic {
	if err == nil {
		return nil
	}
	var diags []enverr.Diagnostic

	var parseErr *source.ParseError
	if errors.As(err, &parseErr) {
		diags = append(diags, enverr.Diagnostic{
			Severity: enverr.SeverityWarning,
			Code:     enverr.PrefixEnvFile,
			Message:  parseErr.Message,
			File:     parseErr.Path,
		})
	}

	var ioErr *source.IOError
	if errors.As(err, &ioErr) {
		diags = append(diags, enverr.Diagnostic{
			Severity: enverr.SeverityWarning,
			Code:     enverr.PrefixEnvFile,
			Message:  ioErr.Error(),
			File:     ioErr.Path,
		})
	}

	return diags
}
