// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package sourceregistry tracks the set of active source.Source values a
// Builder resolves against, ordered by precedence, and publishes
// source-added / source-removed notifications as that set changes.
package sourceregistry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/envlayer/envcore/event"
	"github.com/envlayer/envcore/recovery"
	"github.com/envlayer/envcore/source"
)

// Registry is a concurrency-safe collection of source.Source values, keyed
// by their unique ID. Epoch increments on every Register, Unregister, or
// Invalidate call, and on every mutation reported by a registered
// source.ChangeNotifier (the memory source, on Set/Remove/Clear), so a
// cache can use it as a cheap "has anything changed" fingerprint without
// diffing the sources themselves.
type Registry struct {
	mu         sync.RWMutex
	sources    map[source.ID]source.Source
	order      []source.ID
	epoch      uint64
	bus        *event.Bus
	precedence map[source.Type]int
}

// Option configures a Registry built with New.
type Option func(*Registry)

// WithPrecedence overrides the default "sort by descending Priority" band
// ordering with an explicit list of source.Type names, highest precedence
// first (e.g. []string{"shell", "remote", "file", "memory"}, the default
// ordering's equivalent). A type not named in order falls back to its
// numeric Priority, ranked below every named type. A nil or empty order
// leaves the default Priority-based ordering in place.
func WithPrecedence(order []string) Option {
	return func(r *Registry) {
		if len(order) == 0 {
			return
		}
		precedence := make(map[source.Type]int, len(order))
		for i, name := range order {
			precedence[source.Type(name)] = i
		}
		r.precedence = precedence
	}
}

// New creates an empty Registry. bus may be nil, in which case Register and
// Unregister run without publishing events.
func New(bus *event.Bus, opts ...Option) *Registry {
	r := &Registry{
		sources: make(map[source.ID]source.Source),
		bus:     bus,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds src to the registry. It returns a *source.DuplicateSourceError
// if a source with the same ID is already registered.
func (r *Registry) Register(src source.Source) error {
	r.mu.Lock()
	if _, exists := r.sources[src.ID()]; exists {
		r.mu.Unlock()
		return &source.DuplicateSourceError{ID: src.ID()}
	}
	r.sources[src.ID()] = src
	r.order = append(r.order, src.ID())
	r.epoch++
	r.mu.Unlock()

	if notifier, ok := src.(source.ChangeNotifier); ok {
		id := src.ID()
		notifier.OnChange(func(added, removed, modified []string) {
			r.bumpEpoch()
			r.publish(event.VariablesChanged(id, added, removed, modified))
		})
	}

	r.publish(event.SourceAdded(src.ID()))
	return nil
}

// Unregister removes the source with the given id, reporting whether it was
// present.
func (r *Registry) Unregister(id source.ID) bool {
	r.mu.Lock()
	if _, exists := r.sources[id]; !exists {
		r.mu.Unlock()
		return false
	}
	delete(r.sources, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.epoch++
	r.mu.Unlock()

	r.publish(event.SourceRemoved(id))
	return true
}

// Invalidate calls Invalidate on the source registered under id, if any, and
// advances the epoch so that cached resolutions computed before the call are
// treated as stale. It reports whether id was registered.
func (r *Registry) Invalidate(id source.ID) bool {
	r.mu.RLock()
	src, ok := r.sources[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	src.Invalidate()
	r.bumpEpoch()
	r.publish(event.CacheInvalidated("source_invalidated"))
	return true
}

// bumpEpoch advances the epoch by one.
func (r *Registry) bumpEpoch() {
	r.mu.Lock()
	r.epoch++
	r.mu.Unlock()
}

// Get returns the source registered under id, if any.
func (r *Registry) Get(id source.ID) (source.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	return src, ok
}

// Epoch returns the current epoch. It advances by exactly one on every
// successful Register or Unregister call.
func (r *Registry) Epoch() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.epoch
}

// Len reports the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// ByPriority returns every registered source ordered by precedence:
// highest first, with ties (including the whole order when no
// WithPrecedence was configured) broken by descending Priority, then by
// registration order, oldest first.
func (r *Registry) ByPriority() []source.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]source.Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sources[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if r.precedence != nil {
			ri, oki := r.precedence[out[i].Type()]
			rj, okj := r.precedence[out[j].Type()]
			if oki && okj && ri != rj {
				return ri < rj
			}
			if oki != okj {
				// A type named in the configured order always outranks one
				// that isn't.
				return oki
			}
		}
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

// LoadAll calls Load on every registered source, highest priority first,
// and returns every snapshot obtained. A source that fails to load, or that
// panics, does not stop the others: all errors are joined and returned
// alongside whatever snapshots did succeed. Load is invoked through
// recovery.Safe because a Source is third-party code the registry cannot
// assume is panic-free.
func (r *Registry) LoadAll(ctx context.Context) ([]source.Snapshot, error) {
	sources := r.ByPriority()
	snapshots := make([]source.Snapshot, 0, len(sources))
	var errs []error

	for _, src := range sources {
		var snap source.Snapshot
		err := recovery.Safe(func() error {
			var loadErr error
			snap, loadErr = src.Load(ctx)
			return loadErr
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", src.ID(), err))
			continue
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, errors.Join(errs...)
}

func (r *Registry) publish(e event.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}
