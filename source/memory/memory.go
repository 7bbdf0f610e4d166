// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package memory provides a source.Source backed by an in-process ordered
// map, for variables set programmatically rather than read from a file or
// the shell.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/envlayer/envcore/source"
	"github.com/envlayer/envcore/validate"
)

// Source is a mutable, in-process environment-variable store. Set, Remove,
// and Clear preserve first-insertion order and bump an internal version
// counter; Load rebuilds its snapshot only when that counter has advanced
// since the last call, so repeated Loads between mutations are cheap.
type Source struct {
	id source.ID

	mu       sync.Mutex
	order    []string
	values   map[string]string
	version  uint64
	onChange func(added, removed, modified []string)

	loadedVersion uint64
	snapshot      *source.Snapshot
}

// New creates an empty memory Source with the given id.
func New(id source.ID) *Source {
	return &Source{
		id:     id,
		values: make(map[string]string),
	}
}

// NewAnonymous creates an empty memory Source with a generated id, for
// callers that have no natural name to give it (see source.NewID).
func NewAnonymous() *Source {
	return New(source.NewID())
}

// Set assigns key to value, appending key to insertion order the first time
// it is seen. Calling Set again for an existing key updates its value
// in place without moving its position. It rejects key if it is not a
// well-formed environment variable name.
func (s *Source) Set(key, value string) error {
	if err := validate.Key(key); err != nil {
		return err
	}

	s.mu.Lock()
	_, existed := s.values[key]
	if !existed {
		s.order = append(s.order, key)
	}
	s.values[key] = value
	s.version++
	notify, fn := s.changeFunc()
	s.mu.Unlock()

	if notify {
		if existed {
			fn(nil, nil, []string{key})
		} else {
			fn([]string{key}, nil, nil)
		}
	}
	return nil
}

// Remove deletes key, if present. It is a no-op otherwise.
func (s *Source) Remove(key string) {
	s.mu.Lock()
	if _, ok := s.values[key]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.values, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.version++
	notify, fn := s.changeFunc()
	s.mu.Unlock()

	if notify {
		fn(nil, []string{key}, nil)
	}
}

// Clear removes every key. It is a no-op on an already-empty source.
func (s *Source) Clear() {
	s.mu.Lock()
	if len(s.values) == 0 {
		s.mu.Unlock()
		return
	}
	removed := append([]string{}, s.order...)
	s.order = nil
	s.values = make(map[string]string)
	s.version++
	notify, fn := s.changeFunc()
	s.mu.Unlock()

	if notify {
		fn(nil, removed, nil)
	}
}

// OnChange implements source.ChangeNotifier. The Registry calls this at
// registration time so that Set/Remove/Clear advance the registry epoch and
// publish a VariablesChanged event as soon as they happen, rather than
// waiting for a future Load to notice HasChanged.
func (s *Source) OnChange(fn func(added, removed, modified []string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// changeFunc returns whether a callback is registered and, if so, a copy
// safe to invoke after releasing s.mu.
func (s *Source) changeFunc() (bool, func(added, removed, modified []string)) {
	if s.onChange == nil {
		return false, nil
	}
	return true, s.onChange
}

// ID implements source.Source.
func (s *Source) ID() source.ID { return s.id }

// Type implements source.Source.
func (s *Source) Type() source.Type { return source.TypeMemory }

// Priority implements source.Source.
func (s *Source) Priority() source.Priority { return source.PriorityMemory }

// Capabilities implements source.Source. A memory source supports direct
// writes but has no external store to watch.
func (s *Source) Capabilities() source.Capabilities {
	return source.CapRead | source.CapWrite | source.CapCacheable
}

// Load returns the current snapshot, rebuilding it only if Set, Remove, or
// Clear has run since the last Load.
func (s *Source) Load(_ context.Context) (source.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil && s.loadedVersion == s.version {
		return *s.snapshot, nil
	}

	vars := make([]source.ParsedVariable, 0, len(s.order))
	for _, key := range s.order {
		vars = append(vars, source.ParsedVariable{
			Key:      key,
			RawValue: s.values[key],
			Origin:   source.MemoryOrigin(),
		})
	}

	snap := source.Snapshot{
		SourceID:  s.id,
		Variables: vars,
		Timestamp: time.Now(),
		Version:   s.version,
	}
	s.snapshot = &snap
	s.loadedVersion = s.version
	return snap, nil
}

// HasChanged reports whether a mutation has occurred since the last Load.
func (s *Source) HasChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot == nil || s.loadedVersion != s.version
}

// Invalidate drops the cached snapshot, forcing the next Load to rebuild it
// even if no mutation occurred in between.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}

var _ source.Source = (*Source)(nil)
var _ source.ChangeNotifier = (*Source)(nil)
