// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package shellenv provides a source.Source backed by the process
// environment, via envcore's env.Reader abstraction.
package shellenv

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/envlayer/envcore/env"
	"github.com/envlayer/envcore/source"
)

// Source snapshots the process environment once, on the first Load, and
// returns that cached snapshot on every later Load until Invalidate drops
// it; HasChanged never reports a change in the process environment.
type Source struct {
	id     source.ID
	reader env.Reader

	mu       sync.Mutex
	snapshot *source.Snapshot
}

// New creates a shell Source with the given id, reading through reader. If
// reader is nil, it defaults to &env.OSReader{}.
func New(id source.ID, reader env.Reader) *Source {
	if reader == nil {
		reader = &env.OSReader{}
	}
	return &Source{id: id, reader: reader}
}

// ID implements source.Source.
func (s *Source) ID() source.ID { return s.id }

// Type implements source.Source.
func (s *Source) Type() source.Type { return source.TypeShell }

// Priority implements source.Source.
func (s *Source) Priority() source.Priority { return source.PriorityShell }

// Capabilities implements source.Source. The shell view is read-only and
// safe to cache, but not watchable: there is no external change notification
// for the process environment.
func (s *Source) Capabilities() source.Capabilities {
	return source.CapRead | source.CapCacheable
}

// Load returns the cached process-environment snapshot, building it on the
// first call.
func (s *Source) Load(_ context.Context) (source.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil {
		return *s.snapshot, nil
	}

	entries := s.reader.Environ()
	vars := make([]source.ParsedVariable, 0, len(entries))
	for _, kv := range entries {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars = append(vars, source.ParsedVariable{
			Key:      key,
			RawValue: value,
			Origin:   source.ShellOrigin(),
		})
	}

	snap := source.Snapshot{
		SourceID:  s.id,
		Variables: vars,
		Timestamp: time.Now(),
		Version:   1,
	}
	s.snapshot = &snap
	return snap, nil
}

// HasChanged always reports false: the shell source is an immutable view
// captured once at first Load.
func (s *Source) HasChanged() bool { return false }

// Invalidate drops the cached snapshot, forcing the next Load to re-read the
// process environment. Callers rarely need this; it exists mainly for tests
// that mutate the environment mid-run.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}

var _ source.Source = (*Source)(nil)
