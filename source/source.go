// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package source defines the uniform contract every environment-variable
// provider implements: in-process memory stores, dotenv files, the process
// environment, and (reserved) remote secret stores.
package source

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=source.go -destination=mocks/mock_source.go -package=mocks Source

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ID is an opaque, process-unique identifier for a registered source.
// Sources carry a string-like id so that registries, caches, and events can
// reference a source without importing its concrete type.
type ID string

// NewID generates a random ID for callers that register a source without a
// meaningful name of their own to give it (e.g. an ad hoc memory source
// built from a plain map of values). IDs that double as lookup keys, like a
// fileenv.Source's own path, should not use this — they need to stay stable
// and predictable across registrations.
func NewID() ID {
	return ID(uuid.NewString())
}

// Priority is an integer in [0, 255]. Higher values win conflicts between
// sources that define the same key; ties are broken by registration order.
type Priority int

// Named priority bands. Callers are free to register sources at other
// values, but these four are the conventional ones.
const (
	PriorityMemory Priority = 25
	PriorityFile   Priority = 50
	PriorityRemote Priority = 75
	PriorityShell  Priority = 100
)

// Type tags a source with the kind of provider it is. It does not affect
// resolution ordering; it exists so consumers can filter sources by kind.
type Type string

// Built-in source types.
const (
	TypeFile   Type = "file"
	TypeShell  Type = "shell"
	TypeMemory Type = "memory"
	TypeRemote Type = "remote"
)

// Capabilities is a bitfield describing what operations a source supports.
type Capabilities uint8

// Capability flags. Read is mandatory for every source.
const (
	CapRead Capabilities = 1 << iota
	CapWrite
	CapWatch
	CapCacheable
	CapAsync
)

// Has reports whether flag is set in c.
func (c Capabilities) Has(flag Capabilities) bool {
	return c&flag != 0
}

// String renders the set flags as a compact, comma-separated list, e.g.
// "READ,CACHEABLE".
func (c Capabilities) String() string {
	if c == 0 {
		return ""
	}
	names := []struct {
		flag Capabilities
		name string
	}{
		{CapRead, "READ"},
		{CapWrite, "WRITE"},
		{CapWatch, "WATCH"},
		{CapCacheable, "CACHEABLE"},
		{CapAsync, "ASYNC"},
	}
	out := ""
	for _, n := range names {
		if c.Has(n.flag) {
			if out != "" {
				out += ","
			}
			out += n.name
		}
	}
	return out
}

// OriginKind identifies the shape a ParsedVariable's Origin takes.
type OriginKind string

// Origin kinds, one per source type.
const (
	OriginFile   OriginKind = "file"
	OriginShell  OriginKind = "shell"
	OriginMemory OriginKind = "memory"
	OriginRemote OriginKind = "remote"
)

// Origin records where a ParsedVariable came from. Path is populated only
// for OriginFile; Provider only for OriginRemote.
type Origin struct {
	Kind     OriginKind
	Path     string
	Provider string
}

// FileOrigin builds an Origin for a variable read from the dotenv file at path.
func FileOrigin(path string) Origin { return Origin{Kind: OriginFile, Path: path} }

// ShellOrigin builds an Origin for a variable read from the process environment.
func ShellOrigin() Origin { return Origin{Kind: OriginShell} }

// MemoryOrigin builds an Origin for a variable set programmatically.
func MemoryOrigin() Origin { return Origin{Kind: OriginMemory} }

// RemoteOrigin builds an Origin for a variable fetched from a named remote provider.
func RemoteOrigin(provider string) Origin { return Origin{Kind: OriginRemote, Provider: provider} }

// ParsedVariable is one key/value pair as authored, before interpolation.
// Line is the 1-based source line the variable was declared on; it is 0 when
// the origin has no line concept (shell, memory, most remote sources).
type ParsedVariable struct {
	Key      string
	RawValue string
	Origin   Origin
	Line     int
}

// Snapshot is a time-stamped, immutable ordered set of ParsedVariables
// produced by one source. Insertion order within a snapshot is preserved;
// when the same key appears more than once, Collapse applies dotenv's
// last-occurrence-wins rule.
type Snapshot struct {
	SourceID  ID
	Variables []ParsedVariable
	Timestamp time.Time
	// Version is a source-defined monotonic counter; it is 0 when the
	// source does not track one.
	Version uint64
}

// Collapse reduces Variables to a functional map from key to its last
// occurrence within the snapshot, per the dotenv convention that later
// definitions of the same key win.
func (s Snapshot) Collapse() map[string]ParsedVariable {
	out := make(map[string]ParsedVariable, len(s.Variables))
	for _, v := range s.Variables {
		out[v.Key] = v
	}
	return out
}

// ChangeNotifier is implemented by sources that can report fine-grained
// variable changes as they happen, rather than only on the next Load noticing
// HasChanged. The memory source implements it so that Set/Remove/Clear can
// advance the registry's epoch and publish a VariablesChanged event
// immediately, without waiting for a caller to resolve again.
type ChangeNotifier interface {
	// OnChange registers fn to be called after every mutation, with the
	// keys added, removed, and modified by that mutation. Only one fn is
	// retained; registering again replaces it.
	OnChange(fn func(added, removed, modified []string))
}

// Source is the uniform interface every environment-variable provider
// implements. Implementations must be safe for concurrent use: the Registry
// and Resolution Engine may call Load and HasChanged from multiple
// goroutines.
//
// Load must be idempotent when HasChanged reports false: repeated calls
// return snapshots equal in content (Timestamp may advance).
type Source interface {
	// ID returns this source's unique, stable identifier.
	ID() ID
	// Type reports the kind of provider this source is.
	Type() Type
	// Priority reports the precedence band this source resolves at.
	Priority() Priority
	// Capabilities reports the operations this source supports.
	Capabilities() Capabilities
	// Load produces the current Snapshot, reading through to the
	// underlying store when HasChanged is true or no snapshot has been
	// produced yet.
	Load(ctx context.Context) (Snapshot, error)
	// HasChanged reports whether the underlying store has changed since
	// the last successful Load.
	HasChanged() bool
	// Invalidate drops any cached snapshot, forcing the next Load to read
	// through regardless of HasChanged.
	Invalidate()
}
