// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package resolve merges per-source snapshots into a single variable set
// and expands shell-style interpolation expressions ($NAME, ${NAME},
// ${NAME:-default}, ${NAME-default}, ${NAME:+alt}, ${NAME:?message}) within
// their values.
package resolve

import "github.com/envlayer/envcore/source"

// DefaultMaxDepth bounds how many nested variable references Interpolate
// will follow before giving up with a MaxDepthExceededError. It guards
// against reference chains that are long but not strictly circular.
const DefaultMaxDepth = 64

// Engine merges source snapshots and expands interpolation expressions in
// their values. Build one with New: a zero-value Engine has interpolation
// disabled and a max depth of 0, whereas New starts from DefaultMaxDepth with
// interpolation enabled.
type Engine struct {
	maxDepth      int
	interpolation bool
}

// Option configures an Engine built with New.
type Option func(*Engine)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) { e.maxDepth = depth }
}

// WithInterpolation enables or disables shell-style expansion globally. When
// disabled, Interpolate, Resolve, and ResolveKey pass every value through
// unchanged: no $NAME/${NAME} expressions are expanded, and a value
// containing one is returned byte-for-byte as both its raw and resolved
// form.
func WithInterpolation(enabled bool) Option {
	return func(e *Engine) { e.interpolation = enabled }
}

// New creates an Engine with DefaultMaxDepth and interpolation enabled,
// adjusted by opts.
func New(opts ...Option) *Engine {
	e := &Engine{maxDepth: DefaultMaxDepth, interpolation: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MergedVariable pairs a winning ParsedVariable with the id of the source it
// came from, so a ResolvedVariable can report its origin.
type MergedVariable struct {
	source.ParsedVariable
	SourceID source.ID
}

// Merge combines snapshots into a single map from key to the variable that
// wins. snapshots must already be ordered from highest to lowest priority
// (the order sourceregistry.Registry.ByPriority and LoadAll produce):
// within a single snapshot, a later occurrence of a key wins (dotenv
// convention); across snapshots, the first (i.e. highest-priority) source
// to define a key wins.
func (e *Engine) Merge(snapshots []source.Snapshot) map[string]MergedVariable {
	merged := make(map[string]MergedVariable)
	for _, snap := range snapshots {
		for key, v := range snap.Collapse() {
			if _, exists := merged[key]; exists {
				continue
			}
			merged[key] = MergedVariable{ParsedVariable: v, SourceID: snap.SourceID}
		}
	}
	return merged
}

// Interpolate expands every interpolation expression in raw's values,
// resolving $NAME references against raw itself. It returns the resolved
// map alongside a per-key error map for any key whose expansion failed;
// keys that failed are omitted from the resolved map so that one malformed
// or circular variable does not prevent every other key from resolving.
func (e *Engine) Interpolate(raw map[string]string) (map[string]string, map[string]error) {
	if !e.interpolation {
		resolved := make(map[string]string, len(raw))
		for key, val := range raw {
			resolved[key] = val
		}
		return resolved, nil
	}

	resolved := make(map[string]string, len(raw))
	errs := make(map[string]error)

	for key := range raw {
		r := newResolver(raw, e.maxDepth)
		val, err := r.resolve(key)
		if err != nil {
			errs[key] = err
			continue
		}
		resolved[key] = val
	}
	return resolved, errs
}

// Resolve merges snapshots and interpolates the result in one step. Values
// in the returned string map are the fully interpolated form of each
// winning ParsedVariable.RawValue.
func (e *Engine) Resolve(snapshots []source.Snapshot) (map[string]string, map[string]error) {
	merged := e.Merge(snapshots)
	raw := make(map[string]string, len(merged))
	for key, v := range merged {
		raw[key] = v.RawValue
	}
	return e.Interpolate(raw)
}

// ResolveKey resolves a single key against snapshots, returning the full
// ResolvedVariable the spec's external interface exposes: the raw and
// interpolated value, the id and origin of the winning source, and any
// warnings collected along the way. It fails with *UndefinedVariableError
// if key is not defined in any snapshot.
func (e *Engine) ResolveKey(snapshots []source.Snapshot, key string) (ResolvedVariable, error) {
	merged := e.Merge(snapshots)
	winner, ok := merged[key]
	if !ok {
		return ResolvedVariable{}, &UndefinedVariableError{Key: key}
	}

	if !e.interpolation {
		return ResolvedVariable{
			Key:           key,
			RawValue:      winner.RawValue,
			ResolvedValue: winner.RawValue,
			Source:        winner.SourceID,
			Origin:        winner.Origin,
		}, nil
	}

	raw := make(map[string]string, len(merged))
	for k, v := range merged {
		raw[k] = v.RawValue
	}

	r := newResolver(raw, e.maxDepth)
	resolvedValue, err := r.resolve(key)
	if err != nil {
		return ResolvedVariable{}, err
	}

	return ResolvedVariable{
		Key:           key,
		RawValue:      winner.RawValue,
		ResolvedValue: resolvedValue,
		Source:        winner.SourceID,
		Origin:        winner.Origin,
	}, nil
}
