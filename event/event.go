// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package event defines the notifications envcore's components emit as
// sources are registered, variables change, and caches are invalidated, and
// a Bus that fans them out to subscribers.
package event

import (
	"time"

	"github.com/envlayer/envcore/source"
)

// Kind identifies the shape an Event takes.
type Kind string

// Event kinds.
const (
	KindSourceAdded      Kind = "source_added"
	KindSourceRemoved    Kind = "source_removed"
	KindVariablesChanged Kind = "variables_changed"
	KindCacheInvalidated Kind = "cache_invalidated"
)

// Event is a single notification published on the Bus. Only the fields
// relevant to Kind are populated; the rest are left at their zero value.
type Event struct {
	Kind     Kind
	Time     time.Time
	SourceID source.ID

	// Added, Removed, and Modified are variable keys, populated on
	// KindVariablesChanged.
	Added    []string
	Removed  []string
	Modified []string

	// Reason is populated on KindCacheInvalidated, e.g. "source_invalidated"
	// (published by sourceregistry.Registry.Invalidate).
	Reason string
}

// SourceAdded builds a KindSourceAdded event for id.
func SourceAdded(id source.ID) Event {
	return Event{Kind: KindSourceAdded, Time: time.Now(), SourceID: id}
}

// SourceRemoved builds a KindSourceRemoved event for id.
func SourceRemoved(id source.ID) Event {
	return Event{Kind: KindSourceRemoved, Time: time.Now(), SourceID: id}
}

// VariablesChanged builds a KindVariablesChanged event describing the keys
// that were added, removed, or had their value modified for the source id.
func VariablesChanged(id source.ID, added, removed, modified []string) Event {
	return Event{
		Kind:     KindVariablesChanged,
		Time:     time.Now(),
		SourceID: id,
		Added:    added,
		Removed:  removed,
		Modified: modified,
	}
}

// CacheInvalidated builds a KindCacheInvalidated event with the given
// human-readable reason.
func CacheInvalidated(reason string) Event {
	return Event{Kind: KindCacheInvalidated, Time: time.Now(), Reason: reason}
}
