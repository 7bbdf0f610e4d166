// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cache implements the two-tier memoization in front of the
// resolution engine: a bounded hot LRU backed by an unbounded warm tier
// with per-entry TTL. Both tiers stamp entries with the epoch supplied at
// construction, so a single epoch bump (from a source registry mutation)
// invalidates every entry in O(1) without a bulk scan — staleness is
// caught lazily, on the next lookup.
package cache

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultHotCapacity is the default bound on the hot tier.
const DefaultHotCapacity = 1024

// DefaultTTL is the default warm-tier entry lifetime.
const DefaultTTL = 300 * time.Second

type hotEntry[V any] struct {
	key   string
	value V
	epoch uint64
}

type warmEntry[V any] struct {
	value      V
	epoch      uint64
	insertedAt time.Time
}

// Cache is a generic, epoch-aware two-tier memoization cache.
type Cache[V any] struct {
	epochFunc   func() uint64
	hotCapacity int
	ttl         time.Duration

	hotMu    sync.Mutex
	hotLL    *list.List
	hotItems map[string]*list.Element

	warm sync.Map // string -> *warmEntry[V]

	group singleflight.Group
}

// Option configures a Cache built with New.
type Option[V any] func(*Cache[V])

// WithHotCapacity overrides DefaultHotCapacity.
func WithHotCapacity[V any](capacity int) Option[V] {
	return func(c *Cache[V]) { c.hotCapacity = capacity }
}

// WithTTL overrides DefaultTTL.
func WithTTL[V any](ttl time.Duration) Option[V] {
	return func(c *Cache[V]) { c.ttl = ttl }
}

// New creates a Cache. epochFunc reports the current global epoch; the
// cache samples it on every Set and compares against it on every Get, so
// entries written before an epoch bump are treated as misses without
// needing to be individually purged.
func New[V any](epochFunc func() uint64, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		epochFunc:   epochFunc,
		hotCapacity: DefaultHotCapacity,
		ttl:         DefaultTTL,
		hotLL:       list.New(),
		hotItems:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key, if present and not stale. A hot-tier
// hit moves the entry to most-recently-used; a warm-tier hit promotes the
// entry back into the hot tier.
func (c *Cache[V]) Get(key string) (V, bool) {
	if v, ok := c.getHot(key); ok {
		return v, true
	}
	return c.getWarm(key)
}

func (c *Cache[V]) getHot(key string) (V, bool) {
	var zero V
	c.hotMu.Lock()
	defer c.hotMu.Unlock()

	el, ok := c.hotItems[key]
	if !ok {
		return zero, false
	}
	entry := el.Value.(*hotEntry[V])
	if entry.epoch != c.epochFunc() {
		c.hotLL.Remove(el)
		delete(c.hotItems, key)
		return zero, false
	}
	c.hotLL.MoveToFront(el)
	return entry.value, true
}

func (c *Cache[V]) getWarm(key string) (V, bool) {
	var zero V
	raw, ok := c.warm.Load(key)
	if !ok {
		return zero, false
	}
	entry := raw.(*warmEntry[V])
	if entry.epoch != c.epochFunc() || time.Since(entry.insertedAt) > c.ttl {
		c.warm.Delete(key)
		return zero, false
	}
	c.promote(key, entry.value, entry.epoch)
	return entry.value, true
}

// Set writes value into both tiers, stamped with the current epoch.
func (c *Cache[V]) Set(key string, value V) {
	epoch := c.epochFunc()
	c.warm.Store(key, &warmEntry[V]{value: value, epoch: epoch, insertedAt: time.Now()})
	c.promote(key, value, epoch)
}

func (c *Cache[V]) promote(key string, value V, epoch uint64) {
	c.hotMu.Lock()
	defer c.hotMu.Unlock()

	if el, ok := c.hotItems[key]; ok {
		e := el.Value.(*hotEntry[V])
		e.value = value
		e.epoch = epoch
		c.hotLL.MoveToFront(el)
		return
	}

	el := c.hotLL.PushFront(&hotEntry[V]{key: key, value: value, epoch: epoch})
	c.hotItems[key] = el

	for c.hotLL.Len() > c.hotCapacity {
		oldest := c.hotLL.Back()
		if oldest == nil {
			break
		}
		c.hotLL.Remove(oldest)
		delete(c.hotItems, oldest.Value.(*hotEntry[V]).key)
	}
}

// GetOrCompute returns the cached value for key, computing and storing it
// via compute on a miss. Concurrent callers racing on the same key share a
// single in-flight computation via singleflight, so a cache stampede on a
// hot key triggers compute at most once.
func (c *Cache[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Purge drops every entry from both tiers, regardless of epoch or TTL.
func (c *Cache[V]) Purge() {
	c.hotMu.Lock()
	c.hotLL = list.New()
	c.hotItems = make(map[string]*list.Element)
	c.hotMu.Unlock()

	c.warm.Range(func(key, _ any) bool {
		c.warm.Delete(key)
		return true
	})
}

// HotLen reports the number of entries currently in the hot tier.
func (c *Cache[V]) HotLen() int {
	c.hotMu.Lock()
	defer c.hotMu.Unlock()
	return c.hotLL.Len()
}
