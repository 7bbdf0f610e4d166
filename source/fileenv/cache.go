// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fileenv

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCacheCapacity is the number of file bodies the shared content cache
// retains before evicting the least recently used entry. A workspace with
// many packages, each carrying its own .env file, can easily exceed what a
// single process would otherwise re-read on every resolution pass.
const DefaultCacheCapacity = 1000

type cacheEntry struct {
	path    string
	modTime time.Time
	content []byte
}

// contentCache is a bounded least-recently-used cache from file path to the
// file body read at a given mtime. It exists so many fileenv.Source values
// watching overlapping directories don't each hold (or re-read) their own
// copy of the same bytes.
type contentCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

func newContentCache(capacity int) *contentCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &contentCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// get returns the cached content for path if it is present and was cached
// for exactly modTime; a stale entry (different mtime) is treated as a miss.
func (c *contentCache) get(path string, modTime time.Time) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[path]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if !entry.modTime.Equal(modTime) {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return entry.content, true
}

func (c *contentCache) put(path string, modTime time.Time, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[path]; ok {
		el.Value.(*cacheEntry).modTime = modTime
		el.Value.(*cacheEntry).content = content
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&cacheEntry{path: path, modTime: modTime, content: content})
	c.items[path] = el

	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).path)
	}
}

// sharedCache is the process-wide content cache used by Source values
// created with New. Tests that need isolation construct their own via
// newContentCache instead.
var sharedCache = newContentCache(DefaultCacheCapacity)
