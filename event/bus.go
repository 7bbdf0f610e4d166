// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"sync"

	"github.com/envlayer/envcore/recovery"
)

// DefaultBroadcastBuffer is the default capacity of the channel returned by
// Bus.Events.
const DefaultBroadcastBuffer = 256

// Subscriber receives every Event published on a Bus, synchronously, in
// Publish's goroutine. A Subscriber that panics does not take down the
// publisher or any other subscriber.
type Subscriber func(Event)

// Bus fans an Event out to two kinds of listener: synchronous Subscriber
// callbacks, invoked in Publish itself, and a single bounded broadcast
// channel for consumers that prefer to range over events on their own
// goroutine. When the broadcast channel is full, Publish drops the oldest
// queued event to make room, so a slow consumer loses history rather than
// stalling every publisher.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int]Subscriber
	nextID      int
	broadcast   chan Event
}

// NewBus creates a Bus whose broadcast channel has the given buffer size. A
// bufferSize of 0 or less uses DefaultBroadcastBuffer.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBroadcastBuffer
	}
	return &Bus{
		subscribers: make(map[int]Subscriber),
		broadcast:   make(chan Event, bufferSize),
	}
}

// Subscribe registers fn to be called, synchronously, for every future
// Publish. The returned function removes the subscription; calling it more
// than once is a no-op.
func (b *Bus) Subscribe(fn Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
		})
	}
}

// Events returns the bounded broadcast channel. It is the same channel for
// the lifetime of the Bus; callers range over it rather than closing it
// themselves.
func (b *Bus) Events() <-chan Event {
	return b.broadcast
}

// Publish fans e out to every current subscriber, then offers it on the
// broadcast channel, dropping the oldest queued event first if the channel
// is full.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subscribers := make([]Subscriber, 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subscribers = append(subscribers, fn)
	}
	b.mu.Unlock()

	for _, fn := range subscribers {
		fn := fn
		recovery.SafeVoid(func() { fn(e) })
	}

	b.offer(e)
}

// offer performs a non-blocking send of e onto the broadcast channel,
// evicting the oldest queued event first if necessary. The mutex ensures
// concurrent publishers don't race on the drop-then-send sequence.
func (b *Bus) offer(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case b.broadcast <- e:
		return
	default:
	}

	select {
	case <-b.broadcast:
	default:
	}

	select {
	case b.broadcast <- e:
	default:
	}
}
