// Package bus provides a synchronous in-process publish/subscribe bus over a
// closed set of typed event kinds. The bus is an explicitly constructed,
// dependency-injected instance owned by the composing application — there is
// no package-level singleton.
//
// Delivery is synchronous and in registration order, within the publishing
// goroutine. There is no persistence, no delivery to listeners registered
// after Publish has fired, and no cross-process delivery.
package bus

import (
	"sync"
	"time"
)

// Handler receives published events for one kind.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
	once    bool
	fired   bool
}

// Bus is a synchronous publish/subscribe registry. Safe for concurrent use;
// handlers themselves run synchronously inside Publish.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]*subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Kind][]*subscription)}
}

// Subscribe registers a handler for kind and returns its unsubscribe func.
// The unsubscribe func is idempotent.
func (b *Bus) Subscribe(kind Kind, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, handler: h}
	b.subs[kind] = append(b.subs[kind], sub)

	id := sub.id
	return func() { b.remove(kind, id) }
}

// SubscribeOnce registers a handler that self-unsubscribes after its first
// invocation. A second Publish of the same kind does not re-trigger it.
func (b *Bus) SubscribeOnce(kind Kind, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, handler: h, once: true}
	b.subs[kind] = append(b.subs[kind], sub)

	id := sub.id
	return func() { b.remove(kind, id) }
}

// Unsubscribe drops every handler registered for kind.
func (b *Bus) Unsubscribe(kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, kind)
}

// Publish delivers payload to every handler currently registered for kind,
// synchronously, in registration order. A handler that mutates the listener
// set mid-publish affects later publishes, not the in-flight one.
func (b *Bus) Publish(kind Kind, payload any) {
	ev := Event{Kind: kind, At: time.Now(), Payload: payload}

	b.mu.Lock()
	targets := make([]*subscription, 0, len(b.subs[kind]))
	for _, sub := range b.subs[kind] {
		if sub.once && sub.fired {
			continue
		}
		if sub.once {
			sub.fired = true
		}
		targets = append(targets, sub)
	}
	// Once-subscriptions are spent; drop them before handlers run so a
	// handler observing ListenerCount does not see them.
	kept := b.subs[kind][:0]
	for _, sub := range b.subs[kind] {
		if !(sub.once && sub.fired) {
			kept = append(kept, sub)
		}
	}
	if len(kept) == 0 {
		delete(b.subs, kind)
	} else {
		b.subs[kind] = kept
	}
	b.mu.Unlock()

	for _, sub := range targets {
		sub.handler(ev)
	}
}

// ListenerCount returns the number of handlers registered for kind.
func (b *Bus) ListenerCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[kind])
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, sub := range subs {
		if sub.id == id {
			b.subs[kind] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[kind]) == 0 {
		delete(b.subs, kind)
	}
}
