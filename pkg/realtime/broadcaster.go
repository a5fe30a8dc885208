package realtime

import "sync"

// Broadcaster publishes lightweight events to SSE subscribers.
// Events are notifications only; subscribers read the current state themselves,
// so a dropped event never loses data.
type Broadcaster[E any] struct {
	mu     sync.Mutex
	subs   map[chan E]struct{}
	closed bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster[E any]() *Broadcaster[E] {
	return &Broadcaster[E]{
		subs: make(map[chan E]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its event channel.
// Subscribing to a closed broadcaster returns an already closed channel.
func (b *Broadcaster[E]) Subscribe() chan E {
	ch := make(chan E, 10)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster[E]) Unsubscribe(ch chan E) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers an event to all subscribers.
func (b *Broadcaster[E]) Publish(event E) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Drop if the subscriber is lagging; next event will catch it up.
		}
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Broadcaster[E]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Closed reports whether Close has been called.
func (b *Broadcaster[E]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
