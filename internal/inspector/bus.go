// Package inspector provides a live event feed over a fan-out bus: engine,
// controller and server activity is published as events and streamed to a
// browser page via SSE.
package inspector

import (
	"sync"
	"time"
)

// Event is a single inspector feed entry.
type Event struct {
	Kind   string // "layer", "fetch", "advisory", "query", "viewport"
	Layer  string
	Detail string
	Time   time.Time
}

// Bus is a fan-out pub/sub for inspector events. Slow subscribers drop
// events rather than block publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers, stamping the time when unset.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a buffered channel receiving future events.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
