package service

import "sync"

// Resources published on the bus.
const (
	ResourceCities   = "cities"
	ResourceSettings = "settings"
)

// Event describes one mutation of the atlas state.
type Event struct {
	Resource string // "cities" or "settings"
	Action   string // "created", "updated", "deleted", "imported", "cleared"
	ID       string // city ID, empty for collection-wide actions
	Revision uint64 // collection revision after the mutation
}

// EventBus is a fan-out pub/sub for change events. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
