package store

import (
	"log"
	"sync"
)

// EventType names a coarse-grained store event published on the Bus.
type EventType string

const (
	// EventBoardAdded is published after a board is appended
	EventBoardAdded EventType = "board:added"

	// EventBoardUpdated is published after a board is replaced with a new value
	EventBoardUpdated EventType = "board:updated"

	// EventBoardRemoved is published after a board is removed
	EventBoardRemoved EventType = "board:removed"

	// EventStateChanged is published after every non-silent mutation.
	// Its payload is the map of changed key/value pairs.
	EventStateChanged EventType = "state:changed"

	// EventStateUndo is published when the history pointer moves backwards
	EventStateUndo EventType = "state:undo"

	// EventStateRedo is published when the history pointer moves forwards
	EventStateRedo EventType = "state:redo"

	// EventStateReset is published when the store returns to its initial state
	EventStateReset EventType = "state:reset"
)

// Event is one bus notification. Payload depends on the type: the affected
// Board for board events, a map[Key]any of changed pairs for state:changed,
// and the restored State for undo/redo.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// busSubscriberBuffer is the channel capacity of each bus subscription.
const busSubscriberBuffer = 32

// Bus fans store events out to collaborators that want coarse-grained
// integration (persistence triggers, SSE streams) instead of field-level
// subscriptions. Publishing never blocks: a subscriber that falls behind
// has events dropped, which is logged.
type Bus struct {
	mu     sync.Mutex
	subs   []*BusSubscription
	logger *log.Logger
}

func newBus(logger *log.Logger) *Bus {
	return &Bus{logger: logger}
}

// BusSubscription is one active bus listener.
// Caller must call Close() when done to release the subscription.
type BusSubscription struct {
	events chan Event
	types  map[EventType]bool // nil means all types
	bus    *Bus
	once   sync.Once
}

// Events returns the channel of bus events. It is closed by Close.
func (s *BusSubscription) Events() <-chan Event {
	return s.events
}

// Close removes the subscription and closes its channel. Implements
// io.Closer semantics; safe to call multiple times.
func (s *BusSubscription) Close() error {
	s.once.Do(func() {
		s.bus.remove(s)
		close(s.events)
	})
	return nil
}

// Subscribe registers a listener for the given event types. With no types it
// receives every event. Events are delivered on a buffered channel; slow
// consumers lose events rather than blocking the store.
func (b *Bus) Subscribe(types ...EventType) *BusSubscription {
	sub := &BusSubscription{
		events: make(chan Event, busSubscriberBuffer),
		bus:    b,
	}
	if len(types) > 0 {
		sub.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub
}

// publish delivers an event to every matching subscriber without blocking.
// The lock is held across delivery so a concurrent Close cannot close a
// channel mid-send; sends are non-blocking, so the critical section is short.
func (b *Bus) publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if sub.types != nil && !sub.types[evt.Type] {
			continue
		}
		select {
		case sub.events <- evt:
		default:
			b.logger.Printf("store: dropping %s event for slow bus subscriber", evt.Type)
		}
	}
}

func (b *Bus) remove(sub *BusSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}
