package control

import "sync"

// EventName identifies an event delivered to the timer.
type EventName string

// Event names are the contract with the timer side and must not change.
const (
	EventToggle     EventName = "toggle"
	EventStart      EventName = "start"
	EventStop       EventName = "stop"
	EventSkip       EventName = "skip"
	EventReset      EventName = "reset"
	EventExtend     EventName = "extend"
	EventIdlePause  EventName = "idle-pause"
	EventIdleResume EventName = "idle-resume"
)

// Event is a fire-and-forget request toward the timer. Seconds is only
// meaningful for EventExtend.
type Event struct {
	Name    EventName
	Seconds uint32
}

// Publisher accepts events without waiting for anyone to handle them.
type Publisher interface {
	Publish(event Event)
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu          sync.Mutex
	subscribers []chan Event
	closed      bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new observer channel.
func (bus *Bus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		close(ch)
		return ch
	}
	bus.subscribers = append(bus.subscribers, ch)
	return ch
}

// Publish delivers event to every subscriber that has room for it.
func (bus *Bus) Publish(event Event) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		return
	}
	for _, ch := range bus.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (bus *Bus) Close() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		return
	}
	bus.closed = true
	for _, ch := range bus.subscribers {
		close(ch)
	}
	bus.subscribers = nil
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

// Publish calls fn(event).
func (fn PublisherFunc) Publish(event Event) {
	fn(event)
}
