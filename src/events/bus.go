package events

import (
	"sync"
	"time"
)

// EventType identifies published event categories.
type EventType string

const (
	// EventCommandExecuted is emitted after a console command completes.
	EventCommandExecuted EventType = "command_executed"
	// EventCommitted is emitted after an action list was applied to a document.
	EventCommitted EventType = "committed"
	// EventUndone is emitted after an undo.
	EventUndone EventType = "undone"
	// EventRedone is emitted after a redo.
	EventRedone EventType = "redone"
)

// Event captures domain happenings for observers.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Command   string
	Raw       string
	File      string
	Metadata  map[string]string
}

// Listener consumes published events.
type Listener interface {
	Handle(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// Handle calls f.
func (f ListenerFunc) Handle(e Event) { f(e) }

// Bus is a simple observer dispatcher.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener.
func (b *Bus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Publish sends an event to listeners. A zero timestamp is set to now.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, l := range b.listeners {
		l.Handle(event)
	}
}
