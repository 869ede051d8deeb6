package events_test

import (
	"testing"

	"scltemplates/src/events"
)

type mockObserver struct {
	received []events.Event
}

func (m *mockObserver) Handle(e events.Event) {
	m.received = append(m.received, e)
}

func TestBusSubscribePublish(t *testing.T) {
	bus := events.NewBus()
	obs := &mockObserver{}
	bus.Subscribe(obs)

	bus.Publish(events.Event{
		Type:    events.EventCommandExecuted,
		Command: "set",
		Raw:     "set LNodeType id LT2",
	})

	if len(obs.received) != 1 {
		t.Fatalf("observer should receive one event, got %d", len(obs.received))
	}
	if obs.received[0].Command != "set" {
		t.Fatalf("event command mismatch")
	}
	if obs.received[0].Timestamp.IsZero() {
		t.Fatalf("publish should stamp the event")
	}
}

func TestBusMultipleObservers(t *testing.T) {
	bus := events.NewBus()
	obs := &mockObserver{}
	var committed []string
	bus.Subscribe(obs)
	bus.Subscribe(events.ListenerFunc(func(e events.Event) {
		if e.Type == events.EventCommitted {
			committed = append(committed, e.Metadata["actions"])
		}
	}))

	bus.Publish(events.Event{Type: events.EventCommitted, Metadata: map[string]string{"actions": "3"}})
	bus.Publish(events.Event{Type: events.EventUndone})

	if len(obs.received) != 2 {
		t.Fatalf("first observer should receive both events, got %d", len(obs.received))
	}
	if len(committed) != 1 || committed[0] != "3" {
		t.Fatalf("func listener should see the commit, got %v", committed)
	}
}

func TestNilBusPublish(t *testing.T) {
	var bus *events.Bus
	bus.Publish(events.Event{Type: events.EventCommitted})
}
