package harness

import (
	"sync"

	"github.com/riglabs/shadowrig/dom"
)

// EventSpy records every dispatched event of one name on one handle's root
// element, in dispatch order. The recorded list is append-only for the
// spy's lifetime; the listener is removed only when the handle unmounts.
type EventSpy struct {
	eventName string
	handle    dom.ListenerHandle

	mu     sync.Mutex
	events []dom.Event
}

func newEventSpy(name string) *EventSpy {
	return &EventSpy{eventName: name}
}

// EventName returns the observed event name.
func (s *EventSpy) EventName() string { return s.eventName }

// Events returns the recorded events in dispatch order.
func (s *EventSpy) Events() []dom.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dom.Event(nil), s.events...)
}

// Length mirrors len(Events()).
func (s *EventSpy) Length() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// FirstEvent returns the first recorded event, or false when none.
func (s *EventSpy) FirstEvent() (dom.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return dom.Event{}, false
	}
	return s.events[0], true
}

// LastEvent returns the most recent recorded event, or false when none.
func (s *EventSpy) LastEvent() (dom.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return dom.Event{}, false
	}
	return s.events[len(s.events)-1], true
}

func (s *EventSpy) append(ev dom.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}
