package util

import "sync"

// EventType is the type for session coordination events
type EventType int

// EventBox carries out-of-band conditions from the signal-handler
// goroutine to the session main loop. Setting an already-set event
// coalesces: the loop only cares that the condition occurred, not how
// many times.
type EventBox struct {
	mutex  sync.Mutex
	events map[EventType]interface{}
}

// NewEventBox returns a new EventBox
func NewEventBox() *EventBox {
	return &EventBox{events: make(map[EventType]interface{})}
}

// Set turns on the event type on the box
func (b *EventBox) Set(event EventType, value interface{}) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.events[event] = value
}

// Take removes the event from the box and returns its value along with
// whether it was set. Non-blocking; the main loop polls between reads.
func (b *EventBox) Take(event EventType) (interface{}, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	value, ok := b.events[event]
	if ok {
		delete(b.events, event)
	}
	return value, ok
}
