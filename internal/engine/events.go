// Outbound event stream: fire-and-forget notifications for the UI, audio,
// and analytics collaborators.
package engine

import (
	"shopfloor/internal/customer"
	"shopfloor/internal/store"
)

// EventKind enumerates the outbound notifications.
type EventKind string

const (
	EventSpawned    EventKind = "spawned"
	EventReached    EventKind = "reached_resource"
	EventPurchased  EventKind = "purchased"
	EventCheckedOut EventKind = "checked_out"
	EventLevelUp    EventKind = "level_up"
	EventLeft       EventKind = "left"
	EventDestroyed  EventKind = "destroyed"
)

// Event is a notable occurrence on the floor.
type Event struct {
	Tick     uint64           `json:"tick"`
	Kind     EventKind        `json:"kind"`
	Customer customer.ID      `json:"customer,omitempty"`
	Resource store.ResourceID `json:"resource,omitempty"`
	Qty      int              `json:"qty,omitempty"`
	Amount   float64          `json:"amount,omitempty"`
	Detail   string           `json:"detail,omitempty"`
}

// Feed is a bounded ring of recent events.
type Feed struct {
	events []Event
	max    int
}

// NewFeed creates a feed keeping at most max events.
func NewFeed(max int) *Feed {
	return &Feed{max: max}
}

// Emit appends an event, dropping the oldest past capacity.
func (f *Feed) Emit(e Event) {
	f.events = append(f.events, e)
	if len(f.events) > f.max {
		f.events = f.events[len(f.events)-f.max:]
	}
}

// Recent returns up to n most recent events, oldest first.
func (f *Feed) Recent(n int) []Event {
	if n <= 0 || n > len(f.events) {
		n = len(f.events)
	}
	out := make([]Event, n)
	copy(out, f.events[len(f.events)-n:])
	return out
}

// Len returns the number of buffered events.
func (f *Feed) Len() int {
	return len(f.events)
}
