// Package queue provides per-resource FIFO slot allocation. One Queue owns
// the ordered waiting line for exactly one service point; every mutation of
// that line goes through Acquire/Release.
package queue

import (
	"log/slog"

	"shopfloor/internal/customer"
	"shopfloor/internal/store"
)

// Slot is a customer's assigned position at a service point. Index 0 is the
// resource's single interaction point; higher indices are spaced along the
// resource's queue direction.
type Slot struct {
	Index int            `json:"index"`
	Cell  store.GridCell `json:"cell"`
}

// Queue is the waiting line for one service point.
type Queue struct {
	resource    store.ResourceID
	interaction store.GridCell
	dir         store.GridCell
	serviceSec  float64 // average seconds spent at the interaction point

	ids   []customer.ID // index = position, 0 = front
	slots map[customer.ID]Slot
}

// New creates the queue for a resource. Slots extend from the interaction
// cell along dir; serviceSec is the configured average service time used for
// wait prediction.
func New(res *store.Resource, serviceSec float64) *Queue {
	return &Queue{
		resource:    res.ID,
		interaction: res.Cell,
		dir:         res.QueueDir,
		serviceSec:  serviceSec,
		slots:       make(map[customer.ID]Slot),
	}
}

// Resource returns the service point this queue belongs to.
func (q *Queue) Resource() store.ResourceID {
	return q.resource
}

// Len returns the number of customers currently holding a slot.
func (q *Queue) Len() int {
	return len(q.ids)
}

// Acquire appends the customer to the end of the line and returns their
// slot. Acquiring while already queued is idempotent: the existing slot is
// returned and a warning logged.
func (q *Queue) Acquire(id customer.ID) Slot {
	if slot, ok := q.slots[id]; ok {
		slog.Warn("queue acquire for already-queued customer",
			"resource", q.resource, "customer", id, "position", slot.Index)
		return slot
	}
	slot := Slot{Index: len(q.ids), Cell: q.slotCell(len(q.ids))}
	q.ids = append(q.ids, id)
	q.slots[id] = slot
	return slot
}

// Release removes the customer and renumbers every remaining slot so no
// position is ever skipped. Releasing an absent customer is a logged no-op.
// The renumber is O(n) per release; that cost is intentional.
func (q *Queue) Release(id customer.ID) {
	if _, ok := q.slots[id]; !ok {
		slog.Warn("queue release for customer not in queue",
			"resource", q.resource, "customer", id)
		return
	}
	delete(q.slots, id)
	for i, cid := range q.ids {
		if cid == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			break
		}
	}
	for i, cid := range q.ids {
		q.slots[cid] = Slot{Index: i, Cell: q.slotCell(i)}
	}
}

// Position returns the customer's current index, or -1 when not queued.
func (q *Queue) Position(id customer.ID) int {
	if slot, ok := q.slots[id]; ok {
		return slot.Index
	}
	return -1
}

// SlotOf returns the customer's slot handle.
func (q *Queue) SlotOf(id customer.ID) (Slot, bool) {
	slot, ok := q.slots[id]
	return slot, ok
}

// Front returns the customer at the interaction point, if any.
func (q *Queue) Front() (customer.ID, bool) {
	if len(q.ids) == 0 {
		return 0, false
	}
	return q.ids[0], true
}

// Customers returns the line in arrival order. The slice is a copy.
func (q *Queue) Customers() []customer.ID {
	out := make([]customer.ID, len(q.ids))
	copy(out, q.ids)
	return out
}

// PredictWait estimates seconds until a customer at position reaches the
// interaction point.
func (q *Queue) PredictWait(position int) float64 {
	if position < 0 {
		return 0
	}
	return float64(position) * q.serviceSec
}

func (q *Queue) slotCell(index int) store.GridCell {
	return q.interaction.Add(q.dir, index)
}
