// Per-customer visit state machine. Each visit is an explicit FSM stepped
// once per tick, calling into the policy, queue, and commerce services.
package engine

import (
	"math"

	"shopfloor/internal/customer"
	"shopfloor/internal/policy"
	"shopfloor/internal/session"
	"shopfloor/internal/store"
)

// VisitPhase is a state of the visit FSM.
type VisitPhase uint8

const (
	PhaseArriving      VisitPhase = iota // walking in from the entrance
	PhaseChoosing                        // picking the next shelf
	PhaseApproaching                     // walking to the chosen shelf
	PhaseQueuing                         // waiting in a shelf queue
	PhaseAtShelf                         // at the interaction point, being served
	PhaseToRegister                      // walking to a register
	PhaseRegisterQueue                   // waiting in a register queue
	PhaseAtRegister                      // settling payment
	PhaseLeaving                         // walking to the exit
	PhaseDone                            // visit complete, ready for rewards
)

// PhaseName returns a readable phase name for logs and the API.
func PhaseName(p VisitPhase) string {
	switch p {
	case PhaseArriving:
		return "arriving"
	case PhaseChoosing:
		return "choosing"
	case PhaseApproaching:
		return "approaching"
	case PhaseQueuing:
		return "queuing"
	case PhaseAtShelf:
		return "at_shelf"
	case PhaseToRegister:
		return "to_register"
	case PhaseRegisterQueue:
		return "register_queue"
	case PhaseAtRegister:
		return "at_register"
	case PhaseLeaving:
		return "leaving"
	default:
		return "done"
	}
}

// Visit is one customer's live presence on the floor.
type Visit struct {
	Record    *customer.Record
	Archetype *customer.Archetype
	Profile   *customer.EffectiveProfile
	Session   *session.Session
	Policies  *policy.Set

	Phase  VisitPhase
	Target store.ResourceID
	Pos    store.GridCell

	TravelTicks  int
	ServiceTicks int
	WaitTicks    uint64

	PatienceLeft  float64
	Embarrassment float64

	// Purchased holds categories bought during this visit.
	Purchased map[int]bool

	// pendingReason overrides the default leave reason when the customer was
	// routed to checkout early.
	pendingReason session.LeaveReason
}

// travelTicks converts a straight-line walk into a tick countdown.
func travelTicks(from, to store.GridCell, speed float64) int {
	if speed <= 0 {
		speed = 1
	}
	t := int(math.Ceil(from.DistanceTo(to) / speed))
	if t < 1 {
		t = 1
	}
	return t
}

// leaveReason resolves the visit's final reason once checkout is complete.
func (v *Visit) leaveReason() session.LeaveReason {
	if v.pendingReason != "" {
		return v.pendingReason
	}
	return session.LeaveSatisfied
}
