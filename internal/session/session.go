// Package session provides the per-visit ledger and the progression service
// that converts a finished visit into experience, loyalty levels, and
// lifetime statistics.
package session

import (
	"github.com/google/uuid"

	"shopfloor/internal/customer"
	"shopfloor/internal/store"
)

// LeaveReason records why a visit ended.
type LeaveReason string

const (
	LeaveSatisfied   LeaveReason = "satisfied"
	LeaveImpatient   LeaveReason = "impatient"
	LeaveEmbarrassed LeaveReason = "embarrassed"
	LeaveBroke       LeaveReason = "broke"
	LeaveClosing     LeaveReason = "closing"
	LeaveForced      LeaveReason = "forced"
)

// ShelfVisit records one stop at a shelf during the visit.
type ShelfVisit struct {
	Resource  store.ResourceID `json:"resource"`
	Category  int              `json:"category"`
	WaitTicks uint64           `json:"wait_ticks"`
	StayTicks uint64           `json:"stay_ticks"`
	Reserved  int              `json:"reserved"`
	Bought    int              `json:"bought"`
	Spent     float64          `json:"spent"`
}

// Session is the ephemeral per-visit ledger. Created at visit start,
// consumed and discarded by the progression service at visit end.
type Session struct {
	ID       uuid.UUID   `json:"id"`
	Customer customer.ID `json:"customer"`

	StartTick      uint64  `json:"start_tick"`
	StartingWallet float64 `json:"starting_wallet"`
	Wallet         float64 `json:"wallet"`
	Spent          float64 `json:"spent"`

	TrustDelta        int     `json:"trust_delta"`
	PeakEmbarrassment float64 `json:"peak_embarrassment"`

	Visits []ShelfVisit `json:"visits"`
	Reason LeaveReason  `json:"reason"`
}

// New opens a visit ledger with the customer's starting wallet.
func New(cust customer.ID, wallet float64, tick uint64) *Session {
	return &Session{
		ID:             uuid.New(),
		Customer:       cust,
		StartTick:      tick,
		StartingWallet: wallet,
		Wallet:         wallet,
	}
}

// Debit charges the wallet for a pickup.
func (s *Session) Debit(amount float64) {
	s.Wallet -= amount
	s.Spent += amount
}

// RecordShelfVisit appends one shelf stop to the ledger.
func (s *Session) RecordShelfVisit(v ShelfVisit) {
	s.Visits = append(s.Visits, v)
}

// ObserveEmbarrassment tracks the visit's peak embarrassment.
func (s *Session) ObserveEmbarrassment(v float64) {
	if v > s.PeakEmbarrassment {
		s.PeakEmbarrassment = v
	}
}

// ShelvesVisited returns how many shelf stops bought at least one unit.
func (s *Session) ShelvesVisited() int {
	n := 0
	for _, v := range s.Visits {
		if v.Bought > 0 {
			n++
		}
	}
	return n
}
