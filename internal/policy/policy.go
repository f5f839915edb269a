// Package policy provides the swappable decision functions customers shop
// with: target selection, purchase sizing, queue switching, repathing, the
// embarrassment tick, and cashier choice. Every policy is a pure function of
// a point-in-time DecisionContext plus a candidate set; "no decision" is a
// valid result, not an error.
package policy

import (
	"math/rand"

	"shopfloor/internal/customer"
	"shopfloor/internal/store"
)

// DecisionContext is the ephemeral, read-only snapshot a policy decides
// from. It is rebuilt on demand from the effective profile and live state,
// and never persisted.
type DecisionContext struct {
	Customer customer.ID
	Level    int
	Trust    int

	Interest         []float64
	EmbarrassmentCap float64
	MoveSpeed        float64
	QueueTolerance   float64
	Wallet           float64
	PriceSensitivity float64

	// PurchasedThisVisit holds categories already bought during this visit.
	PurchasedThisVisit map[int]bool
	// EverPurchased holds categories the customer has bought in any visit.
	EverPurchased map[int]bool

	// Closing is set when the store is in its forced-closing state.
	Closing bool

	// Rand is the simulation's seeded source; policies draw from it so runs
	// stay reproducible.
	Rand *rand.Rand
}

// InterestIn returns the context's interest for a category, 0 when the
// category is out of range.
func (c *DecisionContext) InterestIn(category int) float64 {
	if category < 0 || category >= len(c.Interest) {
		return 0
	}
	return c.Interest[category]
}

// TargetSelector picks the next shelf to visit.
type TargetSelector interface {
	SelectTarget(ctx *DecisionContext, shelves []store.Snapshot) (store.ResourceID, bool)
}

// PurchaseSizer decides how many units to buy at a shelf.
type PurchaseSizer interface {
	PurchaseQty(ctx *DecisionContext, shelf store.Snapshot) int
}

// QueueSwitchAdvisor decides whether a queued customer should defect to
// another service point. Returns the new target when switching.
type QueueSwitchAdvisor interface {
	ShouldSwitch(ctx *DecisionContext, current store.Snapshot, position int, waitedSec float64, alternatives []store.Snapshot) (store.ResourceID, bool)
}

// RepathAdvisor decides whether a customer en route should abandon the
// current target and choose again.
type RepathAdvisor interface {
	ShouldRepath(ctx *DecisionContext, target store.Snapshot) bool
}

// EmbarrassmentTicker advances a customer's embarrassment each tick and
// returns the delta to apply.
type EmbarrassmentTicker interface {
	EmbarrassmentDelta(ctx *DecisionContext, queueing bool, queuePosition int) float64
}

// CashierChooser picks a register for checkout.
type CashierChooser interface {
	ChooseCashier(ctx *DecisionContext, registers []store.Snapshot, from store.GridCell) (store.ResourceID, bool)
}

// Set bundles one implementation per role. A customer references exactly one
// set, inherited from its archetype.
type Set struct {
	Name          string
	Target        TargetSelector
	Sizer         PurchaseSizer
	QueueSwitch   QueueSwitchAdvisor
	Repath        RepathAdvisor
	Embarrassment EmbarrassmentTicker
	Cashier       CashierChooser
}

// Config aggregates the authored tuning for the default policy set.
type Config struct {
	Selector      SelectorConfig      `yaml:"selector"`
	Sizer         SizerConfig         `yaml:"sizer"`
	QueueSwitch   QueueSwitchConfig   `yaml:"queue_switch"`
	Repath        RepathConfig        `yaml:"repath"`
	Embarrassment EmbarrassmentConfig `yaml:"embarrassment"`
	Cashier       CashierConfig       `yaml:"cashier"`
}

// DefaultSet builds the default policy set from authored tuning.
func DefaultSet(name string, cfg Config) *Set {
	return &Set{
		Name:          name,
		Target:        &WeightedSelector{Cfg: cfg.Selector},
		Sizer:         &BudgetSizer{Cfg: cfg.Sizer},
		QueueSwitch:   &ToleranceSwitcher{Cfg: cfg.QueueSwitch},
		Repath:        &StalenessRepather{Cfg: cfg.Repath},
		Embarrassment: &LinearEmbarrassment{Cfg: cfg.Embarrassment},
		Cashier:       &RegisterChooser{Cfg: cfg.Cashier},
	}
}
