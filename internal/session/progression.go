// Progression converts a finished visit into XP, loyalty levels, and
// lifetime statistics on the persistent record.
package session

import (
	"math"

	"shopfloor/internal/curve"
	"shopfloor/internal/customer"
)

// LevelUp is emitted when a visit pushes a customer over a loyalty
// threshold, for consumption by the settlement-summary collaborator.
type LevelUp struct {
	Customer customer.ID `json:"customer"`
	OldLevel int         `json:"old_level"`
	NewLevel int         `json:"new_level"`
	XPGained int         `json:"xp_gained"`
	TotalXP  int         `json:"total_xp"`
}

// Progression applies visit rewards to customer records.
type Progression struct {
	// SpendMultiplier scales XP by money spent during the visit.
	SpendMultiplier curve.Curve
}

// ApplyRewards folds the session into the record: XP (monotonic), loyalty
// level from the archetype's thresholds, trust, lifetime counters, and
// first-purchase history. Returns the XP gained and a LevelUp when the
// loyalty level rose.
func (p *Progression) ApplyRewards(rec *customer.Record, arch *customer.Archetype, xpMul float64, s *Session, tick uint64) (int, *LevelUp) {
	gained := int(math.Round(arch.BaseXP * xpMul * p.SpendMultiplier.Sample(s.Spent)))
	if gained < 0 {
		gained = 0
	}

	oldLevel := rec.Level
	rec.XP += gained
	rec.Level = LevelFor(arch.XPThresholds, rec.XP)

	rec.Trust += s.TrustDelta
	if s.Spent > 0 {
		rec.LifetimeSpent += s.Spent
		rec.VisitCount++
	}
	for _, v := range s.Visits {
		if v.Bought > 0 {
			rec.MarkPurchased(v.Category)
		}
	}
	rec.LastVisitTick = tick
	rec.LastLeaveReason = string(s.Reason)

	if rec.Level > oldLevel {
		return gained, &LevelUp{
			Customer: rec.ID,
			OldLevel: oldLevel,
			NewLevel: rec.Level,
			XPGained: gained,
			TotalXP:  rec.XP,
		}
	}
	return gained, nil
}

// LevelFor returns the highest index i such that xp >= thresholds[i], or 0
// when no threshold is met. Thresholds must be non-decreasing.
func LevelFor(thresholds []int, xp int) int {
	level := 0
	for i, th := range thresholds {
		if xp >= th {
			level = i
		}
	}
	return level
}
