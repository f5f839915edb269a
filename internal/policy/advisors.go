// Queue-switch, repath, and embarrassment advisors, the small policies that
// keep a customer's plan honest against live floor state.
package policy

import "shopfloor/internal/store"

// QueueSwitchConfig tunes queue defection.
type QueueSwitchConfig struct {
	// MinAdvantage is how many positions shorter an alternative queue must
	// be before switching is worth the walk.
	MinAdvantage int `yaml:"min_advantage"`
	// MinPosition guards the front of the line: customers about to be
	// served never defect.
	MinPosition int `yaml:"min_position"`
}

// ToleranceSwitcher defects to a clearly shorter same-category queue once
// the customer has waited past their tolerance.
type ToleranceSwitcher struct {
	Cfg QueueSwitchConfig
}

func (t *ToleranceSwitcher) ShouldSwitch(ctx *DecisionContext, current store.Snapshot, position int, waitedSec float64, alternatives []store.Snapshot) (store.ResourceID, bool) {
	if position < t.Cfg.MinPosition {
		return 0, false
	}
	if waitedSec < ctx.QueueTolerance/2 {
		return 0, false
	}

	best := store.ResourceID(0)
	bestLen := position - t.Cfg.MinAdvantage
	for _, alt := range alternatives {
		if alt.ID == current.ID || alt.Kind != current.Kind {
			continue
		}
		if current.Kind == store.KindShelf && alt.Category != current.Category {
			continue
		}
		if alt.Stock <= 0 && alt.Kind == store.KindShelf {
			continue
		}
		if alt.QueueLen < bestLen {
			best = alt.ID
			bestLen = alt.QueueLen
		}
	}
	return best, best != 0
}

// RepathConfig tunes en-route target rechecks.
type RepathConfig struct {
	// MaxQueueGrowth abandons the walk when the target queue has grown past
	// this length since selection.
	MaxQueueGrowth int `yaml:"max_queue_growth"`
}

// StalenessRepather abandons a target whose snapshot went stale while the
// customer was walking: stock sold out or the queue ballooned.
type StalenessRepather struct {
	Cfg RepathConfig
}

func (s *StalenessRepather) ShouldRepath(ctx *DecisionContext, target store.Snapshot) bool {
	if target.Kind == store.KindShelf && target.Stock <= 0 {
		return true
	}
	if s.Cfg.MaxQueueGrowth > 0 && target.QueueLen > s.Cfg.MaxQueueGrowth {
		return true
	}
	return false
}

// EmbarrassmentConfig tunes the per-tick embarrassment ramp.
type EmbarrassmentConfig struct {
	// QueueRate accrues per tick while standing in line, amplified the
	// deeper the customer stands.
	QueueRate float64 `yaml:"queue_rate"`
	// PositionFactor adds QueueRate*PositionFactor per position behind the
	// interaction point.
	PositionFactor float64 `yaml:"position_factor"`
	// DecayRate recovers per tick while not queueing.
	DecayRate float64 `yaml:"decay_rate"`
}

// LinearEmbarrassment is the default embarrassment ticker.
type LinearEmbarrassment struct {
	Cfg EmbarrassmentConfig
}

func (l *LinearEmbarrassment) EmbarrassmentDelta(ctx *DecisionContext, queueing bool, queuePosition int) float64 {
	if !queueing {
		return -l.Cfg.DecayRate
	}
	delta := l.Cfg.QueueRate
	if queuePosition > 0 {
		delta += l.Cfg.QueueRate * l.Cfg.PositionFactor * float64(queuePosition)
	}
	return delta
}
