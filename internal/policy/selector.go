// Default target selector: weighted random over shelves that survive the
// hard filters, roulette-wheel over the scored remainder.
package policy

import (
	"shopfloor/internal/curve"
	"shopfloor/internal/store"
)

// SelectorConfig tunes the weighted-random shelf selector.
type SelectorConfig struct {
	MaxQueueLen int     `yaml:"max_queue_len"`
	MinInterest float64 `yaml:"min_interest"`

	InterestWeight       float64 `yaml:"interest_weight"`
	AttractivenessWeight float64 `yaml:"attractiveness_weight"`
	QueuePenaltyWeight   float64 `yaml:"queue_penalty_weight"`

	// QueuePenalty maps queue length to [0,1]; 1 means no penalty.
	QueuePenalty curve.Curve `yaml:"queue_penalty"`

	// SkipPurchasedCategory rejects shelves whose category was already
	// bought this visit.
	SkipPurchasedCategory bool `yaml:"skip_purchased_category"`
}

// WeightedSelector is the default target selector.
type WeightedSelector struct {
	Cfg SelectorConfig
}

// SelectTarget filters and scores the candidate shelves, then draws one by
// roulette wheel. Returns false when nothing survives filtering; the caller
// must branch on that, it is not an error.
func (w *WeightedSelector) SelectTarget(ctx *DecisionContext, shelves []store.Snapshot) (store.ResourceID, bool) {
	type scored struct {
		id    store.ResourceID
		score float64
	}

	candidates := make([]scored, 0, len(shelves))
	total := 0.0
	for _, s := range shelves {
		if s.Kind != store.KindShelf || s.Stock <= 0 {
			continue
		}
		if w.Cfg.MaxQueueLen > 0 && s.QueueLen > w.Cfg.MaxQueueLen {
			continue
		}
		interest := ctx.InterestIn(s.Category)
		if interest < w.Cfg.MinInterest {
			continue
		}
		if w.Cfg.SkipPurchasedCategory && ctx.PurchasedThisVisit[s.Category] {
			continue
		}

		score := w.Cfg.InterestWeight*interest +
			w.Cfg.AttractivenessWeight*s.Attractiveness -
			w.Cfg.QueuePenaltyWeight*(1-w.Cfg.QueuePenalty.Sample(float64(s.QueueLen)))
		if score < 0 {
			score = 0
		}
		candidates = append(candidates, scored{id: s.ID, score: score})
		total += score
	}

	if len(candidates) == 0 {
		return 0, false
	}

	// All-zero scores degenerate to a uniform pick.
	if total <= 0 {
		return candidates[ctx.Rand.Intn(len(candidates))].id, true
	}

	r := ctx.Rand.Float64() * total
	sum := 0.0
	for _, c := range candidates {
		sum += c.score
		if sum >= r {
			return c.id, true
		}
	}
	return candidates[len(candidates)-1].id, true
}
