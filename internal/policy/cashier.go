// Default cashier chooser: random among non-full registers, nearest-first
// once the store is closing.
package policy

import "shopfloor/internal/store"

// CashierConfig tunes register choice.
type CashierConfig struct {
	// MaxQueueLen marks a register queue as full.
	MaxQueueLen int `yaml:"max_queue_len"`
}

// RegisterChooser is the default cashier chooser.
type RegisterChooser struct {
	Cfg CashierConfig
}

// ChooseCashier picks uniformly among registers whose queue is not full,
// falling back to the shortest queue when every register is saturated. When
// the store is closing it instead returns the geometrically nearest register
// regardless of queue length, so customers exit promptly.
func (r *RegisterChooser) ChooseCashier(ctx *DecisionContext, registers []store.Snapshot, from store.GridCell) (store.ResourceID, bool) {
	candidates := make([]store.Snapshot, 0, len(registers))
	for _, reg := range registers {
		if reg.Kind == store.KindRegister {
			candidates = append(candidates, reg)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}

	if ctx.Closing {
		return nearest(candidates, from), true
	}

	open := make([]store.Snapshot, 0, len(candidates))
	for _, reg := range candidates {
		if r.Cfg.MaxQueueLen <= 0 || reg.QueueLen < r.Cfg.MaxQueueLen {
			open = append(open, reg)
		}
	}
	if len(open) == 0 {
		return shortest(candidates), true
	}
	return open[ctx.Rand.Intn(len(open))].ID, true
}

func nearest(registers []store.Snapshot, from store.GridCell) store.ResourceID {
	best := registers[0]
	bestDist := from.DistanceTo(best.Cell)
	for _, reg := range registers[1:] {
		if d := from.DistanceTo(reg.Cell); d < bestDist {
			best, bestDist = reg, d
		}
	}
	return best.ID
}

func shortest(registers []store.Snapshot) store.ResourceID {
	best := registers[0]
	for _, reg := range registers[1:] {
		if reg.QueueLen < best.QueueLen {
			best = reg
		}
	}
	return best.ID
}
