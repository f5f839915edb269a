// Package store provides the shared floor vocabulary: shelves, registers,
// grid cells, and the read-only snapshots handed to decision policies.
package store

import "math"

// ResourceID is a unique identifier for a service point (shelf or register).
type ResourceID uint64

// Kind distinguishes the two service point types.
type Kind uint8

const (
	KindShelf    Kind = 0
	KindRegister Kind = 1
)

// KindName returns a human-readable kind name for logs.
func KindName(k Kind) string {
	if k == KindRegister {
		return "register"
	}
	return "shelf"
}

// GridCell is a position on the store floor grid. The core never pathfinds;
// cells exist only to measure straight-line distance and to hand queue slot
// positions back to the movement collaborator.
type GridCell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// DistanceTo returns the euclidean distance between two cells.
func (g GridCell) DistanceTo(o GridCell) float64 {
	dx := float64(g.X - o.X)
	dy := float64(g.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns g offset by o scaled by n.
func (g GridCell) Add(o GridCell, n int) GridCell {
	return GridCell{X: g.X + o.X*n, Y: g.Y + o.Y*n}
}

// Resource is the runtime state of one service point. Stock and the sales
// counter are mutated only through the commerce ledger; everything else is
// authored content.
type Resource struct {
	ID             ResourceID `json:"id" yaml:"id"`
	Kind           Kind       `json:"kind" yaml:"kind"`
	Name           string     `json:"name" yaml:"name"`
	Category       int        `json:"category" yaml:"category"` // product category index; -1 for registers
	Attractiveness float64    `json:"attractiveness" yaml:"attractiveness"`
	Price          float64    `json:"price" yaml:"price"`
	Stock          int        `json:"stock" yaml:"stock"`
	MaxStock       int        `json:"max_stock" yaml:"max_stock"`
	Sold           int        `json:"sold" yaml:"-"`
	Operational    bool       `json:"operational" yaml:"-"`

	Cell     GridCell `json:"cell" yaml:"cell"`
	QueueDir GridCell `json:"queue_dir" yaml:"queue_dir"` // unit direction queue slots extend along
}

// Snapshot is the point-in-time, read-only view a policy decides from.
// It is rebuilt every decision cycle and never cached beyond one.
type Snapshot struct {
	ID             ResourceID `json:"id"`
	Kind           Kind       `json:"kind"`
	Category       int        `json:"category"`
	Attractiveness float64    `json:"attractiveness"`
	Price          float64    `json:"price"`
	Stock          int        `json:"stock"`
	QueueLen       int        `json:"queue_len"`
	Cell           GridCell   `json:"cell"`
}

// Snapshot captures the resource's current state plus the live queue length
// supplied by the queue service.
func (r *Resource) Snapshot(queueLen int) Snapshot {
	return Snapshot{
		ID:             r.ID,
		Kind:           r.Kind,
		Category:       r.Category,
		Attractiveness: r.Attractiveness,
		Price:          r.Price,
		Stock:          r.Stock,
		QueueLen:       queueLen,
		Cell:           r.Cell,
	}
}
