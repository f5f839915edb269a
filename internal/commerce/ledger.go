// Package commerce provides the reservation and settlement ledger: optimistic
// stock holds, physical pickup, pending-payment balances, and register
// settlement into store revenue.
package commerce

import (
	"errors"
	"fmt"
	"sync"

	"shopfloor/internal/customer"
	"shopfloor/internal/store"
)

var (
	// ErrResourceNotFound means the referenced shelf or register no longer
	// exists. Callers abort the current decision step and fall back.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrOutOfStock means pickup was refused because the shelf is empty or
	// not operational.
	ErrOutOfStock = errors.New("out of stock")
	// ErrInsufficientFunds means the customer cannot pay for one unit.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Ticket is a short-lived soft reservation: an intent to buy up to Qty units.
// It carries no hold on the stock itself.
type Ticket struct {
	Resource store.ResourceID
	Qty      int
}

// Ledger owns all monetary and stock mutation for the store. The simulation
// tick is the single logical writer, but every stock mutation additionally
// runs under a per-resource mutex so concurrent reservations can never
// double-sell at pickup time.
type Ledger struct {
	resources map[store.ResourceID]*store.Resource
	locks     map[store.ResourceID]*sync.Mutex

	mu      sync.Mutex
	pending map[customer.ID]float64
	revenue float64
}

// NewLedger creates a ledger over the given service points.
func NewLedger(resources []*store.Resource) *Ledger {
	l := &Ledger{
		resources: make(map[store.ResourceID]*store.Resource, len(resources)),
		locks:     make(map[store.ResourceID]*sync.Mutex, len(resources)),
		pending:   make(map[customer.ID]float64),
	}
	for _, r := range resources {
		l.resources[r.ID] = r
		l.locks[r.ID] = &sync.Mutex{}
	}
	return l
}

// Resource looks up a service point by id.
func (l *Ledger) Resource(id store.ResourceID) (*store.Resource, error) {
	r, ok := l.resources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrResourceNotFound, id)
	}
	return r, nil
}

// SoftReserve issues an optimistic ticket for up to requestedQty units,
// clamped to the stock observed right now. Stock is not decremented; two
// tickets against the same shelf may jointly exceed it and the conflict is
// resolved at TakeOne time.
func (l *Ledger) SoftReserve(id store.ResourceID, requestedQty int) (Ticket, error) {
	r, err := l.Resource(id)
	if err != nil {
		return Ticket{}, err
	}
	qty := requestedQty
	if qty < 0 {
		qty = 0
	}
	if qty > r.Stock {
		qty = r.Stock
	}
	return Ticket{Resource: id, Qty: qty}, nil
}

// TakeOne performs the physical pickup of a single unit: stock is
// re-validated and decremented under the resource lock, the sales counter
// advances, and the unit's current price moves from the customer's wallet
// into their pending-payment balance. Returns the price charged.
func (l *Ledger) TakeOne(id store.ResourceID, cust customer.ID, wallet float64) (float64, error) {
	r, err := l.Resource(id)
	if err != nil {
		return 0, err
	}

	lock := l.locks[id]
	lock.Lock()
	defer lock.Unlock()

	if r.Stock <= 0 || !r.Operational {
		return 0, fmt.Errorf("%w: %s %d", ErrOutOfStock, store.KindName(r.Kind), id)
	}
	if wallet < r.Price {
		return 0, fmt.Errorf("%w: wallet %.2f, price %.2f", ErrInsufficientFunds, wallet, r.Price)
	}

	r.Stock--
	r.Sold++

	l.mu.Lock()
	l.pending[cust] += r.Price
	l.mu.Unlock()

	return r.Price, nil
}

// Settle converts the customer's pending balance into store revenue at a
// register. Returns the amount settled and false when nothing was pending;
// a valid state, not a failure.
func (l *Ledger) Settle(cust customer.ID) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount := l.pending[cust]
	if amount <= 0 {
		return 0, false
	}
	l.revenue += amount
	delete(l.pending, cust)
	return amount, true
}

// Forfeit zeroes the customer's pending balance without crediting revenue.
// Used when a customer is forcibly removed from the simulation.
func (l *Ledger) Forfeit(cust customer.ID) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount := l.pending[cust]
	delete(l.pending, cust)
	return amount
}

// Pending returns the customer's unsettled balance.
func (l *Ledger) Pending(cust customer.ID) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending[cust]
}

// Revenue returns total settled store revenue.
func (l *Ledger) Revenue() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.revenue
}

// SetRevenue restores revenue from persistence.
func (l *Ledger) SetRevenue(v float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revenue = v
}

// Restock raises a shelf's stock by qty, capped at MaxStock when set.
func (l *Ledger) Restock(id store.ResourceID, qty int) error {
	r, err := l.Resource(id)
	if err != nil {
		return err
	}
	lock := l.locks[id]
	lock.Lock()
	defer lock.Unlock()

	r.Stock += qty
	if r.MaxStock > 0 && r.Stock > r.MaxStock {
		r.Stock = r.MaxStock
	}
	return nil
}
