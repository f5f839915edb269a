package commerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor/internal/store"
)

func testLedger() *Ledger {
	return NewLedger([]*store.Resource{
		{ID: 1, Kind: store.KindShelf, Category: 0, Price: 30, Stock: 4, MaxStock: 10, Operational: true},
		{ID: 2, Kind: store.KindShelf, Category: 1, Price: 5, Stock: 0, Operational: true},
		{ID: 3, Kind: store.KindRegister, Category: -1, Operational: true},
	})
}

func TestSoftReserveClampsToStock(t *testing.T) {
	l := testLedger()

	// Requested 10 against stock 4 → ticket qty 4.
	ticket, err := l.SoftReserve(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, ticket.Qty)

	ticket, err = l.SoftReserve(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, ticket.Qty)

	ticket, err = l.SoftReserve(1, -3)
	require.NoError(t, err)
	assert.Equal(t, 0, ticket.Qty)

	ticket, err = l.SoftReserve(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, ticket.Qty)
}

func TestSoftReserveDoesNotMutateStock(t *testing.T) {
	l := testLedger()
	_, err := l.SoftReserve(1, 4)
	require.NoError(t, err)
	r, err := l.Resource(1)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Stock)
}

func TestSoftReserveUnknownResource(t *testing.T) {
	l := testLedger()
	_, err := l.SoftReserve(99, 1)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestTakeOneMovesMoneyToPending(t *testing.T) {
	l := testLedger()

	price, err := l.TakeOne(1, 42, 100)
	require.NoError(t, err)
	assert.Equal(t, 30.0, price)

	r, _ := l.Resource(1)
	assert.Equal(t, 3, r.Stock)
	assert.Equal(t, 1, r.Sold)
	assert.Equal(t, 30.0, l.Pending(42))
	assert.Equal(t, 0.0, l.Revenue()) // not yet recognized as revenue
}

func TestTakeOneRefusals(t *testing.T) {
	l := testLedger()

	_, err := l.TakeOne(2, 42, 100)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = l.TakeOne(1, 42, 10)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = l.TakeOne(99, 42, 100)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	// Non-operational shelves refuse pickup even with stock.
	r, _ := l.Resource(1)
	r.Operational = false
	_, err = l.TakeOne(1, 42, 100)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestTakeOneNeverOversells(t *testing.T) {
	l := testLedger()

	// Two over-committed soft reservations resolve at pickup time.
	t1, _ := l.SoftReserve(1, 4)
	t2, _ := l.SoftReserve(1, 4)
	assert.Equal(t, 4, t1.Qty)
	assert.Equal(t, 4, t2.Qty)

	taken := 0
	for i := 0; i < t1.Qty+t2.Qty; i++ {
		if _, err := l.TakeOne(1, 42, 1000); err == nil {
			taken++
		}
	}
	assert.Equal(t, 4, taken)
	r, _ := l.Resource(1)
	assert.Equal(t, 0, r.Stock)
}

func TestSettle(t *testing.T) {
	l := testLedger()
	_, err := l.TakeOne(1, 42, 100)
	require.NoError(t, err)
	_, err = l.TakeOne(1, 42, 70)
	require.NoError(t, err)

	amount, ok := l.Settle(42)
	require.True(t, ok)
	assert.Equal(t, 60.0, amount)
	assert.Equal(t, 60.0, l.Revenue())
	assert.Equal(t, 0.0, l.Pending(42))

	// Settling with nothing pending is a valid no-op, not an error.
	amount, ok = l.Settle(42)
	assert.False(t, ok)
	assert.Equal(t, 0.0, amount)
	assert.Equal(t, 60.0, l.Revenue())
}

func TestForfeitDropsPendingWithoutRevenue(t *testing.T) {
	l := testLedger()
	_, err := l.TakeOne(1, 42, 100)
	require.NoError(t, err)

	amount := l.Forfeit(42)
	assert.Equal(t, 30.0, amount)
	assert.Equal(t, 0.0, l.Pending(42))
	assert.Equal(t, 0.0, l.Revenue())
}

func TestRestockCapsAtMaxStock(t *testing.T) {
	l := testLedger()
	require.NoError(t, l.Restock(1, 100))
	r, _ := l.Resource(1)
	assert.Equal(t, 10, r.Stock)

	assert.ErrorIs(t, l.Restock(99, 1), ErrResourceNotFound)
}
