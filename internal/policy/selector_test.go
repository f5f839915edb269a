package policy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor/internal/curve"
	"shopfloor/internal/store"
)

func testCtx(seed int64) *DecisionContext {
	return &DecisionContext{
		Customer:           1,
		Interest:           []float64{80, 40, 5},
		Wallet:             100,
		QueueTolerance:     60,
		EmbarrassmentCap:   100,
		PurchasedThisVisit: map[int]bool{},
		EverPurchased:      map[int]bool{},
		Rand:               rand.New(rand.NewSource(seed)),
	}
}

func defaultSelector() *WeightedSelector {
	return &WeightedSelector{Cfg: SelectorConfig{
		MaxQueueLen:           4,
		MinInterest:           10,
		InterestWeight:        1,
		AttractivenessWeight:  0.5,
		QueuePenaltyWeight:    20,
		QueuePenalty:          curve.Curve{{X: 0, Y: 1}, {X: 5, Y: 0}},
		SkipPurchasedCategory: true,
	}}
}

func shelf(id store.ResourceID, cat, stock, queueLen int) store.Snapshot {
	return store.Snapshot{ID: id, Kind: store.KindShelf, Category: cat, Stock: stock, QueueLen: queueLen, Attractiveness: 10}
}

func TestSelectTargetHardFilters(t *testing.T) {
	sel := defaultSelector()
	ctx := testCtx(1)
	ctx.PurchasedThisVisit[1] = true

	shelves := []store.Snapshot{
		shelf(1, 0, 0, 0),  // no stock
		shelf(2, 0, 5, 9),  // queue too long
		shelf(3, 2, 5, 0),  // interest below minimum
		shelf(4, 1, 5, 0),  // category already bought this visit
		shelf(5, 0, 5, 1),  // survives
	}
	for i := 0; i < 20; i++ {
		id, ok := sel.SelectTarget(ctx, shelves)
		require.True(t, ok)
		assert.Equal(t, store.ResourceID(5), id)
	}
}

func TestSelectTargetNoViableCandidate(t *testing.T) {
	sel := defaultSelector()
	ctx := testCtx(1)
	_, ok := sel.SelectTarget(ctx, []store.Snapshot{shelf(1, 0, 0, 0)})
	assert.False(t, ok)

	_, ok = sel.SelectTarget(ctx, nil)
	assert.False(t, ok)
}

func TestSelectTargetIgnoresRegisters(t *testing.T) {
	sel := defaultSelector()
	ctx := testCtx(1)
	reg := store.Snapshot{ID: 9, Kind: store.KindRegister, Stock: 1}
	_, ok := sel.SelectTarget(ctx, []store.Snapshot{reg})
	assert.False(t, ok)
}

func TestSelectTargetUniformWhenAllScoresZero(t *testing.T) {
	sel := &WeightedSelector{Cfg: SelectorConfig{
		MinInterest:        0,
		QueuePenaltyWeight: 1000,
		QueuePenalty:       curve.Curve{{X: 0, Y: 0}}, // full penalty everywhere
	}}
	ctx := testCtx(3)

	seen := map[store.ResourceID]int{}
	shelves := []store.Snapshot{shelf(1, 0, 5, 0), shelf(2, 1, 5, 0)}
	for i := 0; i < 200; i++ {
		id, ok := sel.SelectTarget(ctx, shelves)
		require.True(t, ok)
		seen[id]++
	}
	assert.Greater(t, seen[1], 0)
	assert.Greater(t, seen[2], 0)
}

func TestSelectTargetPrefersHigherScores(t *testing.T) {
	sel := defaultSelector()
	ctx := testCtx(5)

	// Category 0 interest 80 vs category 1 interest 40; same everything else.
	shelves := []store.Snapshot{shelf(1, 0, 5, 0), shelf(2, 1, 5, 0)}
	seen := map[store.ResourceID]int{}
	for i := 0; i < 1000; i++ {
		id, ok := sel.SelectTarget(ctx, shelves)
		require.True(t, ok)
		seen[id]++
	}
	assert.Greater(t, seen[1], seen[2])
}
