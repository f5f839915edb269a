package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor/internal/store"
)

func TestShouldSwitchRequiresWaitAndAdvantage(t *testing.T) {
	sw := &ToleranceSwitcher{Cfg: QueueSwitchConfig{MinAdvantage: 2, MinPosition: 1}}
	ctx := testCtx(1) // queue tolerance 60s

	current := shelf(1, 0, 5, 6)
	alts := []store.Snapshot{shelf(2, 0, 5, 1)}

	// Front of the line never defects.
	_, ok := sw.ShouldSwitch(ctx, current, 0, 100, alts)
	assert.False(t, ok)

	// Not waited long enough yet.
	_, ok = sw.ShouldSwitch(ctx, current, 5, 10, alts)
	assert.False(t, ok)

	// Waited past half tolerance with a clearly shorter queue → switch.
	id, ok := sw.ShouldSwitch(ctx, current, 5, 40, alts)
	require.True(t, ok)
	assert.Equal(t, store.ResourceID(2), id)
}

func TestShouldSwitchFiltersAlternatives(t *testing.T) {
	sw := &ToleranceSwitcher{Cfg: QueueSwitchConfig{MinAdvantage: 1, MinPosition: 1}}
	ctx := testCtx(1)
	current := shelf(1, 0, 5, 6)

	// Wrong category, empty stock, and self are all ignored.
	alts := []store.Snapshot{
		shelf(1, 0, 5, 0),          // self
		shelf(2, 1, 5, 0),          // other category
		shelf(3, 0, 0, 0),          // sold out
		{ID: 4, Kind: store.KindRegister}, // wrong kind
	}
	_, ok := sw.ShouldSwitch(ctx, current, 5, 40, alts)
	assert.False(t, ok)
}

func TestShouldRepath(t *testing.T) {
	rp := &StalenessRepather{Cfg: RepathConfig{MaxQueueGrowth: 6}}
	ctx := testCtx(1)

	assert.True(t, rp.ShouldRepath(ctx, shelf(1, 0, 0, 0)), "sold out en route")
	assert.True(t, rp.ShouldRepath(ctx, shelf(1, 0, 5, 9)), "queue ballooned")
	assert.False(t, rp.ShouldRepath(ctx, shelf(1, 0, 5, 2)))
}

func TestEmbarrassmentDelta(t *testing.T) {
	e := &LinearEmbarrassment{Cfg: EmbarrassmentConfig{QueueRate: 2, PositionFactor: 0.5, DecayRate: 1}}
	ctx := testCtx(1)

	assert.Equal(t, -1.0, e.EmbarrassmentDelta(ctx, false, 0))
	assert.Equal(t, 2.0, e.EmbarrassmentDelta(ctx, true, 0))
	assert.Equal(t, 5.0, e.EmbarrassmentDelta(ctx, true, 3)) // 2 + 2*0.5*3
}
