package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridCellDistance(t *testing.T) {
	assert.Equal(t, 0.0, GridCell{3, 4}.DistanceTo(GridCell{3, 4}))
	assert.Equal(t, 5.0, GridCell{0, 0}.DistanceTo(GridCell{3, 4}))
	assert.Equal(t, 5.0, GridCell{3, 4}.DistanceTo(GridCell{0, 0}))
}

func TestGridCellAdd(t *testing.T) {
	base := GridCell{X: 10, Y: 5}
	dir := GridCell{X: 0, Y: 1}

	assert.Equal(t, GridCell{10, 5}, base.Add(dir, 0))
	assert.Equal(t, GridCell{10, 8}, base.Add(dir, 3))
	assert.Equal(t, GridCell{7, 5}, base.Add(GridCell{-1, 0}, 3))
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "shelf", KindName(KindShelf))
	assert.Equal(t, "register", KindName(KindRegister))
}

func TestSnapshotCopiesState(t *testing.T) {
	r := &Resource{
		ID: 7, Kind: KindShelf, Category: 2,
		Attractiveness: 1.4, Price: 3.25, Stock: 12,
		Cell: GridCell{X: 4, Y: 9},
	}

	snap := r.Snapshot(3)
	assert.Equal(t, ResourceID(7), snap.ID)
	assert.Equal(t, 3, snap.QueueLen)
	assert.Equal(t, 12, snap.Stock)

	// A snapshot is a value copy; mutating the resource afterwards must
	// not be visible through it.
	r.Stock = 0
	assert.Equal(t, 12, snap.Stock)
}
