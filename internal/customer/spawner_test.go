package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnContent() ([]Archetype, []Trait) {
	archetypes := []Archetype{
		{ID: "morning", SpawnWindow: HourRange{From: 6, Until: 12}, SpawnWeight: 3},
		{ID: "evening", SpawnWindow: HourRange{From: 17, Until: 23}, SpawnWeight: 1},
		{ID: "allday", SpawnWindow: HourRange{From: 0, Until: 24}, SpawnWeight: 1},
	}
	traits := []Trait{
		{ID: "rushed", PreferredHours: []HourRange{{From: 7, Until: 9}}, PreferredWeight: 4},
		{ID: "browser"},
	}
	return archetypes, traits
}

func TestPickArchetypeHonorsWindow(t *testing.T) {
	archetypes, traits := spawnContent()
	s := NewSpawner(1, archetypes, traits)

	for i := 0; i < 50; i++ {
		a := s.PickArchetype(8)
		require.NotNil(t, a)
		assert.Contains(t, []string{"morning", "allday"}, a.ID)
	}
	for i := 0; i < 50; i++ {
		a := s.PickArchetype(20)
		require.NotNil(t, a)
		assert.Contains(t, []string{"evening", "allday"}, a.ID)
	}
}

func TestPickArchetypeNoneEligible(t *testing.T) {
	s := NewSpawner(1, []Archetype{
		{ID: "night", SpawnWindow: HourRange{From: 22, Until: 4}, SpawnWeight: 1},
	}, nil)
	assert.Nil(t, s.PickArchetype(12))
	assert.NotNil(t, s.PickArchetype(23))
	assert.NotNil(t, s.PickArchetype(2)) // window wraps midnight
}

func TestNewRecordShape(t *testing.T) {
	archetypes, traits := spawnContent()
	s := NewSpawner(7, archetypes, traits)

	rec := s.NewRecord(&archetypes[0], 8, 4)
	require.NotNil(t, rec)
	assert.Equal(t, ID(1), rec.ID)
	assert.Equal(t, "morning", rec.ArchetypeID)
	assert.NotEmpty(t, rec.Name)
	assert.Len(t, rec.PersonalDelta, 4)
	assert.LessOrEqual(t, len(rec.TraitIDs), 2)

	rec2 := s.NewRecord(&archetypes[0], 8, 4)
	assert.Equal(t, ID(2), rec2.ID)
}

func TestSetNextID(t *testing.T) {
	archetypes, traits := spawnContent()
	s := NewSpawner(7, archetypes, traits)
	s.SetNextID(100)
	rec := s.NewRecord(&archetypes[0], 8, 2)
	assert.Equal(t, ID(100), rec.ID)
}

func TestResolveTraitsSkipsUnknown(t *testing.T) {
	archetypes, traits := spawnContent()
	s := NewSpawner(7, archetypes, traits)
	rec := &Record{TraitIDs: []string{"rushed", "deleted-trait", "browser"}}
	resolved := s.ResolveTraits(rec)
	require.Len(t, resolved, 2)
	assert.Equal(t, "rushed", resolved[0].ID)
	assert.Equal(t, "browser", resolved[1].ID)
}

func TestTrafficLevelBounds(t *testing.T) {
	archetypes, traits := spawnContent()
	s := NewSpawner(7, archetypes, traits)
	for tick := uint64(0); tick < 5000; tick += 97 {
		v := s.TrafficLevel(tick)
		assert.GreaterOrEqual(t, v, 0.5)
		assert.LessOrEqual(t, v, 1.5)
	}
}
