// Customer spawning: picks archetypes by weighted spawn windows, creates
// persistent records for first-time visitors, and shapes arrival intensity
// with a smooth noise field over the sim clock.
package customer

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Spawner creates customers for the simulation.
type Spawner struct {
	rng     *rand.Rand
	nextID  ID
	traffic opensimplex.Noise

	archetypes []Archetype
	traits     []Trait
}

// NewSpawner creates a spawner with the given seed and authored content.
func NewSpawner(seed int64, archetypes []Archetype, traits []Trait) *Spawner {
	return &Spawner{
		rng:        rand.New(rand.NewSource(seed + 300)),
		nextID:     1,
		traffic:    opensimplex.NewNormalized(seed + 301),
		archetypes: archetypes,
		traits:     traits,
	}
}

// SetNextID sets the next customer ID to be issued (used when restoring
// records from the database).
func (s *Spawner) SetNextID(id ID) {
	s.nextID = id
}

// TrafficLevel returns a smooth multiplier in [0.5, 1.5] for the spawn rate
// at the given tick, so store traffic has daily texture instead of a flat
// Poisson stream.
func (s *Spawner) TrafficLevel(tick uint64) float64 {
	return 0.5 + s.traffic.Eval2(float64(tick)/600.0, 0)
}

// PickArchetype selects an archetype by spawn weight among those whose spawn
// window covers the given hour. Returns nil when no archetype may spawn now.
func (s *Spawner) PickArchetype(hour int) *Archetype {
	total := 0.0
	for i := range s.archetypes {
		a := &s.archetypes[i]
		if a.SpawnWindow.Contains(hour) && a.SpawnWeight > 0 {
			total += a.SpawnWeight
		}
	}
	if total <= 0 {
		return nil
	}
	r := s.rng.Float64() * total
	sum := 0.0
	for i := range s.archetypes {
		a := &s.archetypes[i]
		if !a.SpawnWindow.Contains(hour) || a.SpawnWeight <= 0 {
			continue
		}
		sum += a.SpawnWeight
		if sum >= r {
			return a
		}
	}
	return &s.archetypes[len(s.archetypes)-1]
}

// NewRecord creates a persistent record for a first-time customer spawning
// at the given hour. Traits are drawn with their preferred-hours weight.
func (s *Spawner) NewRecord(arch *Archetype, hour int, categoryCount int) *Record {
	id := s.nextID
	s.nextID++

	// A small signed personal delta so two customers of the same archetype
	// never shop identically.
	delta := make([]float64, categoryCount)
	for i := range delta {
		delta[i] = (s.rng.Float64() - 0.5) * 20
	}

	return &Record{
		ID:            id,
		Name:          s.generateName(),
		ArchetypeID:   arch.ID,
		TraitIDs:      s.pickTraits(hour),
		PersonalDelta: delta,
		Trust:         s.rng.Intn(10),
		WalletBase:    float64(s.rng.Intn(20)),
	}
}

// pickTraits draws 0–2 distinct traits, weighting traits whose preferred
// hours cover the spawn hour.
func (s *Spawner) pickTraits(hour int) []string {
	if len(s.traits) == 0 {
		return nil
	}
	count := s.rng.Intn(3)
	if count == 0 {
		return nil
	}

	weights := make([]float64, len(s.traits))
	for i, t := range s.traits {
		w := 1.0
		if t.PrefersHour(hour) && t.PreferredWeight > 0 {
			w *= t.PreferredWeight
		}
		weights[i] = w
	}

	picked := make([]string, 0, count)
	taken := make(map[int]bool, count)
	for len(picked) < count && len(taken) < len(s.traits) {
		total := 0.0
		for i, w := range weights {
			if !taken[i] {
				total += w
			}
		}
		r := s.rng.Float64() * total
		sum := 0.0
		for i, w := range weights {
			if taken[i] {
				continue
			}
			sum += w
			if sum >= r {
				taken[i] = true
				picked = append(picked, s.traits[i].ID)
				break
			}
		}
	}
	return picked
}

// ResolveTraits maps a record's trait ids to their definitions, skipping ids
// whose trait no longer exists in the authored content.
func (s *Spawner) ResolveTraits(rec *Record) []Trait {
	var out []Trait
	for _, id := range rec.TraitIDs {
		for _, t := range s.traits {
			if t.ID == id {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

var firstNames = []string{
	"Ada", "Bram", "Cora", "Dries", "Elif", "Femke", "Gus", "Hana",
	"Ingrid", "Jonas", "Kiara", "Lars", "Mina", "Noor", "Otto", "Pia",
	"Quinn", "Rosa", "Sven", "Tessa", "Umar", "Vera", "Wouter", "Yara",
}

var lastNames = []string{
	"Akkerman", "Bos", "Claes", "Dijkstra", "Evers", "Fischer", "Groot",
	"Hendriks", "Iversen", "Jansen", "Kuiper", "Lindqvist", "Meyer",
	"Novak", "Olsen", "Peters", "Ruiz", "Smit", "Tanaka", "Visser",
}

func (s *Spawner) generateName() string {
	return firstNames[s.rng.Intn(len(firstNames))] + " " + lastNames[s.rng.Intn(len(lastNames))]
}
