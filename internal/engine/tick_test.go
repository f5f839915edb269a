package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepLayering(t *testing.T) {
	e := NewEngine()
	var ticks, hours, days int
	e.OnTick = func(uint64) { ticks++ }
	e.OnHour = func(uint64) { hours++ }
	e.OnDay = func(uint64) { days++ }

	for i := 0; i < TicksPerSimHour*2; i++ {
		e.Step()
	}
	assert.Equal(t, TicksPerSimHour*2, ticks)
	assert.Equal(t, 2, hours)
	assert.Equal(t, 0, days)
	assert.Equal(t, uint64(TicksPerSimHour*2), e.Tick)
}

func TestHourOfDay(t *testing.T) {
	assert.Equal(t, 0, HourOfDay(0))
	assert.Equal(t, 1, HourOfDay(TicksPerSimHour))
	assert.Equal(t, 23, HourOfDay(23*TicksPerSimHour+59))
	assert.Equal(t, 0, HourOfDay(TicksPerSimDay))
}

func TestSimTime(t *testing.T) {
	assert.Equal(t, "Day 1, 00:00", SimTime(0))
	assert.Equal(t, "Day 1, 10:30", SimTime(10*TicksPerSimHour+30*TicksPerSimMinute))
	assert.Equal(t, "Day 2, 00:01", SimTime(TicksPerSimDay+TicksPerSimMinute))
}

func TestFeedRingBuffer(t *testing.T) {
	f := NewFeed(3)
	for i := 0; i < 5; i++ {
		f.Emit(Event{Tick: uint64(i), Kind: EventSpawned})
	}
	assert.Equal(t, 3, f.Len())

	recent := f.Recent(2)
	assert.Len(t, recent, 2)
	assert.Equal(t, uint64(3), recent[0].Tick)
	assert.Equal(t, uint64(4), recent[1].Tick)

	all := f.Recent(0)
	assert.Len(t, all, 3)
	assert.Equal(t, uint64(2), all[0].Tick)
}
