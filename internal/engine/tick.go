// Package engine provides the tick-based simulation loop and the store
// floor state it drives.
package engine

import (
	"fmt"
	"log/slog"
	"time"
)

// TickSchedule defines when each layer runs relative to the tick counter.
// One tick is one sim-second.
const (
	TicksPerSimMinute = 60
	TicksPerSimHour   = 3600
	TicksPerSimDay    = 86400
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval
	Running  bool

	// Callbacks for each tick layer, populated during setup.
	OnTick func(tick uint64) // Every tick (sim-second)
	OnHour func(tick uint64) // Every sim-hour
	OnDay  func(tick uint64) // Every sim-day
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: 50 * time.Millisecond,
	}
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.Running = false
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.Tick%TicksPerSimHour == 0 && e.OnHour != nil {
		e.OnHour(e.Tick)
	}
	if e.Tick%TicksPerSimDay == 0 && e.OnDay != nil {
		e.OnDay(e.Tick)
	}
}

// HourOfDay returns the sim-clock hour (0–23) for a tick.
func HourOfDay(tick uint64) int {
	return int(tick % TicksPerSimDay / TicksPerSimHour)
}

// SimTime returns a human-readable simulation time string for a tick.
func SimTime(tick uint64) string {
	days := tick / TicksPerSimDay
	hours := tick % TicksPerSimDay / TicksPerSimHour
	minutes := tick % TicksPerSimHour / TicksPerSimMinute
	return fmt.Sprintf("Day %d, %02d:%02d", days+1, hours, minutes)
}
