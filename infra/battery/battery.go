// Package battery provides energy.Source implementations: a fixed-level
// source for bench setups and a simulated battery with harvest and drain
// rates for integration testing without hardware.
package battery

import (
	"sync"
	"time"

	"github.com/kilianp07/powertask/core/energy"
)

// Static is an energy source with a fixed, settable level. The default of
// 30000 J mirrors the bench battery used before a real gauge is wired in.
type Static struct {
	mu    sync.Mutex
	level energy.Joules
}

// NewStatic creates a Static source at the given level.
func NewStatic(level energy.Joules) *Static {
	return &Static{level: level}
}

// CurrentEnergy returns the configured level.
func (s *Static) CurrentEnergy() energy.Joules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// SetLevel changes the reported level; used by tests and bench tooling.
func (s *Static) SetLevel(level energy.Joules) {
	s.mu.Lock()
	s.level = level
	s.mu.Unlock()
}

// Simulated models a battery charged by an energy harvester (solar panel)
// and drained by a constant platform load. Levels clamp at zero and at
// capacity.
type Simulated struct {
	mu       sync.Mutex
	capacity energy.Joules
	level    energy.Joules
	harvestW float64 // joules per second in
	loadW    float64 // joules per second out
	last     time.Time
	now      func() time.Time
}

// NewSimulated creates a simulated battery starting at the given level.
func NewSimulated(capacity, level energy.Joules, harvestW, loadW float64) *Simulated {
	if level > capacity {
		level = capacity
	}
	return &Simulated{
		capacity: capacity,
		level:    level,
		harvestW: harvestW,
		loadW:    loadW,
		now:      time.Now,
	}
}

// CurrentEnergy advances the simulation to now and returns the level.
func (b *Simulated) CurrentEnergy() energy.Joules {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.level
}

// Drain removes energy immediately, e.g. to model a task's consumption.
func (b *Simulated) Drain(amount energy.Joules) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	b.level -= amount
	if b.level < 0 {
		b.level = 0
	}
}

// advance applies harvest and load since the previous observation.
// Callers hold the mutex.
func (b *Simulated) advance() {
	now := b.now()
	if !b.last.IsZero() {
		dt := now.Sub(b.last).Seconds()
		b.level += energy.Joules(dt * (b.harvestW - b.loadW))
		if b.level > b.capacity {
			b.level = b.capacity
		}
		if b.level < 0 {
			b.level = 0
		}
	}
	b.last = now
}
