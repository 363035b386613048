// Package energy defines the read-only battery interface consumed by the
// scheduler's admission check. Energy accounting lives entirely in the
// implementation; the scheduler never debits the source.
package energy

// Joules is an amount of battery energy.
type Joules float64

// Source reports the energy currently available to the scheduler.
type Source interface {
	CurrentEnergy() Joules
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() Joules

func (f SourceFunc) CurrentEnergy() Joules { return f() }
