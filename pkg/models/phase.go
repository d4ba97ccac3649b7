// Package models contains shared data models used across the hypecycle codebase.
package models

// Phase is a position on the technology hype cycle.
type Phase string

const (
	PhaseInnovationTrigger Phase = "innovation_trigger"
	PhasePeak              Phase = "peak"
	PhaseTrough            Phase = "trough"
	PhaseSlope             Phase = "slope"
	PhasePlateau           Phase = "plateau"
)

// Phases lists every phase in curve order.
var Phases = []Phase{
	PhaseInnovationTrigger,
	PhasePeak,
	PhaseTrough,
	PhaseSlope,
	PhasePlateau,
}

// Valid reports whether p is one of the five canonical phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseInnovationTrigger, PhasePeak, PhaseTrough, PhaseSlope, PhasePlateau:
		return true
	}
	return false
}

func (p Phase) String() string { return string(p) }
