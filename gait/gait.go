// Package gait describes the per-leg phase relationships that make up a
// walking gait. The teacher (components/legs/gait) precomputes a table of
// per-tick XZ/Y ratios for one fixed "creeping" gait; here the same bell
// curve and sine-ease profiles are kept but driven by a continuous phase in
// [0, period) rather than an absolute tick index, so the same Gait value
// works at any step_frequency and tick rate.
package gait

import (
	"fmt"
	"math"
)

// Type selects one of the supported named gaits.
type Type int

const (
	Tripod Type = iota
	Ripple
	Wave
	Amble
)

func (t Type) String() string {
	switch t {
	case Tripod:
		return "tripod_gait"
	case Ripple:
		return "ripple_gait"
	case Wave:
		return "wave_gait"
	case Amble:
		return "amble_gait"
	default:
		return fmt.Sprintf("gait(%d)", int(t))
	}
}

// ByName resolves a gait type from its on-wire/config name, e.g. "wave_gait".
func ByName(name string) (Type, error) {
	for _, t := range []Type{Tripod, Ripple, Wave, Amble} {
		if t.String() == name {
			return t, nil
		}
	}
	return Tripod, fmt.Errorf("unknown gait %q", name)
}

// Gait is the tuple (stance_phase, swing_phase, phase_offset,
// offset_multiplier[N]) that defines a walking pattern across N legs.
// StancePhase and SwingPhase are measured in the same arbitrary phase units;
// a leg's full step cycle is StancePhase+SwingPhase long.
type Gait struct {
	Type             Type
	StancePhase      float64
	SwingPhase       float64
	PhaseOffset      float64
	OffsetMultiplier []float64
}

// Period returns the length of one full step cycle, in phase units.
func (g Gait) Period() float64 {
	return g.StancePhase + g.SwingPhase
}

// LegPhaseOffset returns leg i's phase offset within the cycle: φᵢ =
// (phase_offset × offset_multiplier[i]) mod period.
func (g Gait) LegPhaseOffset(i int) float64 {
	return math.Mod(g.PhaseOffset*g.OffsetMultiplier[i], g.Period())
}

// NumLegs returns the number of legs this gait was built for.
func (g Gait) NumLegs() int {
	return len(g.OffsetMultiplier)
}

// Make builds the named gait's offset table for the given leg count. The
// grouping follows the teacher's curveCenters idiom (legs divided into
// evenly-spaced phase groups around the cycle) generalized from a fixed
// 6-leg assumption to an arbitrary leg count, and from absolute tick counts
// to a period of StancePhase+SwingPhase phase units.
func Make(t Type, numLegs int) Gait {
	switch t {
	case Tripod:
		// Two groups, half the cycle each: legs {0,2,4} and {1,3,5}
		// alternate in antiphase.
		return makeGrouped(t, numLegs, 2, 1, 1)
	case Wave:
		// Every leg has its own slot and swings alone, 1/N of the cycle
		// airborne: the slowest, most stable gait.
		return makeGrouped(t, numLegs, numLegs, 1, float64(numLegs-1))
	case Ripple:
		// Every leg has its own slot but swings overlap pairwise: two
		// consecutive slots are airborne at any moment.
		swing := 2.0
		if numLegs < 3 {
			swing = 1
		}
		return makeGrouped(t, numLegs, numLegs, swing, float64(numLegs)-swing)
	case Amble:
		// Opposite legs are paired into one slot and swing together, a
		// faster wave: one pair airborne at a time.
		groups := (numLegs + 1) / 2
		stance := float64(groups - 1)
		if stance < 1 {
			stance = 1
		}
		return makeGrouped(t, numLegs, groups, 1, stance)
	default:
		panic("gait: unknown type")
	}
}

// makeGrouped divides numLegs legs into groups ordered groups phase slots
// apart; legs in the same group swing together, and a swing longer than one
// slot (as in ripple) overlaps the next group's swing. swing and
// stance are given in the same arbitrary units used by StancePhase/SwingPhase;
// legs within a group share a phase offset, legs in different groups are
// spread evenly around the cycle.
func makeGrouped(t Type, numLegs, groups int, swing, stance float64) Gait {
	period := stance + swing
	mult := make([]float64, numLegs)
	for i := 0; i < numLegs; i++ {
		group := i % groups
		mult[i] = float64(group)
	}
	return Gait{
		Type:             t,
		StancePhase:      stance,
		SwingPhase:       swing,
		PhaseOffset:      period / float64(groups),
		OffsetMultiplier: mult,
	}
}
