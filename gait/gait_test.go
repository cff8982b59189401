package gait

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripodIsTwoGroupsOfThree(t *testing.T) {
	g := Make(Tripod, 6)

	assert.Equal(t, float64(1), g.StancePhase)
	assert.Equal(t, float64(1), g.SwingPhase)

	// Legs 0,2,4 share a phase; legs 1,3,5 share the opposite phase.
	for _, i := range []int{0, 2, 4} {
		assert.InDelta(t, g.LegPhaseOffset(0), g.LegPhaseOffset(i), 1e-9, "leg %d", i)
	}
	for _, i := range []int{1, 3, 5} {
		assert.InDelta(t, g.LegPhaseOffset(1), g.LegPhaseOffset(i), 1e-9, "leg %d", i)
	}
	assert.NotEqual(t, g.LegPhaseOffset(0), g.LegPhaseOffset(1))
}

func TestWaveOnlyOneLegSwingsAtATime(t *testing.T) {
	g := Make(Wave, 6)

	// Wave spends 5/6 of the cycle in stance and 1/6 in swing, so at most one
	// leg's offset falls inside any other leg's swing window.
	assert.InDelta(t, 5, g.StancePhase, 1e-9)
	assert.InDelta(t, 1, g.SwingPhase, 1e-9)

	offsets := make(map[float64]bool)
	for i := 0; i < g.NumLegs(); i++ {
		offsets[g.LegPhaseOffset(i)] = true
	}
	assert.Len(t, offsets, 6, "wave gait should phase-stagger every leg distinctly")
}

func TestRippleOverlapsSwingsPairwise(t *testing.T) {
	g := Make(Ripple, 6)

	assert.InDelta(t, 4, g.StancePhase, 1e-9)
	assert.InDelta(t, 2, g.SwingPhase, 1e-9)

	offsets := make(map[float64]bool)
	for i := 0; i < g.NumLegs(); i++ {
		offsets[g.LegPhaseOffset(i)] = true
	}
	assert.Len(t, offsets, 6, "ripple staggers every leg, swings overlap via the 2-unit swing window")
}

func TestAmblePairsOppositeLegs(t *testing.T) {
	g := Make(Amble, 6)

	assert.InDelta(t, g.LegPhaseOffset(0), g.LegPhaseOffset(3), 1e-9)
	assert.InDelta(t, g.LegPhaseOffset(1), g.LegPhaseOffset(4), 1e-9)
	assert.InDelta(t, g.LegPhaseOffset(2), g.LegPhaseOffset(5), 1e-9)
	assert.NotEqual(t, g.LegPhaseOffset(0), g.LegPhaseOffset(1))
}

func TestSwingHeightPeaksAtMidpoint(t *testing.T) {
	duration := 1.0
	mid := SwingHeightRatio(duration/2, duration)
	start := SwingHeightRatio(0, duration)
	end := SwingHeightRatio(duration, duration)

	assert.InDelta(t, 1.0, mid, 1e-9)
	assert.True(t, mid > start)
	assert.True(t, mid > end)
}

func TestSwingProgressMonotonic(t *testing.T) {
	duration := 2.0
	prev := -1.0
	for _, phase := range []float64{0, 0.25, 0.5, 1.0, 1.5, 2.0} {
		r := SwingProgressRatio(phase, duration)
		assert.True(t, r >= prev, "progress should not decrease")
		prev = r
	}
	assert.InDelta(t, 0.0, SwingProgressRatio(0, duration), 1e-9)
	assert.InDelta(t, 1.0, SwingProgressRatio(duration, duration), 1e-9)
}

func TestStanceProgressIsLinear(t *testing.T) {
	assert.InDelta(t, 0.5, StanceProgressRatio(1, 2), 1e-9)
	assert.InDelta(t, 0.0, StanceProgressRatio(-1, 2), 1e-9)
	assert.InDelta(t, 1.0, StanceProgressRatio(3, 2), 1e-9)
}

func TestByNameRoundTrips(t *testing.T) {
	for _, want := range []Type{Tripod, Ripple, Wave, Amble} {
		got, err := ByName(want.String())
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ByName("not_a_gait")
	assert.Error(t, err)
}
