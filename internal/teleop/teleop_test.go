package teleop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatchFiresOnlyOnRisingEdge(t *testing.T) {
	var l latch

	assert.True(t, l.Run(true), "first press fires")
	assert.False(t, l.Run(true), "held press does not re-fire")
	assert.False(t, l.Run(false))
	assert.True(t, l.Run(true), "press after release fires again")
}

func TestAxisScalesFullDeflectionToUnit(t *testing.T) {
	assert.InDelta(t, 1.0, axis(127), 1e-9)
	assert.InDelta(t, -1.0, axis(-127), 1e-9)
	assert.InDelta(t, 0.0, axis(0), 1e-9)
}
