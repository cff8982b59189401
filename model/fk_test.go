package model

import (
	"testing"

	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/stretchr/testify/assert"
)

func straightLeg() *Leg {
	return &Leg{
		IDNumber: 0,
		IDName:   "FR",
		Origin:   math3d.Vector3{X: 10, Z: 20},
		Yaw:      0,
		Joints: []*Joint{
			{Name: "coxa", MinPosition: -180, MaxPosition: 180},
			{Name: "femur", MinPosition: -180, MaxPosition: 180},
			{Name: "tibia", MinPosition: -180, MaxPosition: 180},
		},
		Links: []*Link{
			{Name: "coxa", Length: 40},
			{Name: "femur", Length: 100},
			{Name: "tibia", Length: 85},
		},
	}
}

func TestTipPositionZeroAnglesExtendsStraightAlongZ(t *testing.T) {
	leg := straightLeg()

	tip := leg.TipPositionFor([]float64{0, 0, 0})
	assert.InDelta(t, 10, tip.X, 1e-9)
	assert.InDelta(t, 0, tip.Y, 1e-9)
	assert.InDelta(t, 20+40+100+85, tip.Z, 1e-9)
}

func TestTipPositionYawRotatesTowardX(t *testing.T) {
	leg := straightLeg()

	tip := leg.TipPositionFor([]float64{90, 0, 0})
	assert.InDelta(t, 10+225, tip.X, 1e-6)
	assert.InDelta(t, 0, tip.Y, 1e-6)
	assert.InDelta(t, 20, tip.Z, 1e-6)
}

func TestTipPositionPositivePitchLiftsTip(t *testing.T) {
	leg := straightLeg()

	// Bending the femur joint up 90° folds everything past the coxa
	// straight up.
	tip := leg.TipPositionFor([]float64{0, 90, 0})
	assert.InDelta(t, 10, tip.X, 1e-6)
	assert.InDelta(t, 100+85, tip.Y, 1e-6)
	assert.InDelta(t, 20+40, tip.Z, 1e-6)
}

func TestMeasuredAndAchievedTipUseRespectiveAngles(t *testing.T) {
	leg := straightLeg()
	leg.Joints[1].CurrentPosition = 90
	leg.Joints[1].DesiredPosition = 0

	measured := leg.MeasuredTipPosition()
	achieved := leg.AchievedTipPosition()
	assert.InDelta(t, 185, measured.Y, 1e-6)
	assert.InDelta(t, 0, achieved.Y, 1e-6)
}
