package model

import (
	"testing"

	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/stretchr/testify/assert"
)

func fourJointLeg() *Leg {
	return &Leg{
		IDNumber:  0,
		IDName:    "FL",
		Origin:    math3d.Vector3{X: -61.167, Y: 24, Z: 98},
		Yaw:       -120,
		TimeDelta: 0.02,
		Joints: []*Joint{
			{Name: "coxa", MinPosition: -90, MaxPosition: 90},
			{Name: "femur", MinPosition: -90, MaxPosition: 90},
			{Name: "tibia", MinPosition: -180, MaxPosition: 180},
			{Name: "tarsus", MinPosition: -180, MaxPosition: 180},
		},
		Links: []*Link{
			{Name: "root", Offset: math3d.Vector3{Y: -12, Z: 39}},
			{Name: "femur", Length: 100},
			{Name: "tibia", Length: 85},
			{Name: "tarsus", Length: 80.5},
		},
	}
}

func TestApplyIKFourJointLegSolvesWithinLimits(t *testing.T) {
	leg := fourJointLeg()
	leg.DesiredTipPosition = math3d.Vector3{X: -155, Y: -40, Z: 140}

	_, err := leg.ApplyIK(false, false)
	assert.NoError(t, err)

	for _, j := range leg.Joints {
		assert.False(t, isNaN(j.DesiredPosition), "%s desired position is NaN", j.Name)
		assert.GreaterOrEqual(t, j.DesiredPosition, j.MinPosition, "%s below min", j.Name)
		assert.LessOrEqual(t, j.DesiredPosition, j.MaxPosition, "%s above max", j.Name)
	}
}

func TestApplyIKUnreachableTargetErrors(t *testing.T) {
	leg := fourJointLeg()
	leg.DesiredTipPosition = math3d.Vector3{X: 10000, Y: 0, Z: 10000}

	_, err := leg.ApplyIK(false, false)
	assert.Error(t, err)
}

func TestApplyIKConstrainClampsToLimits(t *testing.T) {
	leg := fourJointLeg()
	leg.Joints[1].MinPosition = -5
	leg.Joints[1].MaxPosition = 5
	leg.DesiredTipPosition = math3d.Vector3{X: -155, Y: -40, Z: 140}

	_, err := leg.ApplyIK(true, false)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, leg.Joints[1].DesiredPosition, leg.Joints[1].MinPosition)
	assert.LessOrEqual(t, leg.Joints[1].DesiredPosition, leg.Joints[1].MaxPosition)
}

func TestSolveCCDReachesTargetForFiveLinkChain(t *testing.T) {
	lengths := []float64{40, 40, 40, 40, 40}
	angles, err := solveCCD(lengths, 150, -30)
	assert.NoError(t, err)
	assert.Len(t, angles, 5)
}

func isNaN(f float64) bool {
	return f != f
}
