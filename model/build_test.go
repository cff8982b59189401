package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deeplearning2012/syropod-highlevel-controller/params"
)

func threeJointLegConfig(id int, name string, yaw float64) params.LegConfig {
	return params.LegConfig{
		ID:        id,
		Name:      name,
		StanceYaw: yaw,
		DOF:       3,
		Joints: []params.JointConfig{
			{ID: name + "_coxa", ServoID: id*10 + 1, MinPosition: -90, MaxPosition: 90},
			{ID: name + "_femur", ServoID: id*10 + 2, MinPosition: -90, MaxPosition: 90},
			{ID: name + "_tibia", ServoID: id*10 + 3, MinPosition: -90, MaxPosition: 90},
		},
		Links: []params.LinkConfig{
			{ID: "coxa", Length: 40},
			{ID: "femur", Length: 100},
			{ID: "tibia", Length: 85},
		},
	}
}

func testParamSet(legs ...params.LegConfig) *params.ParameterSet {
	p := &params.ParameterSet{TimeDelta: 0.02, Legs: legs}
	p.BodyClearance.CurrentValue = 40
	p.LegSpanScale.CurrentValue = 1
	p.VirtualStiffness.CurrentValue = 5
	return p
}

func TestBuildPopulatesOneLegPerConfig(t *testing.T) {
	p := testParamSet(
		threeJointLegConfig(0, "FL", -60),
		threeJointLegConfig(1, "FR", 60),
	)

	m, err := Build(p)
	assert.NoError(t, err)
	assert.Equal(t, 2, m.NumLegs())
	assert.Equal(t, []int{0, 1}, m.LegIDs())

	fl := m.Leg(0)
	assert.Equal(t, "FL", fl.IDName)
	assert.Len(t, fl.Joints, 3)
	assert.Len(t, fl.Links, 3)
	assert.Equal(t, Walking, fl.State)
}

func TestBuildSeedsJointsAtPackedPosition(t *testing.T) {
	lc := threeJointLegConfig(0, "FL", 0)
	lc.Joints[0].PackedPosition = 45

	m, err := Build(testParamSet(lc))
	assert.NoError(t, err)

	joint := m.Leg(0).Joints[0]
	assert.Equal(t, 45.0, joint.CurrentPosition)
	assert.Equal(t, 45.0, joint.DesiredPosition)
}

func TestBuildRejectsMismatchedJointsAndLinks(t *testing.T) {
	lc := threeJointLegConfig(0, "FL", 0)
	lc.Links = lc.Links[:2]

	_, err := Build(testParamSet(lc))
	assert.Error(t, err)
}

func TestBuildRejectsLegWithNoJoints(t *testing.T) {
	lc := threeJointLegConfig(0, "FL", 0)
	lc.Joints = nil
	lc.Links = nil

	_, err := Build(testParamSet(lc))
	assert.Error(t, err)
}

func TestBuildDefaultTipPositionTracksBodyClearance(t *testing.T) {
	p := testParamSet(threeJointLegConfig(0, "FL", 0))
	p.BodyClearance.CurrentValue = 55

	m, err := Build(p)
	assert.NoError(t, err)

	fl := m.Leg(0)
	assert.InDelta(t, -55.0, fl.Stepper.DefaultTipPosition.Y, 1e-9)
	assert.InDelta(t, -55.0, fl.Poser.CurrentTipPosition.Y, 1e-9)
}
