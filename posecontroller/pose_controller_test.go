package posecontroller

import (
	"testing"

	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
	"github.com/stretchr/testify/assert"
)

func testModel() *model.Model {
	m := model.New()
	leg := &model.Leg{
		IDNumber: 0,
		IDName:   "FL",
		Origin:   math3d.Vector3{X: -61, Z: 98},
		Stepper:  &model.LegStepper{DefaultTipPosition: math3d.Vector3{X: -150, Z: 200}},
		Joints: []*model.Joint{
			{Name: "FL_coxa", MinPosition: -90, MaxPosition: 90},
			{Name: "FL_femur", MinPosition: -90, MaxPosition: 90},
			{Name: "FL_tibia", MinPosition: -90, MaxPosition: 90},
		},
		Links: []*model.Link{
			{Name: "coxa", Length: 40},
			{Name: "femur", Length: 100},
			{Name: "tibia", Length: 85},
		},
	}
	leg.Stepper.CurrentTipPosition = leg.Stepper.DefaultTipPosition
	_ = m.AddLeg(leg)
	return m
}

func testParams() *params.ParameterSet {
	p := &params.ParameterSet{TimeDelta: 0.02}
	p.BodyClearance.CurrentValue = 60
	p.AutoCompensation = true
	p.ImpedanceControl = true
	p.RotationPIDGains = params.PIDGains{Absement: 0.01, Position: 0.5, Velocity: 0.05}
	p.MaxTranslation = 50
	p.MaxRotation = 0.5
	return p
}

func TestComposePoseClampsTranslation(t *testing.T) {
	m := testModel()
	p := testParams()
	p.MaxTranslation = 1
	pc := New(m, p)

	pose := pc.ComposePose(0.25, math3d.IdentityQuaternion, 100)
	assert.LessOrEqual(t, pose.Position.Magnitude(), p.MaxTranslation+1e-9)
}

func TestUpdateStanceAppliesCurrentPose(t *testing.T) {
	m := testModel()
	p := testParams()
	pc := New(m, p)

	m.CurrentPose = math3d.Pose{Position: math3d.Vector3{Y: 10}, Rotation: math3d.IdentityQuaternion}
	pc.UpdateStance()

	leg := m.Leg(0)
	assert.InDelta(t, leg.Stepper.DefaultTipPosition.Y+10, leg.LocalTipPosition.Y, 1e-6)
}

func TestDirectStartupReachesOneAndTargetPosition(t *testing.T) {
	m := testModel()
	p := testParams()
	pc := New(m, p)

	leg := m.Leg(0)
	leg.LocalTipPosition = math3d.Vector3{X: 0, Y: -60, Z: 0}

	restart := true
	var progress float64
	var midJoint float64
	for i := 0; i < 200; i++ {
		progress = pc.DirectStartup(restart, 1.0)
		restart = false
		if i == 10 {
			midJoint = leg.Joints[0].DesiredPosition
		}
		if progress >= 1.0 {
			break
		}
	}
	assert.Equal(t, 1.0, progress)
	assert.InDelta(t, leg.Stepper.DefaultTipPosition.X, leg.Poser.CurrentTipPosition.X, 1e-6)

	// The joint targets must track the interpolation every tick, not sit
	// frozen until the choreography completes.
	assert.NotEqual(t, 0.0, midJoint, "joint target should have moved mid-sequence")
	assert.NotEqual(t, midJoint, leg.Joints[0].DesiredPosition, "joint target should keep moving after the midpoint")
}

func TestPackLegsMovesJointsToPackedPosition(t *testing.T) {
	m := model.New()
	leg := &model.Leg{IDNumber: 0, Joints: []*model.Joint{{PackedPosition: -90, CurrentPosition: 0, MaxPosition: 180, MinPosition: -180}}}
	_ = m.AddLeg(leg)
	p := testParams()
	pc := New(m, p)

	restart := true
	var progress float64
	for i := 0; i < 300; i++ {
		progress = pc.PackLegs(restart, 1.0)
		restart = false
		if progress >= 1.0 {
			break
		}
	}
	assert.InDelta(t, -90, leg.Joints[0].DesiredPosition, 1e-3)
}

func TestManualCompensationServosTowardTarget(t *testing.T) {
	m := testModel()
	p := testParams()
	p.AutoCompensation = false
	p.ImpedanceControl = false
	p.ManualCompensation = true
	p.TranslationPIDGains = params.PIDGains{Position: 10}
	pc := New(m, p)
	pc.PosingMode = PosingXY

	pc.SetManualCompensation(math3d.Pose{Position: math3d.Vector3{X: 10}, Rotation: math3d.IdentityQuaternion})

	// Velocity-form loop: rate = gain*error, integrated over the tick.
	pose := pc.ComposePose(0, math3d.IdentityQuaternion, 0)
	assert.InDelta(t, 2.0, pose.Position.X, 1e-9)

	pose2 := pc.ComposePose(0, math3d.IdentityQuaternion, 0)
	assert.Greater(t, pose2.Position.X, pose.Position.X)
	assert.Less(t, pose2.Position.X, 10.0)
}

func TestComposePoseRateClampPacesTranslation(t *testing.T) {
	m := testModel()
	p := testParams()
	p.AutoCompensation = false
	p.ImpedanceControl = true
	p.MaxTranslationVelocity = 100 // units/s -> 2 units per 0.02s tick
	pc := New(m, p)

	pose := pc.ComposePose(0, math3d.IdentityQuaternion, 40)
	assert.InDelta(t, 2.0, pose.Position.Magnitude(), 1e-9, "first tick moves at most vmax*dt toward the target")

	pose = pc.ComposePose(0, math3d.IdentityQuaternion, 40)
	assert.InDelta(t, 4.0, pose.Position.Magnitude(), 1e-9, "second tick continues from the previous pose")
}

func TestResetModeAllResetZeroesPose(t *testing.T) {
	m := testModel()
	p := testParams()
	p.AutoCompensation = false
	p.ImpedanceControl = false
	pc := New(m, p)
	pc.ResetMode = AllReset

	pose := pc.ComposePose(0, math3d.IdentityQuaternion, 0)
	assert.Equal(t, math3d.IdentityPose, pose)
}
