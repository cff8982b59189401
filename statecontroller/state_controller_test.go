package statecontroller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deeplearning2012/syropod-highlevel-controller/gait"
	"github.com/deeplearning2012/syropod-highlevel-controller/impedancecontroller"
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
	"github.com/deeplearning2012/syropod-highlevel-controller/posecontroller"
	"github.com/deeplearning2012/syropod-highlevel-controller/walkcontroller"
)

func testLegConfig(id int, name string) params.LegConfig {
	return params.LegConfig{
		ID:   id,
		Name: name,
		DOF:  3,
		Joints: []params.JointConfig{
			{ID: name + "_coxa", MinPosition: -90, MaxPosition: 90},
			{ID: name + "_femur", MinPosition: -90, MaxPosition: 90},
			{ID: name + "_tibia", MinPosition: -90, MaxPosition: 90},
		},
		Links: []params.LinkConfig{
			{ID: "coxa", Length: 40},
			{ID: "femur", Length: 100},
			{ID: "tibia", Length: 85},
		},
	}
}

func testSetup(t *testing.T, startUpSequence bool) *StateController {
	t.Helper()

	p := &params.ParameterSet{
		TimeDelta:       0.02,
		StartUpSequence: startUpSequence,
		TimeToStart:     1,
		GaitType:        gait.Tripod,
		Legs:            []params.LegConfig{testLegConfig(0, "FL"), testLegConfig(1, "FR")},
	}
	p.StepFrequency.CurrentValue = 1
	p.StepFrequency.Min, p.StepFrequency.Max = 0.1, 5
	p.StepFrequency.AdjustStep = 0.1
	p.BodyClearance.CurrentValue = 40
	p.LegSpanScale.CurrentValue = 1
	p.VirtualMass.CurrentValue = 1
	p.VirtualStiffness.CurrentValue = 5
	p.VirtualStiffness.Min, p.VirtualStiffness.Max = 1, 20
	p.VirtualStiffness.AdjustStep = 1
	p.VirtualDampingRatio.CurrentValue = 1
	p.ForceGain.CurrentValue = 1

	m, err := model.Build(p)
	assert.NoError(t, err)

	g := gait.Make(p.GaitType, m.NumLegs())
	walk, err := walkcontroller.New(m, p, g)
	assert.NoError(t, err)

	pose := posecontroller.New(m, p)
	impedance := impedancecontroller.New(m, p)

	return New(m, p, walk, pose, impedance, nil, nil)
}

func TestSetDesiredSystemStateBootstrapRewritesWhenStartupDisabled(t *testing.T) {
	sc := testSetup(t, false)
	sc.SetDesiredSystemState(Ready)
	assert.Equal(t, Off, sc.NewSystemState)
}

func TestSetDesiredSystemStateBootstrapLeavesRequestWhenStartupEnabled(t *testing.T) {
	sc := testSetup(t, true)
	sc.SetDesiredSystemState(Ready)
	assert.Equal(t, Ready, sc.NewSystemState)
}

func TestResolveUnknownFatalWhenPackedButStartupDisabled(t *testing.T) {
	sc := testSetup(t, false)
	sc.State = Unknown
	assert.Panics(t, func() { sc.resolveUnknown() })
}

func TestResolveUnknownGoesOffWhenNotPackedAndStartupDisabled(t *testing.T) {
	sc := testSetup(t, false)
	sc.State = Unknown
	for _, id := range sc.Model.LegIDs() {
		sc.Model.Leg(id).Joints[0].CurrentPosition = 30
	}
	sc.resolveUnknown()
	assert.Equal(t, Off, sc.State)
}

func TestTickDrivesUnknownToPackedToReadyToRunning(t *testing.T) {
	sc := testSetup(t, true)
	sc.SetDesiredSystemState(Running)
	assert.Equal(t, Unknown, sc.State)

	now := time.Now()
	seenRunning := false
	movedDuringStartup := false
	for i := 0; i < 500; i++ {
		assert.NoError(t, sc.Tick(now))
		now = now.Add(20 * time.Millisecond)
		if sc.State == Ready && sc.Model.Leg(0).Joints[1].DesiredPosition != 0 {
			movedDuringStartup = true
		}
		if sc.State == Running {
			seenRunning = true
			break
		}
	}
	assert.True(t, seenRunning, "expected system to reach RUNNING within 500 ticks, stuck at %s", sc.State)
	assert.True(t, movedDuringStartup,
		"joint targets must move while the startup choreography is in flight, not jump once RUNNING is reached")
}

func TestTickDirectStartupReachesRunningWhenStartupDisabled(t *testing.T) {
	sc := testSetup(t, false)
	// The robot is mid-stance, not folded: a packed posture with the
	// startup sequence disabled is the fatal operator-intervention case.
	for _, id := range sc.Model.LegIDs() {
		sc.Model.Leg(id).Joints[0].CurrentPosition = 30
	}
	sc.SetDesiredSystemState(Running)
	assert.Equal(t, Running, sc.NewSystemState, "RUNNING itself is not rewritten, only the READY/PACKED waypoints are")

	now := time.Now()
	reachedRunning := false
	movedDuringTransition := false
	for i := 0; i < 200; i++ {
		assert.NoError(t, sc.Tick(now))
		now = now.Add(20 * time.Millisecond)
		if sc.State != Running && sc.Model.Leg(0).Joints[1].DesiredPosition != 0 {
			movedDuringTransition = true
		}
		if sc.State == Running {
			reachedRunning = true
			break
		}
	}
	assert.True(t, reachedRunning, "expected DirectStartup to reach RUNNING without passing through PACKED/READY")
	assert.True(t, movedDuringTransition,
		"DirectStartup must drive joint targets every tick of the transition")
}

func TestLegStateToggleRejectsThirdManualLeg(t *testing.T) {
	p := &params.ParameterSet{
		TimeDelta:       0.02,
		StartUpSequence: true,
		TimeToStart:     1,
		GaitType:        gait.Tripod,
		Legs: []params.LegConfig{
			testLegConfig(0, "FL"), testLegConfig(1, "FR"), testLegConfig(2, "MR"),
		},
	}
	p.StepFrequency.CurrentValue = 1
	p.StepFrequency.Min, p.StepFrequency.Max = 0.1, 5
	p.BodyClearance.CurrentValue = 40
	p.LegSpanScale.CurrentValue = 1
	p.VirtualStiffness.CurrentValue = 5

	m, err := model.Build(p)
	assert.NoError(t, err)
	g := gait.Make(p.GaitType, m.NumLegs())
	walk, err := walkcontroller.New(m, p, g)
	assert.NoError(t, err)
	pose := posecontroller.New(m, p)
	impedance := impedancecontroller.New(m, p)
	sc := New(m, p, walk, pose, impedance, nil, nil)

	sc.Walk.State = walkcontroller.Stopped
	sc.Model.Leg(0).State = model.Manual
	sc.Model.Leg(1).State = model.Manual

	sc.primaryLegSelection = 2
	sc.legStateToggle(2)
	assert.Equal(t, model.Walking, sc.Model.Leg(2).State, "third leg must stay WALKING, MaxManualLegs=2")
}

func TestUndefinedTransitionIsFatal(t *testing.T) {
	sc := testSetup(t, true)
	sc.State = Running
	sc.NewSystemState = Unknown
	sc.transitionFlag = true

	assert.Panics(t, func() { _ = sc.transitionStep() })
}

func TestGaitChangeWhileWalkingStopsThenSwitches(t *testing.T) {
	sc := testSetup(t, true)
	sc.State = Running
	sc.NewSystemState = Running

	now := time.Now()
	sc.SetDesiredVelocity(model3Velocity(), 0)
	for i := 0; i < 30; i++ {
		assert.NoError(t, sc.Tick(now))
		now = now.Add(20 * time.Millisecond)
	}
	assert.Equal(t, walkcontroller.Moving, sc.Walk.State)

	sc.SetGaitSelection(gait.Wave)
	assert.True(t, sc.gaitChangeFlag)

	completed := false
	for i := 0; i < 400; i++ {
		assert.NoError(t, sc.Tick(now))
		now = now.Add(20 * time.Millisecond)
		if !sc.gaitChangeFlag {
			completed = true
			break
		}
		assert.Equal(t, 0.0, sc.DesiredLinearVelocity.Magnitude(), "velocity input is zeroed while stopping for the gait change")
	}
	assert.True(t, completed, "gait change should complete within one cycle of stopping")
	assert.Equal(t, gait.Wave, sc.Params.GaitType)
	assert.Equal(t, "wave_gait", sc.Params.GaitTypeName)
	assert.Equal(t, walkcontroller.Stopped, sc.Walk.State)
}

func model3Velocity() math3d.Vector3 {
	return math3d.Vector3{X: 0.1}
}

func TestStoppedZeroInputTicksProduceIdenticalJointTargets(t *testing.T) {
	sc := testSetup(t, true)
	sc.State = Running
	sc.NewSystemState = Running

	now := time.Now()
	assert.NoError(t, sc.Tick(now))

	first := make(map[string]float64)
	for _, id := range sc.Model.LegIDs() {
		for _, j := range sc.Model.Leg(id).Joints {
			first[j.Name] = j.DesiredPosition
		}
	}

	assert.NoError(t, sc.Tick(now.Add(20*time.Millisecond)))
	for _, id := range sc.Model.LegIDs() {
		for _, j := range sc.Model.Leg(id).Joints {
			assert.Equal(t, first[j.Name], j.DesiredPosition, "joint %s", j.Name)
		}
	}
}

func TestParameterAdjustIncrementsThenStepsToNewStance(t *testing.T) {
	sc := testSetup(t, true)
	sc.State = Running
	sc.NewSystemState = Running

	sc.SetParameterSelection(params.StepFrequency)
	sc.SetParameterAdjustment(+1)
	assert.True(t, sc.parameterFlag)

	// Releasing the adjust button reports 0 every tick; that must not
	// cancel the adjustment already in flight.
	sc.SetParameterAdjustment(0)
	assert.True(t, sc.parameterFlag)

	now := time.Now()
	completed := false
	movedDuringAdjust := false
	for i := 0; i < 300; i++ {
		assert.NoError(t, sc.Tick(now))
		now = now.Add(20 * time.Millisecond)
		if sc.parameterFlag && sc.Model.Leg(0).Joints[1].DesiredPosition != 0 {
			movedDuringAdjust = true
		}
		if !sc.parameterFlag {
			completed = true
			break
		}
	}
	assert.True(t, completed, "parameter adjust should finish once stepToNewStance completes")
	assert.InDelta(t, 1.1, sc.Params.StepFrequency.CurrentValue, 1e-9)
	assert.True(t, movedDuringAdjust,
		"stepToNewStance must drive joint targets while the adjustment is still pending")
}

func TestChangeGaitWaitsForWalkerToStop(t *testing.T) {
	sc := testSetup(t, true)
	sc.Walk.State = walkcontroller.Moving
	sc.gaitSelection = gait.Wave
	sc.gaitChangeFlag = true

	sc.changeGait()
	assert.True(t, sc.gaitChangeFlag, "gait change should still be pending while walker is not stopped")
	assert.Equal(t, 0.0, sc.DesiredLinearVelocity.Magnitude())

	sc.Walk.State = walkcontroller.Stopped
	sc.changeGait()
	assert.False(t, sc.gaitChangeFlag)
	assert.Equal(t, gait.Wave, sc.Params.GaitType)
}
