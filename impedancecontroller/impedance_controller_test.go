package impedancecontroller

import (
	"testing"

	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
	"github.com/stretchr/testify/assert"
)

func testSetup() (*model.Model, *params.ParameterSet) {
	m := model.New()
	_ = m.AddLeg(&model.Leg{IDNumber: 0, State: model.Walking, VirtualStiffness: 10, Stepper: &model.LegStepper{}})
	_ = m.AddLeg(&model.Leg{IDNumber: 1, State: model.Manual})

	p := &params.ParameterSet{TimeDelta: 0.02, IntegratorStepTime: 0.02}
	p.VirtualDampingRatio.CurrentValue = 1.0
	p.VirtualMass.CurrentValue = 1.0
	p.VirtualStiffness.CurrentValue = 10.0
	p.ForceGain.CurrentValue = 0.01
	p.SwingStiffnessScaler = 0.5
	p.LoadStiffnessScaler = 1.5
	return m, p
}

func TestStepSkipsManualLegs(t *testing.T) {
	m, p := testSetup()
	ic := New(m, p)

	m.Leg(1).DeltaZ = 5
	ic.Step()
	assert.Equal(t, 0.0, m.Leg(1).DeltaZ)
}

func TestStepConvergesTowardSteadyStateUnderConstantForce(t *testing.T) {
	m, p := testSetup()
	ic := New(m, p)

	m.Leg(0).TipForce = 500
	for i := 0; i < 2000; i++ {
		ic.Step()
	}

	expected := (p.ForceGain.CurrentValue * 500) / m.Leg(0).VirtualStiffness
	assert.InDelta(t, expected, m.Leg(0).DeltaZ, 0.01)
}

func TestUpdateStiffnessForPhaseScalesBySwingState(t *testing.T) {
	m, p := testSetup()
	p.DynamicStiffness = true
	ic := New(m, p)

	m.Leg(0).Stepper.StepState = model.Swing
	ic.UpdateStiffnessForPhase()
	assert.InDelta(t, 10*0.5, m.Leg(0).VirtualStiffness, 1e-9)
}

func TestUpdateStiffnessForPhaseLoadsNeighborsOfSwingingLeg(t *testing.T) {
	m := model.New()
	for i := 0; i < 4; i++ {
		_ = m.AddLeg(&model.Leg{IDNumber: i, State: model.Walking, Stepper: &model.LegStepper{StepState: model.Stance}})
	}
	m.Leg(1).Stepper.StepState = model.Swing

	p := &params.ParameterSet{TimeDelta: 0.02}
	p.DynamicStiffness = true
	p.VirtualStiffness.CurrentValue = 10
	p.SwingStiffnessScaler = 0.5
	p.LoadStiffnessScaler = 1.5

	ic := New(m, p)
	ic.UpdateStiffnessForPhase()

	assert.InDelta(t, 5.0, m.Leg(1).VirtualStiffness, 1e-9, "swinging leg softens")
	assert.InDelta(t, 15.0, m.Leg(0).VirtualStiffness, 1e-9, "left neighbor stiffens")
	assert.InDelta(t, 15.0, m.Leg(2).VirtualStiffness, 1e-9, "right neighbor stiffens")
	assert.InDelta(t, 10.0, m.Leg(3).VirtualStiffness, 1e-9, "far leg stays at base")
}

func TestUpdateStiffnessRatioScalesRelativeToBase(t *testing.T) {
	m, p := testSetup()
	ic := New(m, p)

	// Halfway to manual: halfway between base (10) and unloaded (10*0.5).
	ic.UpdateStiffnessRatio(0, 0.5)
	assert.InDelta(t, 7.5, m.Leg(0).VirtualStiffness, 1e-9)
}
