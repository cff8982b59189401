// Package impedancecontroller closes a per-leg vertical virtual
// spring/damper loop on measured tip force. It has no direct teacher or
// original_source file (the original's impedanceController.h/.cpp isn't in
// the retrieval pack); built from the ODE in spec.md §4.4 directly, using
// the teacher's per-tick position-accumulation style
// (components/legs/hexapod.go's sStepping branch) as the numeric idiom for
// the integration step.
package impedancecontroller

import (
	"math"

	"github.com/sirupsen/logrus"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "impedancecontroller",
})

// legState is the integrator state kept per leg: the teacher has nothing
// equivalent to carry forward between ticks, so this is new state owned
// entirely by this package rather than model.Leg.
type legState struct {
	z  float64
	zd float64
}

// ImpedanceController integrates the mass/damper/stiffness ODE for every
// WALKING leg in m, writing Leg.DeltaZ each tick.
type ImpedanceController struct {
	Model  *model.Model
	Params *params.ParameterSet

	states map[int]*legState
}

// New builds an ImpedanceController over m.
func New(m *model.Model, p *params.ParameterSet) *ImpedanceController {
	return &ImpedanceController{
		Model:  m,
		Params: p,
		states: make(map[int]*legState),
	}
}

// Reset clears every leg's integrator state (position and velocity) and
// restores its VirtualStiffness to the current virtual_stiffness, used by
// StateController.adjustParameter after a parameter change (including
// virtual_mass/virtual_stiffness/virtual_damping/force_gain), mirroring the
// original's `impedance_->init()` call.
func (ic *ImpedanceController) Reset() {
	ic.states = make(map[int]*legState)
	for _, id := range ic.Model.LegIDs() {
		ic.Model.Leg(id).DeltaZ = 0
		ic.Model.Leg(id).VirtualStiffness = ic.Params.VirtualStiffness.CurrentValue
	}
}

// Step integrates one tick for every leg currently WALKING. Manual legs get
// DeltaZ=0 and are skipped, per spec.md §4.4 ("manual legs get delta_z = 0
// and are excluded from the IK subtraction").
func (ic *ImpedanceController) Step() {
	dt := ic.Params.IntegratorStepTime
	if dt <= 0 {
		dt = ic.Params.TimeDelta
	}

	for _, id := range ic.Model.LegIDs() {
		leg := ic.Model.Leg(id)
		if leg.State != model.Walking {
			leg.DeltaZ = 0
			continue
		}

		st := ic.states[id]
		if st == nil {
			st = &legState{}
			ic.states[id] = st
		}

		mass := ic.Params.VirtualMass.CurrentValue
		stiffness := leg.VirtualStiffness
		damping := 2 * ic.Params.VirtualDampingRatio.CurrentValue * math.Sqrt(mass*stiffness)
		force := ic.Params.ForceGain.CurrentValue * leg.TipForce

		// Semi-implicit (symplectic) Euler: update velocity from the
		// current acceleration, then position from the updated velocity.
		accel := (force - damping*st.zd - stiffness*st.z) / mass
		st.zd += accel * dt
		st.z += st.zd * dt

		leg.DeltaZ = st.z
	}
}

// UpdateStiffnessForPhase modulates every WALKING leg's VirtualStiffness by
// its walk phase: swing_stiffness_scaler during swing, load_stiffness_scaler
// on the grounded legs either side of a swinging leg (they carry its
// redistributed share of body weight), unity otherwise.
func (ic *ImpedanceController) UpdateStiffnessForPhase() {
	if !ic.Params.DynamicStiffness {
		return
	}

	base := ic.Params.VirtualStiffness.CurrentValue
	ids := ic.Model.LegIDs()

	for _, id := range ids {
		leg := ic.Model.Leg(id)
		if leg.State != model.Walking || leg.Stepper == nil {
			continue
		}
		if leg.Stepper.StepState == model.Swing {
			leg.VirtualStiffness = base * ic.Params.SwingStiffnessScaler
		} else {
			leg.VirtualStiffness = base
		}
	}

	n := len(ids)
	for i, id := range ids {
		leg := ic.Model.Leg(id)
		if leg.State != model.Walking || leg.Stepper == nil || leg.Stepper.StepState != model.Swing {
			continue
		}
		for _, di := range []int{-1, 1} {
			neighbor := ic.Model.Leg(ids[((i+di)%n+n)%n])
			if neighbor == leg || neighbor.State != model.Walking || neighbor.Stepper == nil {
				continue
			}
			if neighbor.Stepper.StepState != model.Swing {
				neighbor.VirtualStiffness = base * ic.Params.LoadStiffnessScaler
			}
		}
	}
}

// UpdateStiffnessRatio interpolates a single leg's VirtualStiffness between
// fully loaded (base, ratio 0) and unloaded (base * swing_stiffness_scaler,
// ratio 1), used during manual transitions: as a leg hands over to direct
// user control it stops bearing weight and softens the same way a swinging
// leg does.
func (ic *ImpedanceController) UpdateStiffnessRatio(legID int, ratio float64) {
	leg := ic.Model.Leg(legID)
	if leg == nil {
		return
	}
	base := ic.Params.VirtualStiffness.CurrentValue
	leg.VirtualStiffness = base * ((1 - ratio) + ratio*ic.Params.SwingStiffnessScaler)
}
