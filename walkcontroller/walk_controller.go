// Package walkcontroller generates per-leg tip trajectories from a
// commanded body velocity, using a selectable gait to drive per-leg step
// phase. It has no direct teacher analogue (the teacher drives a single
// fixed "creep toward a target position" gait from components/legs/hexapod.go's
// sStepping state); the phase-offset tick shape is grounded on that state's
// "advance a counter, branch on swing/stance region, write feet" structure,
// generalized from one absolute tick counter per gait cycle to each leg's
// own continuously advancing phase.
package walkcontroller

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/deeplearning2012/syropod-highlevel-controller/gait"
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "walkcontroller",
})

// WalkController advances every leg's LegStepper each tick from a commanded
// (linear_velocity, angular_velocity), respecting the active gait's phase
// offsets and the configured acceleration limits.
type WalkController struct {
	Model  *model.Model
	Params *params.ParameterSet
	Gait   gait.Gait

	State State

	prevLinearVelocity  math3d.Vector3
	prevAngularVelocity float64

	// accelWarned dedupes the acceleration-clamp warning; it re-arms once
	// the command drops back within the limit.
	accelWarned bool
}

// New builds a WalkController over m, seeding every leg's LegStepper phase
// offset from g.
func New(m *model.Model, p *params.ParameterSet, g gait.Gait) (*WalkController, error) {
	if g.NumLegs() != m.NumLegs() {
		return nil, fmt.Errorf("walkcontroller: gait has %d legs, model has %d", g.NumLegs(), m.NumLegs())
	}

	w := &WalkController{Model: m, Params: p, Gait: g, State: Stopped}
	for i, id := range m.LegIDs() {
		leg := m.Leg(id)
		if leg.Stepper == nil {
			leg.Stepper = &model.LegStepper{}
		}
		leg.Stepper.PhaseOffset = g.LegPhaseOffset(i)
		leg.Stepper.StepState = model.Stance
	}
	return w, nil
}

// SetGait replaces the active gait, re-seeding every leg's phase offset.
// Callers are responsible for only calling this once the walk has come to
// a full STOPPED halt (the gait-change choreography in StateController).
func (w *WalkController) SetGait(g gait.Gait) error {
	if g.NumLegs() != w.Model.NumLegs() {
		return fmt.Errorf("walkcontroller: gait has %d legs, model has %d", g.NumLegs(), w.Model.NumLegs())
	}
	w.Gait = g
	for i, id := range w.Model.LegIDs() {
		w.Model.Leg(id).Stepper.PhaseOffset = g.LegPhaseOffset(i)
	}
	return nil
}

// UpdateWalk is the per-tick entry point: clamp the commanded velocity,
// compute each leg's stride vector, advance its phase, and write its
// CurrentTipPosition for the swing or stance region it's currently in.
// A max_linear_acceleration/max_angular_acceleration of -1 (or any other
// non-positive value) disables that axis's clamp; -1 is set immediately
// after a gait change per spec.md §4.2.
func (w *WalkController) UpdateWalk(linear math3d.Vector3, angular float64) error {
	commandedLinear, commandedAngular := linear, angular
	linear = clampAccel(linear, w.prevLinearVelocity, w.Params.MaxLinearAcceleration, w.Params.TimeDelta)
	angular = clampAccelScalar(angular, w.prevAngularVelocity, w.Params.MaxAngularAcceleration, w.Params.TimeDelta)
	if linear != commandedLinear || angular != commandedAngular {
		if !w.accelWarned {
			log.Warnf("commanded velocity clamped by acceleration limit")
			w.accelWarned = true
		}
	} else {
		w.accelWarned = false
	}
	w.prevLinearVelocity = linear
	w.prevAngularVelocity = angular

	magnitude := linear.Magnitude()
	stopping := magnitude == 0 && angular == 0

	// Fully stopped with no new command: every walking leg is parked at
	// its default tip position, phase 0 of stance. Leave everything
	// untouched so consecutive zero-input ticks are bit-identical.
	if stopping && w.State == Stopped {
		return nil
	}

	allSettled := true
	for _, id := range w.Model.LegIDs() {
		leg := w.Model.Leg(id)
		stepper := leg.Stepper

		// Legs under manual control keep whatever tip position
		// UpdateManual last integrated; the walk cycle doesn't touch them.
		if leg.State != model.Walking {
			stepper.StepState = model.ForceStop
			continue
		}

		stride := strideVector(linear, angular, leg.Origin, w.Params.StepFrequency.CurrentValue)
		stepper.StrideVector = stride

		period := w.Gait.Period()
		deltaPhase := w.Params.TimeDelta * w.Params.StepFrequency.CurrentValue * period

		local := localPhase(stepper.Phase, stepper.PhaseOffset, period)
		inSwing := local >= w.Gait.StancePhase

		// While stopping, legs mid-swing finish their arc (and land at the
		// zero-stride default position); legs already grounded freeze
		// where they are as FORCE_STANCE until everyone has landed.
		if !stopping || inSwing {
			stepper.Phase += deltaPhase
			if period > 0 {
				for stepper.Phase >= period {
					stepper.Phase -= period
				}
			}
			local = localPhase(stepper.Phase, stepper.PhaseOffset, period)
			inSwing = local >= w.Gait.StancePhase
		}

		if stopping {
			if inSwing {
				stepper.StepState = model.Swing
				allSettled = false
			} else {
				stepper.StepState = model.ForceStance
			}
		} else {
			allSettled = false
			if inSwing {
				stepper.StepState = model.Swing
			} else {
				stepper.StepState = model.Stance
			}
		}

		if inSwing {
			swingPhase := local - w.Gait.StancePhase
			height := gait.SwingHeightRatio(swingPhase, w.Gait.SwingPhase)
			progress := gait.SwingProgressRatio(swingPhase, w.Gait.SwingPhase)
			stepper.SwingProgress = progress
			stepper.StanceProgress = 0

			clearance := w.Params.StepClearance.CurrentValue
			half := stride.MultiplyByScalar(0.5)
			stepper.CurrentTipPosition = math3d.Vector3{
				X: stepper.DefaultTipPosition.X - half.X + stride.X*progress,
				Y: stepper.DefaultTipPosition.Y + clearance*height,
				Z: stepper.DefaultTipPosition.Z - half.Z + stride.Z*progress,
			}
		} else {
			progress := gait.StanceProgressRatio(local, w.Gait.StancePhase)
			stepper.StanceProgress = progress
			stepper.SwingProgress = 0

			half := stride.MultiplyByScalar(0.5)
			stepper.CurrentTipPosition = math3d.Vector3{
				X: stepper.DefaultTipPosition.X + half.X - stride.X*progress,
				Y: stepper.DefaultTipPosition.Y,
				Z: stepper.DefaultTipPosition.Z + half.Z - stride.Z*progress,
			}
		}

		stepper.CurrentTipPosition = clampToWorkspace(stepper.CurrentTipPosition, stepper.DefaultTipPosition, w.Params.FootprintDownscale*w.stepRadius(leg))
	}

	w.State = nextWalkState(w.State, magnitude+absFloat(angular), allSettled)

	// On reaching STOPPED, park every walking leg at phase 0 of stance so
	// the next STARTING cycle begins from a known, offset-preserving state.
	if w.State == Stopped {
		for _, id := range w.Model.LegIDs() {
			leg := w.Model.Leg(id)
			if leg.State != model.Walking {
				continue
			}
			stepper := leg.Stepper
			stepper.Phase = 0
			stepper.StepState = model.Stance
			stepper.SwingProgress = 0
			stepper.StanceProgress = 0
			stepper.StrideVector = math3d.ZeroVector3
			stepper.CurrentTipPosition = stepper.DefaultTipPosition
		}
	}
	return nil
}

// UpdateManual integrates tipVelocity into the current tip position of any
// leg under direct manual control, clamped to its workspace radius.
func (w *WalkController) UpdateManual(legID int, tipVelocity math3d.Vector3) error {
	leg := w.Model.Leg(legID)
	if leg == nil {
		return fmt.Errorf("walkcontroller: no leg %d", legID)
	}
	if leg.State != model.Manual {
		return fmt.Errorf("walkcontroller: leg %d is not MANUAL", legID)
	}

	delta := tipVelocity.MultiplyByScalar(w.Params.TimeDelta)
	next := *leg.Stepper.CurrentTipPosition.Add(delta)
	leg.Stepper.CurrentTipPosition = clampToWorkspace(next, leg.Stepper.DefaultTipPosition, w.Params.FootprintDownscale*w.stepRadius(leg))
	return nil
}

// clampToWorkspace limits how far a tip may stray from its default stance
// position: the planar (X/Z) excursion is clamped to radius, the vertical
// axis is left alone. Workspace radius is a property of the leg's reach
// from its own base, so the excursion is measured from the default tip,
// not from the body center.
func clampToWorkspace(tip, defaultTip math3d.Vector3, radius float64) math3d.Vector3 {
	if radius <= 0 {
		return tip
	}
	planar := math3d.Vector3{X: tip.X - defaultTip.X, Z: tip.Z - defaultTip.Z}
	clamped := planar.Clamp(radius)
	return math3d.Vector3{
		X: defaultTip.X + clamped.X,
		Y: tip.Y,
		Z: defaultTip.Z + clamped.Z,
	}
}

func (w *WalkController) stepRadius(leg *model.Leg) float64 {
	reach := 0.0
	for _, l := range leg.Links {
		reach += l.Length
	}
	if reach == 0 {
		return 1
	}
	return reach
}

func strideVector(linear math3d.Vector3, angular float64, legOrigin math3d.Vector3, stepFrequency float64) math3d.Vector3 {
	if stepFrequency <= 0 {
		return math3d.ZeroVector3
	}
	// Angular velocity contributes a tangential stride at the leg's radius
	// from the body's yaw axis (Y), v = omega x r.
	tangential := math3d.Vector3{X: -angular * legOrigin.Z, Z: angular * legOrigin.X}
	total := *linear.Add(tangential)
	return total.MultiplyByScalar(1 / stepFrequency)
}

// localPhase returns a leg's own phase within [0, period), folding in its
// gait phase offset.
func localPhase(phase, offset, period float64) float64 {
	if period <= 0 {
		return 0
	}
	p := phase + offset
	for p >= period {
		p -= period
	}
	for p < 0 {
		p += period
	}
	return p
}

// Non-positive limits (the -1 "unlimited" sentinel set after a gait
// change, or a limit never configured) disable the clamp.
func clampAccel(v, prev math3d.Vector3, limit, dt float64) math3d.Vector3 {
	if limit <= 0 {
		return v
	}
	maxDelta := limit * dt
	delta := v.Subtract(prev)
	return *prev.Add(delta.Clamp(maxDelta))
}

func clampAccelScalar(v, prev, limit, dt float64) float64 {
	if limit <= 0 {
		return v
	}
	maxDelta := limit * dt
	delta := v - prev
	if delta > maxDelta {
		delta = maxDelta
	}
	if delta < -maxDelta {
		delta = -maxDelta
	}
	return prev + delta
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func nextWalkState(current State, commandMagnitude float64, allLegsStanceSettled bool) State {
	moving := commandMagnitude > 0
	switch current {
	case Stopped:
		if moving {
			return Starting
		}
		return Stopped
	case Starting:
		if !moving {
			return Stopping
		}
		return Moving
	case Moving:
		if !moving {
			return Stopping
		}
		return Moving
	case Stopping:
		if allLegsStanceSettled {
			return Stopped
		}
		if moving {
			return Moving
		}
		return Stopping
	default:
		return Stopped
	}
}
