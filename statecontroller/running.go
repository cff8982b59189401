package statecontroller

import (
	"github.com/deeplearning2012/syropod-highlevel-controller/gait"
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
	"github.com/deeplearning2012/syropod-highlevel-controller/posecontroller"
	"github.com/deeplearning2012/syropod-highlevel-controller/walkcontroller"
)

// runningPipeline implements spec.md §4.1.1, the RUNNING-state per-tick
// dispatch. changeGait/adjustParameter/legStateToggle are priority-ordered
// and mutually exclusive (first matching wins); each zeroes the velocity
// inputs and waits if the walker hasn't stopped yet. The four-stage
// Walk->Pose->Impedance->IK pipeline itself still runs while the walker is
// coming to a stop, so it can actually reach STOPPED — it is skipped on
// every tick where an action is still pending after its step ran with the
// walker already stopped, since that action's own choreography drives the
// legs then; on the tick the action clears, the pipeline runs again
// (original_source/src/stateController.cpp's runningState guards this the
// same way; spec.md's parenthetical reads inverted from what invariant #4
// requires, so this follows the source and the invariant over the literal
// clause).
func (sc *StateController) runningPipeline() {
	cruising := false
	switch {
	case sc.gaitChangeFlag:
		sc.changeGait()
	case sc.parameterFlag:
		sc.adjustParameter()
	case sc.primaryLegToggle:
		sc.legStateToggle(sc.primaryLegSelection)
	case sc.secondaryLegToggle:
		sc.legStateToggle(sc.secondaryLegSelection)
	case sc.CruiseControlMode || sc.Params.ForceCruiseVelocity:
		cruising = true
		sc.DesiredLinearVelocity = math3d.Vector3{
			X: sc.Params.LinearCruiseVelocity[0],
			Y: sc.Params.LinearCruiseVelocity[1],
			Z: sc.Params.LinearCruiseVelocity[2],
		}
		sc.DesiredAngularVelocity = sc.Params.AngularCruiseVelocity
	}

	actionActive := sc.gaitChangeFlag || sc.parameterFlag || sc.primaryLegToggle || sc.secondaryLegToggle
	if actionActive && sc.Walk.State == walkcontroller.Stopped {
		return
	}

	linear, angular := sc.DesiredLinearVelocity, sc.DesiredAngularVelocity
	if !cruising && sc.Params.VelocityInputMode == params.VelocityModeThrottle {
		// In throttle mode the stick is a unitless fraction of the
		// configured cruise velocity rather than a velocity itself.
		linear = math3d.Vector3{
			X: linear.X * absFloat(sc.Params.LinearCruiseVelocity[0]),
			Y: linear.Y * absFloat(sc.Params.LinearCruiseVelocity[1]),
			Z: linear.Z * absFloat(sc.Params.LinearCruiseVelocity[2]),
		}
		angular *= absFloat(sc.Params.AngularCruiseVelocity)
	}

	if err := sc.Walk.UpdateWalk(linear, angular); err != nil {
		log.Warnf("updateWalk: %s", err)
	}
	sc.updateManualLeg(sc.primaryLegSelection, sc.PrimaryTipVelocity)
	sc.updateManualLeg(sc.secondaryLegSelection, sc.SecondaryTipVelocity)

	sc.Pose.UpdateStance()

	for _, id := range sc.Model.LegIDs() {
		leg := sc.Model.Leg(id)
		target := leg.Poser.CurrentTipPosition
		if leg.State != model.Manual {
			target.Y -= leg.DeltaZ
		}
		leg.DesiredTipPosition = target
		if _, err := leg.ApplyIK(true, false); err != nil {
			log.Warnf("leg %s IK: %s", leg.IDName, err)
		}
	}
}

func (sc *StateController) updateManualLeg(legID int, tipVelocity math3d.Vector3) {
	if legID < 0 {
		return
	}
	leg := sc.Model.Leg(legID)
	if leg == nil || leg.State != model.Manual {
		return
	}
	if err := sc.Walk.UpdateManual(legID, tipVelocity); err != nil {
		log.Warnf("updateManual: %s", err)
	}
}

// changeGait implements spec.md §4.1.1 item 1. Requires the walker to be
// STOPPED: otherwise the commanded velocity is zeroed to force a stop and
// the request stays pending.
func (sc *StateController) changeGait() {
	if sc.Walk.State != walkcontroller.Stopped {
		sc.DesiredLinearVelocity = math3d.ZeroVector3
		sc.DesiredAngularVelocity = 0
		throttledLog.Infof("stopping hexapod to change gait...")
		return
	}

	g := gait.Make(sc.gaitSelection, sc.Model.NumLegs())
	if err := sc.Walk.SetGait(g); err != nil {
		log.Errorf("gait change failed: %s", err)
		sc.gaitChangeFlag = false
		return
	}
	sc.Params.GaitType = sc.gaitSelection
	sc.Params.GaitTypeName = sc.gaitSelection.String()
	// Acceleration clamps are reset to the "unlimited" sentinel immediately
	// after a gait change and never re-armed, matching original_source
	// (see DESIGN.md's Open Question 2 decision).
	sc.Params.MaxLinearAcceleration = -1
	sc.Params.MaxAngularAcceleration = -1
	sc.gaitChangeFlag = false
	log.Infof("now using %s", sc.Params.GaitTypeName)
}

// adjustParameter implements spec.md §4.1.1 item 2, split into two phases
// per selected parameter: the first tick clamps the new value and
// re-initializes impedance (and, if the parameter affects gait geometry,
// re-seeds the walker's gait phase offsets); every following tick drives
// PoseController.StepToNewStance until it reports complete. Leg default tip
// positions are not recomputed here, so a BODY_CLEARANCE or LEG_SPAN_SCALE
// adjustment changes the stored value without moving the stance.
func (sc *StateController) adjustParameter() {
	if sc.Walk.State != walkcontroller.Stopped {
		sc.DesiredLinearVelocity = math3d.ZeroVector3
		sc.DesiredAngularVelocity = 0
		throttledLog.Infof("stopping hexapod to adjust parameters...")
		return
	}

	p := sc.Params.Selected(sc.parameterSelection)
	if p == nil {
		sc.parameterFlag = false
		return
	}

	duration := 2.0 / sc.Params.StepFrequency.CurrentValue

	if !sc.parameterValueApplied {
		if clamped := p.Adjust(sc.parameterAdjustment); clamped {
			log.Warnf("parameter %s clamped to [%.3f, %.3f]", p.Name, p.Min, p.Max)
		}
		sc.Impedance.Reset()
		if affectsGaitGeometry(sc.parameterSelection) {
			if err := sc.Walk.SetGait(sc.Walk.Gait); err != nil {
				log.Warnf("walker re-init after parameter change: %s", err)
			}
		}
		sc.parameterValueApplied = true
		log.Infof("attempting to adjust %s to %.3f (default %.3f, range [%.3f, %.3f])...",
			p.Name, p.CurrentValue, p.DefaultValue, p.Min, p.Max)
		sc.Pose.StepToNewStance(true, duration)
		return
	}

	if sc.Pose.StepToNewStance(false, duration) >= 1.0 {
		log.Infof("parameter %s set to %.3f", p.Name, p.CurrentValue)
		sc.parameterFlag = false
		sc.parameterValueApplied = false
	}
}

func affectsGaitGeometry(s params.Selection) bool {
	switch s {
	case params.StepFrequency, params.StepClearance, params.BodyClearance, params.LegSpanScale:
		return true
	default:
		return false
	}
}

// legStateToggle implements spec.md §4.1.2. It is re-entered every tick
// while the relevant toggle flag is set, progressing whichever state the
// leg is currently in.
func (sc *StateController) legStateToggle(legID int) {
	if legID < 0 {
		return
	}
	leg := sc.Model.Leg(legID)
	if leg == nil {
		sc.clearLegToggle(legID)
		return
	}

	if sc.Walk.State != walkcontroller.Stopped {
		sc.DesiredLinearVelocity = math3d.ZeroVector3
		sc.DesiredAngularVelocity = 0
		throttledLog.Infof("stopping hexapod to transition leg state...")
		return
	}

	switch leg.State {
	case model.Walking:
		if sc.Model.ManualLegCount() >= model.MaxManualLegs {
			log.Warnf("leg %s: %d legs already manual, rejecting toggle", leg.IDName, model.MaxManualLegs)
			sc.clearLegToggle(legID)
			return
		}
		log.Infof("leg %s: WALKING -> WALKING_TO_MANUAL", leg.IDName)
		leg.State = model.WalkingToManual
		sc.beginLegManipulation(legID)

	case model.Manual:
		log.Infof("leg %s: MANUAL -> MANUAL_TO_WALKING", leg.IDName)
		leg.State = model.ManualToWalking
		sc.beginLegManipulation(legID)

	case model.WalkingToManual, model.ManualToWalking:
		sc.stepLegManipulation(legID)

	default:
		sc.clearLegToggle(legID)
	}
}

func (sc *StateController) beginLegManipulation(legID int) {
	sc.savedPoseResetMode = sc.PoseResetMode
	sc.PoseResetMode = posecontroller.ImmediateAllReset
	sc.legManipulationRestart[legID] = true
	sc.stepLegManipulation(legID)
}

func (sc *StateController) stepLegManipulation(legID int) {
	leg := sc.Model.Leg(legID)
	restart := sc.legManipulationRestart[legID]
	sc.legManipulationRestart[legID] = false

	duration := 1.0 / sc.Params.StepFrequency.CurrentValue
	progress := sc.Pose.PoseForLegManipulation(legID, restart, duration)

	if sc.Params.DynamicStiffness {
		ratio := progress
		if leg.State == model.ManualToWalking {
			ratio = 1 - progress
		}
		sc.Impedance.UpdateStiffnessRatio(legID, ratio)
	}

	if progress >= 1.0 {
		switch leg.State {
		case model.WalkingToManual:
			leg.State = model.Manual
			log.Infof("leg %s set to state: MANUAL", leg.IDName)
		case model.ManualToWalking:
			leg.State = model.Walking
			log.Infof("leg %s set to state: WALKING", leg.IDName)
		}
		sc.PoseResetMode = sc.savedPoseResetMode
		sc.clearLegToggle(legID)
	}
}

func (sc *StateController) clearLegToggle(legID int) {
	if legID == sc.primaryLegSelection {
		sc.primaryLegToggle = false
	}
	if legID == sc.secondaryLegSelection {
		sc.secondaryLegToggle = false
	}
	delete(sc.legManipulationRestart, legID)
}
