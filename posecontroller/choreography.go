package posecontroller

import (
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
)

// Each choreography below increments its own named progress counter by one
// tick's worth of the given duration and reports progress in [0,1]. Restart
// (the first call of a fresh choreography) resets that counter to zero;
// callers signal this by passing restart=true on the first call and false
// on every following call until progress reaches 1.0, matching the
// teacher's stateCounter-reset-on-SetState idiom in components/legs/hexapod.go.
//
// Tip-space choreographies must also solve IK every tick: the actuator
// boundary publishes whatever Joint.DesiredPosition holds after each tick,
// and the ordinary running pipeline (the only other ApplyIK caller) is
// gated off while a transition or pending action is in flight. Without the
// per-tick solve the joint targets would sit frozen for the whole
// choreography and jump in one step at progress 1.0.
func (pc *PoseController) advance(name string, restart bool, duration float64) float64 {
	if restart {
		pc.progress[name] = 0
	}
	if duration <= 0 {
		pc.progress[name] = 1
		return 1
	}
	pc.progress[name] += pc.Params.TimeDelta / duration
	if pc.progress[name] > 1 {
		pc.progress[name] = 1
	}
	return pc.progress[name]
}

func (pc *PoseController) legPoser(leg *model.Leg) *model.LegPoser {
	if leg.Poser == nil {
		leg.Poser = &model.LegPoser{CurrentTipPosition: leg.LocalTipPosition}
	}
	return leg.Poser
}

// driveTip writes the choreography's tip position for this tick into the
// leg and solves IK so the joint targets the actuator publishes actually
// follow the interpolation.
func (pc *PoseController) driveTip(leg *model.Leg, poser *model.LegPoser, tip math3d.Vector3, progress float64) {
	poser.CurrentTipPosition = tip
	poser.TransitionProgress = progress
	leg.DesiredTipPosition = tip
	leg.LocalTipPosition = tip
	if _, err := leg.ApplyIK(true, false); err != nil {
		log.Warnf("leg %s IK: %s", leg.IDName, err)
	}
}

// DirectStartup interpolates each leg's tip position from wherever it is
// now to its walking default tip position over duration seconds.
func (pc *PoseController) DirectStartup(restart bool, duration float64) float64 {
	progress := pc.advance("direct_startup", restart, duration)

	for _, id := range pc.Model.LegIDs() {
		leg := pc.Model.Leg(id)
		poser := pc.legPoser(leg)
		if restart {
			poser.CurrentTipPosition = leg.LocalTipPosition
			poser.TargetTipPosition = leg.Stepper.DefaultTipPosition
		}
		pc.driveTip(leg, poser, lerpVector(poser.CurrentTipPosition, poser.TargetTipPosition, progress), progress)
	}
	return progress
}

// UnpackLegs moves every joint from its current position to its configured
// unpacked_position over duration seconds.
func (pc *PoseController) UnpackLegs(restart bool, duration float64) float64 {
	return pc.moveJointsTo("unpack_legs", restart, duration, func(j *model.Joint) float64 {
		return j.UnpackedPosition
	})
}

// PackLegs moves every joint from its current position to its configured
// packed_position over duration seconds.
func (pc *PoseController) PackLegs(restart bool, duration float64) float64 {
	return pc.moveJointsTo("pack_legs", restart, duration, func(j *model.Joint) float64 {
		return j.PackedPosition
	})
}

func (pc *PoseController) moveJointsTo(name string, restart bool, duration float64, target func(*model.Joint) float64) float64 {
	progress := pc.advance(name, restart, duration)

	for _, id := range pc.Model.LegIDs() {
		leg := pc.Model.Leg(id)
		for _, j := range leg.Joints {
			if restart {
				j.PrevDesiredPosition = j.CurrentPosition
			}
			start := j.PrevDesiredPosition
			j.SetDesiredPosition(lerp(start, target(j), progress), pc.Params.TimeDelta)
		}
	}
	return progress
}

// StartUpSequence raises the body from packed to standing height while
// keeping at least 3 legs grounded at all times: the two alternating tripod
// groups (even and odd leg index) move their tips to the target height in
// turn, the first group during the first half of the sequence and the
// second during the second half, rather than all at once. Raising the body means
// driving each tip down to body_clearance below the chassis (Y up).
func (pc *PoseController) StartUpSequence(restart bool, duration float64) float64 {
	return pc.raiseOrLower("start_up_sequence", restart, duration, -pc.Params.BodyClearance.CurrentValue)
}

// ShutDownSequence lowers the body back to the ground, the inverse of
// StartUpSequence.
func (pc *PoseController) ShutDownSequence(restart bool, duration float64) float64 {
	return pc.raiseOrLower("shut_down_sequence", restart, duration, 0)
}

func (pc *PoseController) raiseOrLower(name string, restart bool, duration float64, targetHeight float64) float64 {
	progress := pc.advance(name, restart, duration)

	legIDs := pc.Model.LegIDs()
	for i, id := range legIDs {
		leg := pc.Model.Leg(id)
		poser := pc.legPoser(leg)
		if restart {
			poser.CurrentTipPosition = leg.LocalTipPosition
			poser.TargetTipPosition = leg.LocalTipPosition
			poser.TargetTipPosition.Y = targetHeight
		}

		// Alternate which tripod group moves in the first vs second half
		// of the sequence, so at least half the legs stay grounded.
		group := i % 2
		groupProgress := progress
		if group == 0 {
			groupProgress = clampUnit(progress * 2)
		} else {
			groupProgress = clampUnit(progress*2 - 1)
		}

		tip := poser.CurrentTipPosition
		tip.Y = lerp(tip.Y, poser.TargetTipPosition.Y, groupProgress)
		pc.driveTip(leg, poser, tip, progress)
	}
	return progress
}

// StepToNewStance steps every leg into its DefaultTipPosition, the same
// interpolation DirectStartup does but explicitly re-triggerable after a
// parameter change rather than only at boot. DefaultTipPosition is set once
// by model.Build and is not recomputed by a parameter change.
func (pc *PoseController) StepToNewStance(restart bool, duration float64) float64 {
	progress := pc.advance("step_to_new_stance", restart, duration)

	for _, id := range pc.Model.LegIDs() {
		leg := pc.Model.Leg(id)
		poser := pc.legPoser(leg)
		if restart {
			poser.CurrentTipPosition = leg.LocalTipPosition
			poser.TargetTipPosition = leg.Stepper.DefaultTipPosition
		}
		pc.driveTip(leg, poser, lerpVector(poser.CurrentTipPosition, poser.TargetTipPosition, progress), progress)
	}
	return progress
}

// PoseForLegManipulation shifts the body pose to keep the center of mass
// over the remaining support polygon while legID transitions in or out of
// manual control, by biasing CurrentPose's horizontal translation away
// from legID's mount point. The shift is pushed through the legs
// immediately — UpdateStance re-poses every tip and IK re-solves the joint
// targets — because the running pipeline's own stance/IK stage is gated
// off for the whole duration of the toggle.
func (pc *PoseController) PoseForLegManipulation(legID int, restart bool, duration float64) float64 {
	progress := pc.advance("pose_for_leg_manipulation", restart, duration)

	leg := pc.Model.Leg(legID)
	if leg == nil {
		return progress
	}

	shift := leg.Origin.Unit().MultiplyByScalar(-pc.Params.MaxTranslation * 0.5)
	pc.Model.CurrentPose.Position = lerpVector(math3d.ZeroVector3, shift, progress)

	pc.UpdateStance()
	if err := pc.Model.ApplyIK(true, false); err != nil {
		log.Warnf("pose for leg manipulation IK: %s", err)
	}
	return progress
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerpVector(a, b math3d.Vector3, t float64) math3d.Vector3 {
	return math3d.Vector3{
		X: lerp(a.X, b.X, t),
		Y: lerp(a.Y, b.Y, t),
		Z: lerp(a.Z, b.Z, t),
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
