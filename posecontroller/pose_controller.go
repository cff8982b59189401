// Package posecontroller computes the body's current pose from several
// additive compensation terms and applies it to each leg's walker tip
// position, and runs the choreographed joint/tip-position moves that take
// the robot between lifecycle states. It has no single teacher analogue;
// the choreography shape (increment a counter, report progress, finalize at
// 1.0) is grounded on the teacher's sStandUp/sSitDown states in
// components/legs/hexapod.go, generalized from one fixed Y-axis raise/lower
// to arbitrary per-leg tip-position and joint-position interpolation.
package posecontroller

import (
	"math"

	"github.com/sirupsen/logrus"
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "posecontroller",
})

// PoseController owns model.Model.CurrentPose and every leg's LegPoser.
type PoseController struct {
	Model  *model.Model
	Params *params.ParameterSet

	ResetMode  ResetMode
	PosingMode PosingMode

	rollPID, pitchPID pidTerm
	xPID, yPID        pidTerm
	zPID, yawPID      pidTerm

	manualCompensation math3d.Pose

	// appliedManualPosition/Yaw are the smoothed manual-posing state the
	// translation/yaw servo loops integrate into.
	appliedManualPosition math3d.Vector3
	appliedManualYaw      float64

	// prevPose is last tick's composed pose, the reference the
	// translation/rotation velocity clamps measure against.
	prevPose math3d.Pose

	// choreography progress, keyed by name so each tracks its own elapsed
	// time independent of the others; reset to 0 whenever a new
	// choreography starts (detected by the caller passing restart=true).
	progress map[string]float64
}

// New builds a PoseController over m.
func New(m *model.Model, p *params.ParameterSet) *PoseController {
	return &PoseController{
		Model:    m,
		Params:   p,
		progress: make(map[string]float64),
		prevPose: math3d.IdentityPose,
	}
}

// SetManualCompensation records the user's desired_pose input, gated by
// PosingMode in ComposePose.
func (pc *PoseController) SetManualCompensation(p math3d.Pose) {
	pc.manualCompensation = p
}

// ComposePose sums every active compensation term into model.CurrentPose,
// clamped by the configured translation/rotation limits. gaitPhase is the
// walk cycle's phase in [0,1) for auto-compensation; imuOrientation and
// averageDeltaZ come from the sensor boundary and ImpedanceController
// respectively.
func (pc *PoseController) ComposePose(gaitPhase float64, imuOrientation math3d.Quaternion, averageDeltaZ float64) math3d.Pose {
	pose := math3d.IdentityPose

	if pc.Params.AutoCompensation {
		pose = pose.Add(pc.autoCompensation(gaitPhase))
	}
	if pc.Params.IMUCompensation {
		pose = pose.Add(pc.imuCompensation(imuOrientation))
	}
	if pc.Params.ManualCompensation {
		pose = pose.Add(pc.smoothedManualCompensation())
	}
	if pc.Params.InclinationCompensation {
		pose = pose.Add(pc.inclinationCompensation(imuOrientation))
	}
	if pc.Params.ImpedanceControl {
		pose = pose.Add(math3d.Pose{Position: math3d.Vector3{Y: averageDeltaZ}, Rotation: math3d.IdentityQuaternion})
	}

	pose = pc.applyResetMode(pose)
	pose = pc.clampPose(pose)
	pose = pc.clampPoseRate(pose)

	pc.Model.CurrentPose = pose
	pc.prevPose = pose
	return pose
}

// clampPoseRate bounds how fast the composed pose may move between
// consecutive ticks, per max_translation_velocity/max_rotation_velocity.
// A zero limit disables that axis's rate clamp; IMMEDIATE_ALL_RESET
// bypasses it entirely, since an immediate reset is an instantaneous set.
func (pc *PoseController) clampPoseRate(pose math3d.Pose) math3d.Pose {
	if pc.ResetMode == ImmediateAllReset {
		return pose
	}

	dt := pc.Params.TimeDelta

	if vmax := pc.Params.MaxTranslationVelocity; vmax > 0 && dt > 0 {
		step := pose.Position.Subtract(pc.prevPose.Position).Clamp(vmax * dt)
		pose.Position = *pc.prevPose.Position.Add(step)
	}

	if rmax := pc.Params.MaxRotationVelocity; rmax > 0 && dt > 0 {
		pr, pp, py := pc.prevPose.Rotation.Euler()
		r, p, y := pose.Rotation.Euler()
		maxStep := rmax * dt
		pose.Rotation = math3d.MakeQuaternionFromEuler(
			pr+clampMagnitude(r-pr, maxStep),
			pp+clampMagnitude(p-pp, maxStep),
			py+clampMagnitude(y-py, maxStep),
		)
	}

	return pose
}

func (pc *PoseController) autoCompensation(gaitPhase float64) math3d.Pose {
	amp := pc.Params.AutoCompensationParameters
	rad := gaitPhase * 2 * math.Pi
	return math3d.Pose{
		Position: math3d.Vector3{Y: amp.ZAmplitude * math.Sin(rad)},
		Rotation: math3d.MakeQuaternionFromEuler(amp.RollAmplitude*math.Sin(rad), amp.PitchAmplitude*math.Cos(rad), 0),
	}
}

func (pc *PoseController) imuCompensation(orientation math3d.Quaternion) math3d.Pose {
	roll, pitch, _ := orientation.Euler()
	dt := pc.Params.TimeDelta

	rollOut := pc.rollPID.step(-roll, pc.Params.RotationPIDGains, dt)
	pitchOut := pc.pitchPID.step(-pitch, pc.Params.RotationPIDGains, dt)

	return math3d.Pose{
		Position: math3d.ZeroVector3,
		Rotation: math3d.MakeQuaternionFromEuler(rollOut, pitchOut, 0),
	}
}

// smoothedManualCompensation servos the applied manual pose toward the
// commanded one instead of snapping: each translation axis (and yaw) runs
// the same absement/position/velocity loop as the IMU rotation terms, in
// velocity form (the loop output is a rate, integrated over the tick).
// Unconfigured all-zero gains fall back to a direct pass-through.
func (pc *PoseController) smoothedManualCompensation() math3d.Pose {
	target := pc.gatedManualCompensation()
	dt := pc.Params.TimeDelta

	tg := pc.Params.TranslationPIDGains
	if zeroGains(tg) {
		pc.appliedManualPosition = target.Position
	} else {
		pc.appliedManualPosition.X += pc.xPID.step(target.Position.X-pc.appliedManualPosition.X, tg, dt) * dt
		pc.appliedManualPosition.Y += pc.yPID.step(target.Position.Y-pc.appliedManualPosition.Y, tg, dt) * dt
		pc.appliedManualPosition.Z += pc.zPID.step(target.Position.Z-pc.appliedManualPosition.Z, tg, dt) * dt
	}

	roll, pitch, targetYaw := target.Rotation.Euler()
	rg := pc.Params.RotationPIDGains
	if zeroGains(rg) {
		pc.appliedManualYaw = targetYaw
	} else {
		pc.appliedManualYaw += pc.yawPID.step(targetYaw-pc.appliedManualYaw, rg, dt) * dt
	}

	return math3d.Pose{
		Position: pc.appliedManualPosition,
		Rotation: math3d.MakeQuaternionFromEuler(roll, pitch, pc.appliedManualYaw),
	}
}

func zeroGains(g params.PIDGains) bool {
	return g.Absement == 0 && g.Position == 0 && g.Velocity == 0
}

func (pc *PoseController) gatedManualCompensation() math3d.Pose {
	switch pc.PosingMode {
	case PosingXY:
		return math3d.Pose{Position: math3d.Vector3{X: pc.manualCompensation.Position.X, Z: pc.manualCompensation.Position.Z}, Rotation: math3d.IdentityQuaternion}
	case PosingZYaw:
		_, _, yaw := pc.manualCompensation.Rotation.Euler()
		return math3d.Pose{Position: math3d.Vector3{Y: pc.manualCompensation.Position.Y}, Rotation: math3d.MakeQuaternionFromEuler(0, 0, yaw)}
	case PosingPitchRoll:
		roll, pitch, _ := pc.manualCompensation.Rotation.Euler()
		return math3d.Pose{Position: math3d.ZeroVector3, Rotation: math3d.MakeQuaternionFromEuler(roll, pitch, 0)}
	default:
		return math3d.IdentityPose
	}
}

func (pc *PoseController) inclinationCompensation(orientation math3d.Quaternion) math3d.Pose {
	roll, pitch, _ := orientation.Euler()
	// Shift the body horizontally uphill by the distance the center of
	// mass overhangs on the measured incline (height * tan(angle)), so
	// the support polygon stays centered under it on a slope.
	height := pc.Params.BodyClearance.CurrentValue
	return math3d.Pose{
		Position: math3d.Vector3{X: -math.Tan(pitch) * height, Z: math.Tan(roll) * height},
		Rotation: math3d.IdentityQuaternion,
	}
}

func (pc *PoseController) applyResetMode(pose math3d.Pose) math3d.Pose {
	switch pc.ResetMode {
	case ZAndYawReset:
		pose.Position.Y = 0
		r, p, _ := pose.Rotation.Euler()
		pose.Rotation = math3d.MakeQuaternionFromEuler(r, p, 0)
	case XAndYReset:
		pose.Position.X = 0
		pose.Position.Z = 0
	case PitchAndRollReset:
		_, _, y := pose.Rotation.Euler()
		pose.Rotation = math3d.MakeQuaternionFromEuler(0, 0, y)
	case AllReset:
		pose = math3d.IdentityPose
	case ImmediateAllReset:
		// An immediate reset discards accumulated loop state too, so
		// nothing springs back the moment the reset mode lifts.
		pose = math3d.IdentityPose
		pc.rollPID.reset()
		pc.pitchPID.reset()
		pc.xPID.reset()
		pc.yPID.reset()
		pc.zPID.reset()
		pc.yawPID.reset()
		pc.appliedManualPosition = math3d.ZeroVector3
		pc.appliedManualYaw = 0
	}
	return pose
}

func (pc *PoseController) clampPose(pose math3d.Pose) math3d.Pose {
	pose.Position = pose.Position.Clamp(pc.Params.MaxTranslation)
	roll, pitch, yaw := pose.Rotation.Euler()
	maxRot := pc.Params.MaxRotation
	pose.Rotation = math3d.MakeQuaternionFromEuler(clampMagnitude(roll, maxRot), clampMagnitude(pitch, maxRot), clampMagnitude(yaw, maxRot))
	return pose
}

// UpdateStance applies model.CurrentPose to every leg's walker tip
// position, writing the result into that leg's LegPoser: leg_poser.
// current_tip_position = current_pose ⊗ leg_stepper.current_tip_position.
func (pc *PoseController) UpdateStance() {
	for _, id := range pc.Model.LegIDs() {
		leg := pc.Model.Leg(id)
		if leg.Poser == nil {
			leg.Poser = &model.LegPoser{}
		}
		posed := pc.Model.CurrentPose.Transform(leg.Stepper.CurrentTipPosition)
		leg.Poser.CurrentTipPosition = posed
		leg.LocalTipPosition = posed
		leg.DesiredTipPosition = posed
	}
}
