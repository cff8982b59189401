package model

import "github.com/deeplearning2012/syropod-highlevel-controller/math3d"

// PoseResetMode selects which axes of current_pose get driven back toward
// IdentityPose by PoseController, independent of the auto/IMU/manual
// compensation terms that are still being summed in.
type PoseResetMode int

const (
	NoReset PoseResetMode = iota
	ZAndYawReset
	XAndYReset
	PitchAndRollReset
	AllReset
	ImmediateAllReset
)

func (m PoseResetMode) String() string {
	switch m {
	case NoReset:
		return "NO_RESET"
	case ZAndYawReset:
		return "Z_AND_YAW_RESET"
	case XAndYReset:
		return "X_AND_Y_RESET"
	case PitchAndRollReset:
		return "PITCH_AND_ROLL_RESET"
	case AllReset:
		return "ALL_RESET"
	case ImmediateAllReset:
		return "IMMEDIATE_ALL_RESET"
	default:
		return "UNKNOWN_RESET_MODE"
	}
}

// LegPoser is a leg's pose sub-state, used by PoseController's choreographies
// (directStartup, packLegs, stepToNewStance, poseForLegManipulation, ...) to
// interpolate a leg's tip position toward a target over a bounded duration.
type LegPoser struct {
	CurrentTipPosition math3d.Vector3
	TargetTipPosition  math3d.Vector3
	TransitionProgress float64
}
