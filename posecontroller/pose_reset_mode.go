package posecontroller

import "github.com/deeplearning2012/syropod-highlevel-controller/model"

// Re-exported here so callers of this package don't also need to import
// model for the enum that only PoseController actually interprets.
type ResetMode = model.PoseResetMode

const (
	NoReset           = model.NoReset
	ZAndYawReset      = model.ZAndYawReset
	XAndYReset        = model.XAndYReset
	PitchAndRollReset = model.PitchAndRollReset
	AllReset          = model.AllReset
	ImmediateAllReset = model.ImmediateAllReset
)

// PosingMode gates which axes manual compensation (user desired_pose input)
// is allowed to move.
type PosingMode int

const (
	NoPosing PosingMode = iota
	PosingXY
	PosingPitchRoll
	PosingZYaw
)
