package model

import (
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
)

// Forward kinematics: walk the joint/link chain out from the leg's mount
// point, accumulating one transform per joint the way the teacher chains
// Segment.WorldMatrix calls. Angle conventions match the IK solver's:
// joint 0 is a heading (yaw) rotation, positive toward +X; the remaining
// joints pitch in the leg's vertical plane, positive lifting the tip
// toward +Y. Angles are in degrees, like Joint positions.

// TipPositionFor returns where the given per-joint angles put the tip, in
// the body frame.
func (leg *Leg) TipPositionFor(angles []float64) math3d.Vector3 {
	world := math3d.MakeMatrix44(leg.Origin, *math3d.MakeSingularEulerAngle(math3d.RotationHeading, leg.Yaw))

	prevVec := math3d.ZeroVector3
	for i := range leg.Links {
		var ea *math3d.EulerAngles
		if i == 0 {
			ea = math3d.MakeSingularEulerAngle(math3d.RotationHeading, angles[i])
		} else {
			ea = math3d.MakeSingularEulerAngle(math3d.RotationPitch, -angles[i])
		}
		local := math3d.MakeMatrix44(prevVec, *ea)
		world = math3d.MultiplyMatrices(*local, *world)
		prevVec = *leg.Links[i].Offset.Add(math3d.Vector3{Z: leg.Links[i].Length})
	}

	return prevVec.MultiplyByMatrix44(*world)
}

// AchievedTipPosition is the tip position the current joint targets reach.
func (leg *Leg) AchievedTipPosition() math3d.Vector3 {
	angles := make([]float64, len(leg.Joints))
	for i, j := range leg.Joints {
		angles[i] = j.DesiredPosition
	}
	return leg.TipPositionFor(angles)
}

// MeasuredTipPosition is the tip position the measured joint positions
// imply, the feedback-side counterpart of AchievedTipPosition.
func (leg *Leg) MeasuredTipPosition() math3d.Vector3 {
	angles := make([]float64, len(leg.Joints))
	for i, j := range leg.Joints {
		angles[i] = j.CurrentPosition
	}
	return leg.TipPositionFor(angles)
}
