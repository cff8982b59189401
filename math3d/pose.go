package math3d

import (
	"fmt"
)

// Pose is a rigid transform: a rotation about the origin followed by a
// translation. It replaces the teacher's heading-only Pose so body
// orientation can carry roll, pitch and yaw simultaneously — auto/IMU/
// manual/inclination compensation all contribute to the same Rotation
// rather than each owning a separate scalar.
type Pose struct {
	Position Vector3
	Rotation Quaternion
}

// IdentityPose is the zero transform: no translation, no rotation.
var IdentityPose = Pose{Position: ZeroVector3, Rotation: IdentityQuaternion}

func (p Pose) String() string {
	return fmt.Sprintf("&Pose{pos=%s rot=%s}", p.Position, p.Rotation)
}

// Add composes this pose with another: the result first applies pp, then p.
func (p Pose) Add(pp Pose) Pose {
	return Pose{
		Position: *p.Position.Add(p.Rotation.Rotate(pp.Position)),
		Rotation: p.Rotation.Multiply(pp.Rotation),
	}
}

// Inverse returns the pose that undoes p.
func (p Pose) Inverse() Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: inv.Rotate(p.Position).MultiplyByScalar(-1),
		Rotation: inv,
	}
}

// Transform applies the pose to a point given in the body frame: rotate
// then translate. This is the current_pose ⊗ tip_position operation used
// by PoseController.updateStance to move a leg's local tip position into
// the world frame.
func (p Pose) Transform(v Vector3) Vector3 {
	return *p.Rotation.Rotate(v).Add(p.Position)
}

// InverseTransform undoes Transform: given a point in the world frame,
// returns it back in the body frame. Transform and InverseTransform
// round-trip to the original vector within floating-point tolerance.
func (p Pose) InverseTransform(v Vector3) Vector3 {
	return p.Rotation.Inverse().Rotate(v.Subtract(p.Position))
}
