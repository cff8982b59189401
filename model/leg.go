package model

import "github.com/deeplearning2012/syropod-highlevel-controller/math3d"

// Leg is one leg's full kinematic and control state: its joint chain, its
// walk and pose sub-states, and the handful of scalars the pipeline threads
// through Walk -> Pose -> Impedance -> IK each tick. Grounded on the
// teacher's components/legs/leg.go Leg type, generalized from a fixed
// four-servo leg to an arbitrary joint count per IDNumber (leg_DOF[id]).
type Leg struct {
	IDNumber int
	IDName   string

	// Origin is this leg's mount point in the body frame; Yaw is its home
	// heading, the same role as the teacher's Leg.Angle.
	Origin math3d.Vector3
	Yaw    float64

	Joints []*Joint
	Links  []*Link

	Stepper *LegStepper
	Poser   *LegPoser

	State LegState

	LocalTipPosition   math3d.Vector3
	DesiredTipPosition math3d.Vector3

	DeltaZ           float64
	TipForce         float64
	VirtualStiffness float64

	// TimeDelta is the fixed tick period, copied in from ParameterSet so
	// Joint.SetDesiredPosition can derive DesiredVelocity without every
	// caller threading it through separately.
	TimeDelta float64
}

// DOF returns the number of joints in this leg's chain.
func (leg *Leg) DOF() int {
	return len(leg.Joints)
}

// ApplyIK solves the joint chain for DesiredTipPosition and writes each
// joint's DesiredPosition (and, through it, DesiredVelocity), returning
// the tip position the written targets actually reach (which differs from
// the request when a joint limit clamps the solution). constrain clamps
// the solution to each joint's position limits; debug logs the solve.
// This is the only entry point into the leg's IK solve — callers never
// reach into ik.go directly; forward kinematics is exposed separately by
// TipPositionFor, AchievedTipPosition and MeasuredTipPosition.
func (leg *Leg) ApplyIK(constrain bool, debug bool) (math3d.Vector3, error) {
	if err := leg.applyIK(constrain, debug); err != nil {
		return leg.LocalTipPosition, err
	}
	achieved := leg.AchievedTipPosition()
	leg.LocalTipPosition = achieved
	return achieved, nil
}

// IsManual reports whether this leg is under direct user control right now
// (fully or mid-transition).
func (leg *Leg) IsManual() bool {
	switch leg.State {
	case Manual, WalkingToManual, ManualToWalking:
		return true
	default:
		return false
	}
}
