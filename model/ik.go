package model

import (
	"fmt"
	"math"

	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/utils"
)

// applyIK is model's single analytic/iterative inverse kinematics solve,
// generalized from the teacher's SetGoal (components/legs/leg.go), which
// hard-codes exactly four segments (coxa/femur/tibia/tarsus). Joint 0 is
// always treated as a yaw joint at the leg's root, solved exactly the way
// the teacher solves the coxa: 2D trig on the horizontal plane. The
// remaining len(Joints)-1 joints are treated as a planar chain pitching in
// the vertical plane that contains the leg and the target; for exactly
// three of them (the teacher's femur/tibia/tarsus shape) the same
// law-of-cosines triangle solve as the teacher is used verbatim, since it's
// an exact solution for that configuration. For any other joint count the
// planar chain is solved with cyclic coordinate descent (CCD), the standard
// iterative fallback when there's no closed-form solution for the number of
// links involved.
func (leg *Leg) applyIK(constrain bool, debug bool) error {
	if len(leg.Joints) == 0 {
		return fmt.Errorf("leg %s: no joints", leg.IDName)
	}
	if len(leg.Joints) != len(leg.Links) {
		return fmt.Errorf("leg %s: %d joints but %d links", leg.IDName, len(leg.Joints), len(leg.Links))
	}

	target := leg.DesiredTipPosition

	root := leg.Links[0]
	yawPos := utils.Deg(math.Atan2(target.X-leg.Origin.X, target.Z-leg.Origin.Z)) - leg.Yaw

	if math.IsNaN(yawPos) {
		return fmt.Errorf("leg %s: invalid root yaw for target %s", leg.IDName, target)
	}

	rootEnd := leg.Origin.Add(math3d.Vector3{Y: root.Offset.Y, Z: root.Offset.Z + root.Length})

	pitchLinks := leg.Links[1:]
	lengths := make([]float64, len(pitchLinks))
	for i, l := range pitchLinks {
		lengths[i] = l.Length
	}

	// Collapse the problem to 2D: r is horizontal distance from the coxa
	// joint to the target (in the plane fixed by yawPos), z is vertical
	// drop. This mirrors the teacher's comment that everything past the
	// coxa lives on a single (z,y) plane once the coxa's rotation is fixed.
	dx := target.X - rootEnd.X
	dz := target.Z - rootEnd.Z
	r := math.Hypot(dx, dz)
	z := target.Y - rootEnd.Y

	var pitchAngles []float64
	var err error
	if len(lengths) == 3 {
		pitchAngles, err = solveTriangleChain(lengths[0], lengths[1], lengths[2], r, z)
	} else {
		pitchAngles, err = solveCCD(lengths, r, z)
	}
	if err != nil {
		return fmt.Errorf("leg %s: %s", leg.IDName, err)
	}

	leg.Joints[0].SetDesiredPosition(clampOrPass(yawPos, leg.Joints[0], constrain), leg.TimeDelta)
	for i, a := range pitchAngles {
		leg.Joints[i+1].SetDesiredPosition(clampOrPass(a, leg.Joints[i+1], constrain), leg.TimeDelta)
	}

	if debug {
		log.Debugf("%s ik: target=%s yaw=%+.2f pitch=%v", leg.IDName, target, yawPos, pitchAngles)
	}

	return nil
}

func clampOrPass(pos float64, j *Joint, constrain bool) float64 {
	if !constrain {
		return pos
	}
	if pos < j.MinPosition {
		return j.MinPosition
	}
	if pos > j.MaxPosition {
		return j.MaxPosition
	}
	return pos
}

// solveTriangleChain is the teacher's exact three-link analytic solve,
// generalized only in variable naming: a/b/c are link lengths (femur,
// tibia, tarsus in the teacher), r/z locate the target relative to the
// coxa joint in the vertical plane.
func solveTriangleChain(a, b, c, r, z float64) ([]float64, error) {
	vr := math3d.Vector3{}
	vt := math3d.Vector3{Y: z, Z: r}

	vp := *vr.Add(math3d.Vector3{Y: -50})
	vq := *vt.Add(math3d.Vector3{Y: c})

	d := vr.Distance(vq)
	e := vr.Distance(vt)
	f := vr.Distance(vp)
	g := vp.Distance(vt)

	aa := sss(b, a, d)
	bb := sss(c, d, e)
	cc := sss(g, e, f)
	dd := sss(a, d, b)
	ee := sss(e, c, d)
	hh := 180 - (aa + dd)

	firstPitch := 90 - (aa + bb + cc)
	secondPitch := 180 - hh
	thirdPitch := 180 - (dd + ee)

	for _, v := range []float64{firstPitch, secondPitch, thirdPitch} {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("target out of reach for triangle chain (a=%.1f b=%.1f c=%.1f r=%.1f z=%.1f)", a, b, c, r, z)
		}
	}

	return []float64{firstPitch, secondPitch, thirdPitch}, nil
}

// sss returns the angle (degrees) opposite side a, given all three side
// lengths, via the law of cosines.
func sss(a, b, c float64) float64 {
	return utils.Deg(math.Acos(((b * b) + (c * c) - (a * a)) / (2 * b * c)))
}

// solveCCD iteratively bends a chain of len(lengths) links, all pivoting in
// the same (r,z) plane from a shared root at the origin, until its tip
// reaches (r, z) or the iteration budget is spent. Used for any leg whose
// pitch-joint count isn't the teacher's fixed three.
func solveCCD(lengths []float64, r, z float64) ([]float64, error) {
	n := len(lengths)
	if n == 0 {
		return nil, fmt.Errorf("no pitch joints to solve")
	}

	reach := 0.0
	for _, l := range lengths {
		reach += l
	}
	target := math3d.Vector3{Y: z, Z: r}
	if target.Magnitude() > reach {
		return nil, fmt.Errorf("target beyond reach (%.1f > %.1f)", target.Magnitude(), reach)
	}

	angles := make([]float64, n)
	joints := make([]math3d.Vector3, n+1)

	rebuild := func() {
		pos := math3d.ZeroVector3
		heading := 0.0
		joints[0] = pos
		for i := 0; i < n; i++ {
			heading += angles[i]
			pos = *pos.Add(math3d.Vector3{
				Y: lengths[i] * math.Sin(utils.Rad(heading)),
				Z: lengths[i] * math.Cos(utils.Rad(heading)),
			})
			joints[i+1] = pos
		}
	}
	rebuild()

	const maxIterations = 64
	const tolerance = 0.05
	for iter := 0; iter < maxIterations; iter++ {
		tip := joints[n]
		if tip.Distance(target) < tolerance {
			break
		}

		for i := n - 1; i >= 0; i-- {
			pivot := joints[i]
			toTip := joints[n].Subtract(pivot)
			toTarget := target.Subtract(pivot)

			a1 := math.Atan2(toTip.Z, toTip.Y)
			a2 := math.Atan2(toTarget.Z, toTarget.Y)
			delta := utils.Deg(a2 - a1)

			angles[i] += delta
			rebuild()
		}
	}

	return angles, nil
}
