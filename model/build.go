package model

import (
	"fmt"
	"math"

	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
)

// Build constructs a Model from p's per-leg configuration: one Leg per
// params.LegConfig, its Joints/Links seeded from JointConfig/LinkConfig, and
// its LegStepper's default (resting, walking) tip position derived from the
// leg's stance yaw and span scale — the same "resting stance" geometry the
// original computes once at startup (calculateDefaultPose). Every joint
// starts at its packed_position, matching a cold boot where the robot is
// physically folded until a startup choreography runs.
func Build(p *params.ParameterSet) (*Model, error) {
	m := New()
	for _, lc := range p.Legs {
		leg, err := buildLeg(lc, p)
		if err != nil {
			return nil, fmt.Errorf("%s (while building leg %s)", err, lc.Name)
		}
		if err := m.AddLeg(leg); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func buildLeg(lc params.LegConfig, p *params.ParameterSet) (*Leg, error) {
	if len(lc.Joints) == 0 {
		return nil, fmt.Errorf("leg %s: no joints configured", lc.Name)
	}
	if len(lc.Joints) != len(lc.Links) {
		return nil, fmt.Errorf("leg %s: %d joints but %d links", lc.Name, len(lc.Joints), len(lc.Links))
	}

	leg := &Leg{
		IDNumber:  lc.ID,
		IDName:    lc.Name,
		Origin:    math3d.Vector3{X: lc.OriginX, Y: lc.OriginY, Z: lc.OriginZ},
		Yaw:       lc.StanceYaw,
		TimeDelta: p.TimeDelta,
		State:     Walking,
	}

	for _, jc := range lc.Joints {
		leg.Joints = append(leg.Joints, &Joint{
			Name:                jc.ID,
			ServoID:             jc.ServoID,
			MinPosition:         jc.MinPosition,
			MaxPosition:         jc.MaxPosition,
			MaxAngularSpeed:     jc.MaxAngularSpeed,
			PackedPosition:      jc.PackedPosition,
			UnpackedPosition:    jc.UnpackedPosition,
			PositionOffset:      jc.PositionOffset,
			CurrentPosition:     jc.PackedPosition,
			DesiredPosition:     jc.PackedPosition,
			PrevDesiredPosition: jc.PackedPosition,
		})
	}
	for _, lnk := range lc.Links {
		leg.Links = append(leg.Links, &Link{Name: lnk.ID, Length: lnk.Length})
	}

	reach := 0.0
	for _, l := range leg.Links {
		reach += l.Length
	}

	spanScale := p.LegSpanScale.CurrentValue
	if spanScale == 0 {
		spanScale = 1
	}
	// The resting stance reaches out to a fraction of full extension, along
	// the leg's own stance yaw, the same "don't fully extend at rest"
	// geometry as the teacher's fixed walking tip positions. Tips sit
	// body_clearance below the body origin (Y up), which is what holds the
	// chassis off the ground once IK runs.
	const restRadiusFraction = 0.6
	radius := reach * spanScale * restRadiusFraction
	yawRad := leg.Yaw * math.Pi / 180

	defaultTip := math3d.Vector3{
		X: leg.Origin.X + radius*math.Sin(yawRad),
		Y: -p.BodyClearance.CurrentValue,
		Z: leg.Origin.Z + radius*math.Cos(yawRad),
	}

	leg.Stepper = &LegStepper{
		StepState:          Stance,
		CurrentTipPosition: defaultTip,
		DefaultTipPosition: defaultTip,
	}
	leg.Poser = &LegPoser{
		CurrentTipPosition: defaultTip,
		TargetTipPosition:  defaultTip,
	}
	leg.LocalTipPosition = defaultTip
	leg.DesiredTipPosition = defaultTip
	leg.VirtualStiffness = p.VirtualStiffness.CurrentValue

	return leg, nil
}
