package model

import "github.com/deeplearning2012/syropod-highlevel-controller/math3d"

// Link is a rigid segment between two joints (or between the body origin
// and the first joint). Length is measured along the link's own Z axis,
// the convention carried over from the teacher's coxa/femur/tibia/tarsus
// segments in components/legs/leg.go.
type Link struct {
	Name   string
	Length float64

	// Offset is an additional fixed translation applied before Length, used
	// by the root link to place the leg's origin and heading relative to
	// the body center (the teacher's coxaOffsetY/coxaOffsetZ).
	Offset math3d.Vector3
}
