package model

import "github.com/deeplearning2012/syropod-highlevel-controller/math3d"

// LegStepper is a leg's walk sub-state: where it is in its own step cycle,
// and the stride it's currently executing. WalkController owns advancing
// this every tick; Leg just carries it as part of the shared per-leg state.
type LegStepper struct {
	StepState StepState

	SwingProgress  float64
	StanceProgress float64

	CurrentTipPosition math3d.Vector3
	DefaultTipPosition math3d.Vector3
	StrideVector       math3d.Vector3

	// PhaseOffset is this leg's φᵢ within the gait cycle, in the same phase
	// units as the active gait.Gait.
	PhaseOffset float64

	// Phase is the leg's current position within its own step cycle,
	// 0 <= Phase < StancePhase+SwingPhase.
	Phase float64
}
