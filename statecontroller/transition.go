package statecontroller

import (
	"fmt"
)

// transitionStep drives one tick of the current journey from sc.State
// toward sc.NewSystemState, per spec.md §4.1's transition table. A journey
// that crosses more than one edge (PACKED -> RUNNING, say) is driven one
// edge per call: each edge either completes instantly or is paced by a
// PoseController choreography's progress, and reaching an edge's arrival
// state simply starts the next edge on the following tick.
func (sc *StateController) transitionStep() error {
	from, to := sc.State, sc.NewSystemState
	if from == to {
		sc.transitionFlag = false
		return nil
	}

	restart := sc.transitionRestart
	sc.transitionRestart = false
	unpackDuration := 2.0 / sc.Params.StepFrequency.CurrentValue

	switch {
	case from == Off && to == Running && !sc.Params.StartUpSequence:
		sc.arriveAt(sc.Pose.DirectStartup(restart, sc.Params.TimeToStart), Running)

	case from == Off && sc.Params.StartUpSequence && (to == Packed || to == Ready || to == Running):
		// Instantaneous to PACKED; later edges from PACKED carry the
		// journey the rest of the way.
		log.Infof("system state: OFF -> PACKED (controller on)")
		sc.State = Packed
		sc.transitionRestart = true

	case from == Packed && to == Off:
		log.Infof("system state: PACKED -> OFF (controller suspended)")
		sc.State = Off

	case from == Packed && (to == Ready || to == Running):
		sc.arriveAt(sc.Pose.UnpackLegs(restart, unpackDuration), Ready)

	case from == Ready && (to == Packed || to == Off):
		sc.arriveAt(sc.Pose.PackLegs(restart, unpackDuration), to)

	case from == Ready && to == Running:
		sc.arriveAt(sc.Pose.StartUpSequence(restart, sc.Params.TimeToStart), Running)

	case from == Running && to == Off && !sc.Params.StartUpSequence:
		log.Infof("system state: RUNNING -> OFF")
		sc.State = Off

	case from == Running && sc.Params.StartUpSequence && (to == Ready || to == Packed || to == Off):
		// Always lands on READY first; further edges from READY continue
		// the journey.
		sc.arriveAt(sc.Pose.ShutDownSequence(restart, sc.Params.TimeToStart), Ready)

	default:
		log.Errorf("undefined system state transition requested: %s -> %s", from, to)
		panic(fmt.Sprintf("statecontroller: undefined transition %s -> %s", from, to))
	}

	if sc.State == sc.NewSystemState {
		sc.transitionFlag = false
	}
	return nil
}

// arriveAt sets sc.State to arrival once progress reaches 1.0, and arms
// transitionRestart for whatever edge starts next. Below 1.0 it just lets
// the in-flight choreography keep running next tick.
func (sc *StateController) arriveAt(progress float64, arrival SystemState) {
	if progress >= 1.0 {
		log.Infof("system state: reached %s", arrival)
		sc.State = arrival
		sc.transitionRestart = true
	}
}
