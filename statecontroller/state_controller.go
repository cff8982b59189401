// Package statecontroller is the top-level state machine and per-tick
// orchestrator: it gates what the Walk/Pose/Impedance/IK pipeline is
// allowed to do, and is the single place every user and sensor input lands
// before the next tick. It is a direct structural port of
// original_source/src/stateController.cpp's loop/runningState/
// transitionSystemState/adjustParameter/changeGait/legStateToggle, rewritten
// from ROS callbacks into plain Go methods called by the owning process.
package statecontroller

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/deeplearning2012/syropod-highlevel-controller/gait"
	"github.com/deeplearning2012/syropod-highlevel-controller/impedancecontroller"
	"github.com/deeplearning2012/syropod-highlevel-controller/internal/throttle"
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
	"github.com/deeplearning2012/syropod-highlevel-controller/posecontroller"
	"github.com/deeplearning2012/syropod-highlevel-controller/walkcontroller"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "statecontroller",
})

// throttledLog rate-limits the "stopping hexapod to ..." informational
// lines emitted every tick while a gait change, parameter adjust, or leg
// toggle waits on the walker to stop, mirroring ROS_INFO_THROTTLE in
// original_source/src/stateController.cpp.
var throttledLog = throttle.New(log, throttle.DefaultPeriod)

// ActuatorBoundary is the motor-interface adapter contract: publish every
// joint's current DesiredPosition/DesiredVelocity once per tick.
type ActuatorBoundary interface {
	Publish(m *model.Model) error
}

// TelemetryBoundary is the debug/visualization publishing contract.
// Implementations may no-op; spec.md §6 marks the telemetry surface
// omittable.
type TelemetryBoundary interface {
	Publish(sc *StateController) error
}

// legPositionTolerance is the original's 0.01 rad bootstrap check, expressed
// in degrees, the unit Joint positions use.
const legPositionTolerance = 0.01 * 180 / math.Pi

// StateController owns the lifecycle state machine, every user/sensor
// input field, and the four pipeline components it drives each tick.
type StateController struct {
	Model     *model.Model
	Params    *params.ParameterSet
	Walk      *walkcontroller.WalkController
	Pose      *posecontroller.PoseController
	Impedance *impedancecontroller.ImpedanceController
	Actuator  ActuatorBoundary
	Telemetry TelemetryBoundary

	State          SystemState
	NewSystemState SystemState
	transitionFlag bool
	// transitionRestart is true on the first tick of each leg of a
	// multi-tick transition (a journey like PACKED->RUNNING crosses
	// several: unpackLegs to READY, then startUpSequence to RUNNING),
	// so the choreography being driven knows to reset its own progress.
	transitionRestart bool

	// Teleoperation input surface (§6), single-writer-per-field: each
	// Set* method below is the one producer for its field; Tick is the
	// one consumer.
	DesiredLinearVelocity  math3d.Vector3
	DesiredAngularVelocity float64
	PrimaryTipVelocity     math3d.Vector3
	SecondaryTipVelocity   math3d.Vector3
	DesiredPose            math3d.Pose

	PosingMode         posecontroller.PosingMode
	PoseResetMode      posecontroller.ResetMode
	CruiseControlMode  bool
	AutoNavigationMode bool

	gaitSelection  gait.Type
	gaitChangeFlag bool

	parameterSelection  params.Selection
	parameterAdjustment int // -1, 0, +1
	parameterFlag       bool
	// parameterValueApplied marks that adjustParameter has already clamped
	// the new value and re-initialized impedance/walker this transition;
	// the remaining ticks just drive stepToNewStance to completion.
	parameterValueApplied bool

	primaryLegSelection   int
	secondaryLegSelection int
	primaryLegToggle      bool
	secondaryLegToggle    bool

	// legManipulationRestart tracks, per leg id, whether the next
	// poseForLegManipulation call is the first tick of that leg's
	// manual-transition choreography.
	legManipulationRestart map[int]bool
	savedPoseResetMode     posecontroller.ResetMode

	// Sensor input surface.
	imuOrientation math3d.Quaternion
}

// New builds a StateController wired to every pipeline component. It does
// not start the system: the caller must still drive Tick, and the first
// SetDesiredSystemState call resolves WAITING_FOR_USER per spec.md §4.1.
func New(m *model.Model, p *params.ParameterSet, w *walkcontroller.WalkController, pc *posecontroller.PoseController, ic *impedancecontroller.ImpedanceController, actuator ActuatorBoundary, telemetry TelemetryBoundary) *StateController {
	return &StateController{
		Model:                  m,
		Params:                 p,
		Walk:                   w,
		Pose:                   pc,
		Impedance:              ic,
		Actuator:               actuator,
		Telemetry:              telemetry,
		State:                  WaitingForUser,
		NewSystemState:         WaitingForUser,
		gaitSelection:          p.GaitType,
		primaryLegSelection:    -1,
		secondaryLegSelection:  -1,
		legManipulationRestart: make(map[int]bool),
	}
}

// SetDesiredSystemState records the user's target system state. The first
// call after boot captures it as the bootstrap target and leaves
// WAITING_FOR_USER; subsequent calls are ordinary transition requests. Per
// spec.md §4.1's Bootstrap rule, if start_up_sequence is false the
// bootstrap target is rewritten from READY/PACKED to OFF — those states
// only exist as stops along the choreographed startup/shutdown path, which
// is skipped entirely when start_up_sequence is disabled.
func (sc *StateController) SetDesiredSystemState(s SystemState) {
	if sc.State == WaitingForUser {
		if !sc.Params.StartUpSequence && (s == Ready || s == Packed) {
			s = Off
		}
		sc.State = Unknown
	}
	if sc.NewSystemState != s {
		sc.NewSystemState = s
		sc.transitionFlag = true
		sc.transitionRestart = true
	}
}

// SetDesiredVelocity is the teleop (linear, angular) velocity input.
func (sc *StateController) SetDesiredVelocity(linear math3d.Vector3, angular float64) {
	sc.DesiredLinearVelocity = linear
	sc.DesiredAngularVelocity = angular
}

// SetPrimaryTipVelocity/SetSecondaryTipVelocity carry the manual-leg tip
// velocity inputs, consumed by updateManual for whichever leg each slot
// has selected.
func (sc *StateController) SetPrimaryTipVelocity(v math3d.Vector3)   { sc.PrimaryTipVelocity = v }
func (sc *StateController) SetSecondaryTipVelocity(v math3d.Vector3) { sc.SecondaryTipVelocity = v }

// PrimaryLegIsManual reports whether the primary slot has a leg selected
// and that leg is currently under direct user control — the condition for
// rerouting stick input from body velocity to tip velocity.
func (sc *StateController) PrimaryLegIsManual() bool {
	if sc.primaryLegSelection < 0 {
		return false
	}
	leg := sc.Model.Leg(sc.primaryLegSelection)
	return leg != nil && leg.State == model.Manual
}

// SetGaitSelection requests a gait change, applied next tick if the walker
// is stopped (changeGait).
func (sc *StateController) SetGaitSelection(g gait.Type) {
	if g != sc.gaitSelection {
		sc.gaitSelection = g
		sc.gaitChangeFlag = true
	}
}

// SetParameterSelection/SetParameterAdjustment implement the select-then-
// adjust gesture from spec.md §6; adjustment is silently ignored (per §7)
// if no parameter is currently selected.
func (sc *StateController) SetParameterSelection(s params.Selection) {
	sc.parameterSelection = s
}

// A zero direction is "no request" and never changes anything — in
// particular it must not cancel an adjustment already in flight, since the
// input adapter reports 0 every tick the buttons are released.
func (sc *StateController) SetParameterAdjustment(direction int) {
	if sc.parameterSelection == params.SelectionNone || direction == 0 {
		return
	}
	sc.parameterAdjustment = direction
	sc.parameterFlag = true
}

// SetLegSelection/SetLegStateToggle drive manual-leg takeover requests.
func (sc *StateController) SetPrimaryLegSelection(id int)   { sc.primaryLegSelection = id }
func (sc *StateController) SetSecondaryLegSelection(id int) { sc.secondaryLegSelection = id }

func (sc *StateController) SetPrimaryLegStateToggle() {
	if sc.primaryLegSelection >= 0 {
		sc.primaryLegToggle = true
	}
}

func (sc *StateController) SetSecondaryLegStateToggle() {
	if sc.secondaryLegSelection >= 0 {
		sc.secondaryLegToggle = true
	}
}

func (sc *StateController) SetPoseResetMode(m posecontroller.ResetMode) { sc.PoseResetMode = m }
func (sc *StateController) SetPosingMode(m posecontroller.PosingMode)   { sc.PosingMode = m }
func (sc *StateController) SetCruiseControlMode(on bool)                { sc.CruiseControlMode = on }
func (sc *StateController) SetDesiredPose(p math3d.Pose)                { sc.DesiredPose = p }

// SetAutoNavigationMode records the autonomous-navigation toggle. Path
// planning itself lives outside this controller; when enabled, an external
// planner is expected to stream velocity via SetDesiredVelocity, so the
// flag is accepted and surfaced but changes no local behavior.
func (sc *StateController) SetAutoNavigationMode(on bool) {
	if on != sc.AutoNavigationMode {
		log.Infof("auto navigation mode: %t", on)
	}
	sc.AutoNavigationMode = on
}

// SetIMUOrientation is the sensor input surface field this controller
// consumes directly; joint states flow through Model via the sensor
// adapter instead.
func (sc *StateController) SetIMUOrientation(q math3d.Quaternion) { sc.imuOrientation = q }

// Tick is the per-time_delta dispatch described in spec.md §4.1: pose
// update, transition-or-running, then publish.
func (sc *StateController) Tick(now time.Time) error {
	if sc.State == WaitingForUser {
		return nil
	}

	if sc.State == Unknown {
		sc.resolveUnknown()
	}

	if sc.State != Unknown {
		gaitPhase := 0.0
		if sc.Walk != nil && sc.Walk.Gait.Period() > 0 {
			gaitPhase = sc.Model.Leg(sc.Model.LegIDs()[0]).Stepper.Phase / sc.Walk.Gait.Period()
		}
		sc.Pose.PosingMode = sc.PosingMode
		sc.Pose.ResetMode = sc.PoseResetMode
		sc.Pose.SetManualCompensation(sc.DesiredPose)

		avgDeltaZ := sc.averageDeltaZ()
		sc.Pose.ComposePose(gaitPhase, sc.imuOrientation, avgDeltaZ)

		if sc.Params.ImpedanceControl {
			sc.Impedance.UpdateStiffnessForPhase()
			sc.Impedance.Step()
		}
	}

	if sc.transitionFlag {
		if err := sc.transitionStep(); err != nil {
			return err
		}
	} else if sc.State == Running {
		sc.runningPipeline()
	}

	if sc.Actuator != nil {
		if err := sc.Actuator.Publish(sc.Model); err != nil {
			return fmt.Errorf("%s (while publishing joint targets)", err)
		}
	}
	if sc.Telemetry != nil {
		if err := sc.Telemetry.Publish(sc); err != nil {
			log.Warnf("telemetry publish failed: %s", err)
		}
	}

	return nil
}

// resolveUnknown implements the bootstrap joint-position check per
// spec.md §4.1: check BEFORE any joint target is written this tick, not
// after, resolving the original's order-dependent bug (see DESIGN.md).
// When a sensor boundary is attached, resolution waits until every joint
// has reported a position at least once; the inspection below would
// otherwise run against the model's seeded values rather than the robot's
// actual posture.
func (sc *StateController) resolveUnknown() {
	if !sc.Model.AllJointsReported() {
		throttledLog.Infof("holding UNKNOWN until every joint has reported a position...")
		return
	}

	allPacked := true
	for _, id := range sc.Model.LegIDs() {
		for _, j := range sc.Model.Leg(id).Joints {
			if absFloat(j.CurrentPosition-j.PackedPosition) > legPositionTolerance {
				allPacked = false
				break
			}
		}
		if !allPacked {
			break
		}
	}

	switch {
	case allPacked && !sc.Params.StartUpSequence:
		log.Errorf("packed robot detected with start_up_sequence=false; operator intervention required")
		panic("statecontroller: packed robot with start_up_sequence=false")
	case allPacked:
		sc.State = Packed
	case !sc.Params.StartUpSequence:
		sc.State = Off
	default:
		log.Warnf("joints not at packed position but start_up_sequence=true; assuming PACKED")
		sc.State = Packed
	}
}

func (sc *StateController) averageDeltaZ() float64 {
	if sc.Model.NumLegs() == 0 {
		return 0
	}
	sum := 0.0
	for _, id := range sc.Model.LegIDs() {
		sum += sc.Model.Leg(id).DeltaZ
	}
	return sum / float64(sc.Model.NumLegs())
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
