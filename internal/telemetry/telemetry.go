// Package telemetry is the debug/visualization publishing boundary:
// per-tick leg state, body pose, IMU, and velocity, the same information
// original_source/src/stateController.cpp's publishLegState/publishPose/
// publishIMUData/publishBodyVelocity emit onto ROS topics. There's no ROS
// here, so Publish logs two structured entries per leg (leg state and load
// state) plus one for the body, all tagged with a shared frame id
// (github.com/google/uuid) so a log aggregator can group one tick's lines
// back together the way a ROS message header.stamp would.
//
// publishLegState in the original declares a second local msg for the
// swing-or-non-walking boolean that shadows the per-leg state msg. This is
// rewritten with distinctly-named values (legMsg and ascMsg per leg,
// bodyMsg once per tick) instead of one reused name, so that mistake has no
// equivalent here.
package telemetry

import (
	"github.com/sirupsen/logrus"
	"github.com/google/uuid"

	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/statecontroller"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "telemetry",
})

// Telemetry implements statecontroller.TelemetryBoundary by logging
// structured per-tick state. It never returns an error: a telemetry
// failure should never stall the control loop (spec.md §6 marks the
// surface omittable).
type Telemetry struct{}

// New builds a Telemetry publisher.
func New() *Telemetry {
	return &Telemetry{}
}

type legMsg struct {
	frame             string
	name              string
	localTipPosition  string
	poserTipPosition  string
	walkerTipPosition string
	swingProgress     float64
	stanceProgress    float64
	tipForce          float64
	deltaZ            float64
	virtualStiffness  float64
}

type bodyMsg struct {
	frame                  string
	position               string
	rotation               string
	desiredLinearVelocity  string
	desiredAngularVelocity float64
}

// Publish logs one legMsg per leg and one bodyMsg for the whole robot, all
// sharing a single frame id.
func (t *Telemetry) Publish(sc *statecontroller.StateController) error {
	frame := uuid.NewString()

	for _, id := range sc.Model.LegIDs() {
		leg := sc.Model.Leg(id)
		lm := legMsg{
			frame:            frame,
			name:             leg.IDName,
			localTipPosition: leg.LocalTipPosition.String(),
			tipForce:         leg.TipForce,
			deltaZ:           leg.DeltaZ,
			virtualStiffness: leg.VirtualStiffness,
		}
		if leg.Poser != nil {
			lm.poserTipPosition = leg.Poser.CurrentTipPosition.String()
		}
		if leg.Stepper != nil {
			lm.walkerTipPosition = leg.Stepper.CurrentTipPosition.String()
			lm.swingProgress = leg.Stepper.SwingProgress
			lm.stanceProgress = leg.Stepper.StanceProgress
		}

		log.WithFields(logrus.Fields{
			"frame":               lm.frame,
			"leg":                 lm.name,
			"local_tip_position":  lm.localTipPosition,
			"poser_tip_position":  lm.poserTipPosition,
			"walker_tip_position": lm.walkerTipPosition,
			"swing_progress":      lm.swingProgress,
			"stance_progress":     lm.stanceProgress,
			"tip_force":           lm.tipForce,
			"delta_z":             lm.deltaZ,
			"virtual_stiffness":   lm.virtualStiffness,
		}).Debug("leg state")

		// External gait synchronization wants one boolean per leg:
		// airborne or otherwise not load-bearing. Published as its own
		// distinctly-named value, never reusing the leg-state message.
		ascMsg := leg.State != model.Walking ||
			(leg.Stepper != nil && leg.Stepper.StepState == model.Swing)
		log.WithFields(logrus.Fields{
			"frame":                frame,
			"leg":                  lm.name,
			"swing_or_non_walking": ascMsg,
		}).Debug("leg load state")
	}

	bm := bodyMsg{
		frame:                  frame,
		position:               sc.Model.CurrentPose.Position.String(),
		rotation:               sc.Model.CurrentPose.Rotation.String(),
		desiredLinearVelocity:  sc.DesiredLinearVelocity.String(),
		desiredAngularVelocity: sc.DesiredAngularVelocity,
	}
	log.WithFields(logrus.Fields{
		"frame":                    bm.frame,
		"position":                 bm.position,
		"rotation":                 bm.rotation,
		"desired_linear_velocity":  bm.desiredLinearVelocity,
		"desired_angular_velocity": bm.desiredAngularVelocity,
		"system_state":             sc.State.String(),
	}).Debug("body state")

	return nil
}
