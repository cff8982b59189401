// Package sensor is the inbound half of the actuator boundary: it turns raw
// joint feedback, tip-force and IMU readings into updates on Model and
// StateController, the same job original_source/src/stateController.cpp's
// jointStatesCallback/tipForceCallback/imuCallback do for their ROS topics.
// There's no single teacher file this is grounded on (the teacher never
// reads servo state back mid-tick); the per-field assignments mirror
// original_source directly. The boot-time present-position read that feeds
// ApplyJointStates lives in internal/actuator (PresentPositions).
package sensor

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
	"github.com/deeplearning2012/syropod-highlevel-controller/statecontroller"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "sensor",
})

// Sensor applies raw readings onto the Model and StateController it's built
// with.
type Sensor struct {
	Model  *model.Model
	Params *params.ParameterSet
	State  *statecontroller.StateController

	imuRotationOffset math3d.Quaternion
}

// New builds a Sensor wired to m/p/sc. The IMU rotation offset is fixed at
// construction from the configured physical mounting, the same one-time
// setup as the original's per-tick euler_offset build (computed once here
// instead of every callback, since imu_rotation_offset never changes at
// runtime).
func New(m *model.Model, p *params.ParameterSet, sc *statecontroller.StateController) *Sensor {
	m.ExpectJointFeedback()
	return &Sensor{
		Model:  m,
		Params: p,
		State:  sc,
		imuRotationOffset: math3d.MakeQuaternionFromEuler(
			p.IMURotationOffset[0], p.IMURotationOffset[1], p.IMURotationOffset[2],
		),
	}
}

// ApplyJointStates is the parallel-array form the joint-state bus delivers:
// names and positions always line up; velocities/efforts are optional and
// only consumed when their array is non-empty, per spec.md §7's transient
// handling ("proceed with the fields present"). Unknown joint names are
// skipped with a warning rather than failing the whole message.
func (s *Sensor) ApplyJointStates(names []string, positions, velocities, efforts []float64) {
	for i, name := range names {
		if i >= len(positions) {
			return
		}
		var velocity, effort *float64
		if i < len(velocities) {
			velocity = &velocities[i]
		}
		if i < len(efforts) {
			effort = &efforts[i]
		}
		if err := s.ApplyJointState(name, positions[i], velocity, effort); err != nil {
			log.Warnf("%s", err)
		}
	}
}

// ApplyJointState assigns one joint's feedback by name, the per-entry body
// of jointStatesCallback's loop. position is raw (pre position_offset
// subtraction); velocity/effort are optional and left untouched (zero) by
// the caller when unavailable, as the original treats a zero-length
// velocity/effort array as "not reported".
func (s *Sensor) ApplyJointState(name string, position float64, velocity *float64, effort *float64) error {
	for _, id := range s.Model.LegIDs() {
		leg := s.Model.Leg(id)
		for _, j := range leg.Joints {
			if j.Name != name {
				continue
			}
			j.CurrentPosition = position - j.PositionOffset
			j.Reported = true
			if velocity != nil {
				j.CurrentVelocity = *velocity
			}
			if effort != nil {
				j.CurrentEffort = *effort
				if s.Params.UseJointEffort && j == leg.Joints[loadBearingJointIndex(leg)] {
					leg.TipForce = clamp(*effort, s.Params.MinTipForce, s.Params.MaxTipForce)
				}
			}
			return nil
		}
	}
	return fmt.Errorf("sensor: no joint named %q", name)
}

// loadBearingJointIndex picks the joint whose measured effort stands in
// for tip force when use_joint_effort is set: the first pitch joint (the
// femur-analog), which carries the leg's share of body weight most
// directly. Falls back to the root joint on a one-joint leg.
func loadBearingJointIndex(leg *model.Leg) int {
	if len(leg.Joints) > 1 {
		return 1
	}
	return 0
}

// ApplyTipForces assigns every leg's tip force from the raw sensor array,
// which carries two values per leg with the reading of interest at
// raw[2*id]. Legs whose slot is missing are left at their previous value.
func (s *Sensor) ApplyTipForces(raw []float64) {
	for _, id := range s.Model.LegIDs() {
		idx := 2 * id
		if idx >= len(raw) {
			continue
		}
		if err := s.ApplyTipForce(id, raw[idx]); err != nil {
			log.Warnf("%s", err)
		}
	}
}

// ApplyTipForce assigns one leg's raw tip force reading, clamped to
// [min_tip_force, max_tip_force] after subtracting tip_force_offset, per
// tipForceCallback.
func (s *Sensor) ApplyTipForce(legID int, rawForce float64) error {
	leg := s.Model.Leg(legID)
	if leg == nil {
		return fmt.Errorf("sensor: no leg id %d", legID)
	}
	leg.TipForce = clamp(rawForce-s.Params.TipForceOffset, s.Params.MinTipForce, s.Params.MaxTipForce)
	return nil
}

// ApplyIMU rotates the raw orientation/acceleration/angular velocity by the
// configured mounting offset and forwards the orientation to
// StateController, per imuCallback. Acceleration and angular velocity are
// accepted for symmetry with the original signature but, like the
// PoseController they'd feed (an inclination-compensation refinement the
// original never finishes — see original_source's TBD comment above
// imuCallback), aren't consumed downstream yet.
func (s *Sensor) ApplyIMU(rawOrientation math3d.Quaternion, rawLinearAccel, rawAngularVelocity math3d.Vector3) {
	orientation := s.imuRotationOffset.Multiply(rawOrientation).Multiply(s.imuRotationOffset.Inverse())
	s.State.SetIMUOrientation(orientation)
	log.Debugf("imu: accel=%s angular_velocity=%s", s.imuRotationOffset.Rotate(rawLinearAccel), s.imuRotationOffset.Rotate(rawAngularVelocity))
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
