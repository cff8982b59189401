// Package model is the kinematic tree the rest of the control pipeline
// operates on: legs, their joints and links, and the body's current pose.
// It is grounded on the teacher's components/legs package (Leg, the
// law-of-cosines IK solve in SetGoal, the FK walk in PresentPosition),
// generalized from a single fixed six-legged four-servo-per-leg hexapod to
// an arbitrary leg count and per-leg joint count.
package model

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "model",
})

// Model owns every leg, keyed by id, plus the body's current pose. Leg
// iteration order is stable and meaningful: it's used as the gait phase
// index, so LegIDs returns ids in ascending order rather than map order.
type Model struct {
	legs        map[int]*Leg
	orderedIDs  []int
	CurrentPose math3d.Pose

	// awaitingFeedback is set once a sensor boundary attaches: from then
	// on AllJointsReported gates on real position feedback instead of the
	// seeded construction values.
	awaitingFeedback bool
}

// New builds an empty Model. Legs are added with AddLeg once their joint
// and link geometry is known (from ParameterSet).
func New() *Model {
	return &Model{
		legs:        make(map[int]*Leg),
		CurrentPose: math3d.IdentityPose,
	}
}

// AddLeg registers a leg under its IDNumber. IDNumbers must be unique and
// are not reassigned.
func (m *Model) AddLeg(leg *Leg) error {
	if _, exists := m.legs[leg.IDNumber]; exists {
		return fmt.Errorf("model: duplicate leg id %d", leg.IDNumber)
	}
	m.legs[leg.IDNumber] = leg
	m.orderedIDs = append(m.orderedIDs, leg.IDNumber)
	sort.Ints(m.orderedIDs)
	return nil
}

// Leg returns the leg with the given id, or nil if none is registered.
func (m *Model) Leg(id int) *Leg {
	return m.legs[id]
}

// LegIDs returns every registered leg id, ascending.
func (m *Model) LegIDs() []int {
	return append([]int(nil), m.orderedIDs...)
}

// NumLegs returns the number of registered legs.
func (m *Model) NumLegs() int {
	return len(m.legs)
}

// ManualLegCount returns how many legs are currently in Manual,
// WalkingToManual or ManualToWalking — the quantity the MaxManualLegs
// invariant bounds.
func (m *Model) ManualLegCount() int {
	n := 0
	for _, id := range m.orderedIDs {
		if m.legs[id].IsManual() {
			n++
		}
	}
	return n
}

// ExpectJointFeedback marks that joint positions will arrive from a sensor
// boundary. Until every joint has then reported at least once,
// AllJointsReported returns false and the state machine holds UNKNOWN.
func (m *Model) ExpectJointFeedback() {
	m.awaitingFeedback = true
}

// AllJointsReported reports whether every joint's position is known: always
// true when no sensor boundary is attached (the model's seeded values are
// the only truth there is), otherwise true once each joint has reported.
func (m *Model) AllJointsReported() bool {
	if !m.awaitingFeedback {
		return true
	}
	for _, id := range m.orderedIDs {
		for _, j := range m.legs[id].Joints {
			if !j.Reported {
				return false
			}
		}
	}
	return true
}

// ApplyIK solves every leg's joint chain from its current DesiredTipPosition.
// Legs that fail to solve are reported collectively; callers may choose to
// continue with the legs that did solve (a failed leg keeps its previous
// DesiredPosition values, which the actuator boundary still publishes) or to
// treat it as fatal.
func (m *Model) ApplyIK(constrain bool, debug bool) error {
	var errs []error
	for _, id := range m.orderedIDs {
		if _, err := m.legs[id].ApplyIK(constrain, debug); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("model: %d leg(s) failed IK: %v", len(errs), errs)
	}
	return nil
}
