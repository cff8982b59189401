// Package actuator is the Dynamixel servo bus adapter: the statecontroller.
// ActuatorBoundary implementation that turns a Model's per-joint
// DesiredPosition into real servo commands. Adapted from the teacher's
// servos/servos.go (pool registration, buffered-write idiom, torque-enable
// sequencing) and components/legs/leg.go's mustGetServo, generalized from a
// fixed four-servo leg to Model's arbitrary per-leg joint count.
package actuator

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/adammck/dynamixel/network"
	"github.com/adammck/dynamixel/servo"
	"github.com/adammck/dynamixel/servo/ax"
	"github.com/deeplearning2012/syropod-highlevel-controller/model"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "actuator",
})

// Actuator owns one servo per model.Joint, addressed by Joint.ServoID, and
// publishes DesiredPosition to the bus once per tick inside a buffered
// ACTION batch, the same "set every servo, then fire ACTION once" idiom as
// the teacher's utils.Sync.
type Actuator struct {
	Network *network.Network
	servos  map[int]*servo.Servo // keyed by ServoID
}

// New pings and arms one servo per joint in m, in leg/joint order, and
// returns an Actuator ready to Publish. setupSpeed is the MovingSpeed every
// servo is armed with (the teacher hard-codes 1023; the original source
// exposes it as interface_setup_speed).
func New(m *model.Model, n *network.Network, setupSpeed int) (*Actuator, error) {
	a := &Actuator{Network: n, servos: make(map[int]*servo.Servo)}

	for _, id := range m.LegIDs() {
		leg := m.Leg(id)
		for _, j := range leg.Joints {
			s, err := newServo(n, j.ServoID, setupSpeed)
			if err != nil {
				return nil, fmt.Errorf("%s (while arming leg %s joint %s, servo #%d)", err, leg.IDName, j.Name, j.ServoID)
			}
			a.servos[j.ServoID] = s
		}
	}

	return a, nil
}

func newServo(n *network.Network, id int, setupSpeed int) (*servo.Servo, error) {
	s, err := ax.New(n, id)
	if err != nil {
		return nil, err
	}

	// Don't bother sending ACKs for writes; do this first so the servo is
	// in the expected state before any other command.
	if err := s.SetReturnLevel(1); err != nil {
		return nil, fmt.Errorf("%s (while setting return level)", err)
	}
	if err := s.Ping(); err != nil {
		return nil, fmt.Errorf("%s (while pinging)", err)
	}
	if err := s.SetReturnDelayTime(0); err != nil {
		return nil, fmt.Errorf("%s (while setting return delay)", err)
	}
	if err := s.SetTorqueEnable(true); err != nil {
		return nil, fmt.Errorf("%s (while enabling torque)", err)
	}
	if err := s.SetMovingSpeed(setupSpeed); err != nil {
		return nil, fmt.Errorf("%s (while setting move speed)", err)
	}

	// Buffer all subsequent writes; Publish fires ACTION once per tick.
	s.SetBuffered(true)

	return s, nil
}

// Publish writes every joint's DesiredPosition to its servo, then fires a
// single ACTION to apply them all at once. Joints whose ServoID has no
// matching servo (never registered by New) are skipped rather than failing
// the whole tick, since a single bad joint shouldn't stall the others.
func (a *Actuator) Publish(m *model.Model) error {
	var errs []error
	for _, id := range m.LegIDs() {
		leg := m.Leg(id)
		for _, j := range leg.Joints {
			s, ok := a.servos[j.ServoID]
			if !ok {
				continue
			}
			if err := s.MoveTo(j.DesiredPosition + j.PositionOffset); err != nil {
				errs = append(errs, fmt.Errorf("%s (leg %s joint %s)", err, leg.IDName, j.Name))
			}
		}
	}

	a.Network.Action()

	if len(errs) > 0 {
		return fmt.Errorf("actuator: %d joint write(s) failed: %v", len(errs), errs)
	}
	return nil
}

// PresentPositions reads every registered servo's present angle, returning
// parallel name/position arrays in leg/joint order for the sensor
// boundary. This reads each servo over the bus, so call it at boot, not in
// the tick loop.
func (a *Actuator) PresentPositions(m *model.Model) ([]string, []float64, error) {
	var names []string
	var positions []float64
	for _, id := range m.LegIDs() {
		leg := m.Leg(id)
		for _, j := range leg.Joints {
			s, ok := a.servos[j.ServoID]
			if !ok {
				continue
			}
			angle, err := s.Angle()
			if err != nil {
				return nil, nil, fmt.Errorf("%s (while reading leg %s joint %s (#%d) position)", err, leg.IDName, j.Name, j.ServoID)
			}
			names = append(names, j.Name)
			positions = append(positions, angle)
		}
	}
	return names, positions, nil
}

// Shutdown de-energizes every servo, matching the teacher's Shutdown
// (called once before the process exits so the robot doesn't stay powered
// up holding a pose indefinitely).
func (a *Actuator) Shutdown() {
	for id, s := range a.servos {
		if err := s.SetTorqueEnable(false); err != nil {
			log.Warnf("servo #%d: torque disable failed: %s", id, err)
		}
		if err := s.SetLED(false); err != nil {
			log.Warnf("servo #%d: LED off failed: %s", id, err)
		}
	}
}
