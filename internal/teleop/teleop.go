// Package teleop is the user input adapter: it reads a sixaxis controller
// and drives StateController's Set* methods, the Go equivalent of the
// joystick/button topics original_source/src/stateController.cpp
// subscribes to. Adapted from the teacher's components/controller/
// controller.go and latch.go — the rising-edge button latch idiom is kept;
// the specific button layout is rewritten against the real input surface
// (system state, gait selection, posing mode, cruise control, parameter
// select/adjust, leg select/toggle, pose reset mode) instead of the
// teacher's single "move the whole body" demo mapping.
package teleop

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/adammck/sixaxis"
	"github.com/deeplearning2012/syropod-highlevel-controller/gait"
	"github.com/deeplearning2012/syropod-highlevel-controller/math3d"
	"github.com/deeplearning2012/syropod-highlevel-controller/params"
	"github.com/deeplearning2012/syropod-highlevel-controller/posecontroller"
	"github.com/deeplearning2012/syropod-highlevel-controller/statecontroller"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "teleop",
})

// maxStickValue is the full-deflection magnitude sixaxis reports on each
// analog axis.
const maxStickValue = 127.0

// gaitCycle is the order the triangle button advances through on each press.
var gaitCycle = []gait.Type{gait.Tripod, gait.Ripple, gait.Wave, gait.Amble}

// Teleop owns a sixaxis reader and the edge latches for every
// press-to-toggle input. Tick is called once per control loop tick, after
// sa.Run has already been started in its own goroutine (the same split the
// teacher uses: sa.Run blocks reading the device, Tick just reads its
// current state).
type Teleop struct {
	sa *sixaxis.SA
	sc *statecontroller.StateController

	startLatch     latch
	selectLatch    latch
	squareLatch    latch
	triangleLatch  latch
	circleLatch    latch
	crossLatch     latch
	l1Latch        latch
	r1Latch        latch
	dpadUpLatch    latch
	dpadDownLatch  latch
	dpadLeftLatch  latch
	dpadRightLatch latch

	gaitIndex        int
	currentSelection params.Selection
	primaryLeg       int
}

// latch fires only on the rising edge of a button press, the same role as
// the teacher's Latch type.
type latch struct {
	held bool
}

func (l *latch) Run(pressed bool) bool {
	r := pressed && !l.held
	l.held = pressed
	return r
}

// New opens a sixaxis reader on r and starts it running.
func New(r io.Reader, sc *statecontroller.StateController) *Teleop {
	t := &Teleop{sa: sixaxis.New(r), sc: sc, primaryLeg: -1}
	go t.sa.Run()
	return t
}

// Tick reads the controller's current state and updates sc accordingly.
func (t *Teleop) Tick(now time.Time) error {
	sa := t.sa

	linear := math3d.Vector3{
		X: axis(sa.LeftStick.X),
		Z: axis(-sa.LeftStick.Y),
	}
	angular := axis(sa.RightStick.X)

	// While the primary leg is under manual control the left stick drives
	// that leg's tip instead of the body.
	if t.sc.PrimaryLegIsManual() {
		t.sc.SetPrimaryTipVelocity(linear.MultiplyByScalar(manualTipSpeed))
		t.sc.SetDesiredVelocity(math3d.ZeroVector3, 0)
	} else {
		t.sc.SetPrimaryTipVelocity(math3d.ZeroVector3)
		t.sc.SetDesiredVelocity(linear, angular)
	}

	if t.dpadLeftLatch.Run(sa.Left > 0) {
		t.cyclePrimaryLeg(-1)
	}
	if t.dpadRightLatch.Run(sa.Right > 0) {
		t.cyclePrimaryLeg(+1)
	}

	if t.startLatch.Run(sa.Start) {
		t.advanceSystemState()
	}

	if t.selectLatch.Run(sa.Select) {
		t.sc.SetCruiseControlMode(!t.sc.CruiseControlMode)
	}

	if t.triangleLatch.Run(sa.Triangle > 0) {
		t.gaitIndex = (t.gaitIndex + 1) % len(gaitCycle)
		t.sc.SetGaitSelection(gaitCycle[t.gaitIndex])
	}

	if t.squareLatch.Run(sa.Square > 0) {
		t.cyclePosingMode()
	}

	if t.circleLatch.Run(sa.Circle > 0) {
		t.cycleParameterSelection()
	}

	if t.l1Latch.Run(sa.L1 > 0) {
		t.sc.SetParameterAdjustment(-1)
	}
	if t.r1Latch.Run(sa.R1 > 0) {
		t.sc.SetParameterAdjustment(+1)
	}
	if sa.L1 == 0 && sa.R1 == 0 {
		t.sc.SetParameterAdjustment(0)
	}

	if t.dpadUpLatch.Run(sa.Up > 0) {
		t.sc.SetPrimaryLegStateToggle()
	}
	if t.dpadDownLatch.Run(sa.Down > 0) {
		t.sc.SetSecondaryLegStateToggle()
	}

	if t.crossLatch.Run(sa.Cross > 0) {
		log.Infof("manual compensation reset requested")
		t.sc.SetDesiredPose(math3d.IdentityPose)
	}

	return nil
}

func axis(v int8) float64 {
	return float64(v) / maxStickValue
}

// manualTipSpeed is the tip velocity (units/s) commanded at full stick
// deflection while a leg is under manual control.
const manualTipSpeed = 50.0

// cyclePrimaryLeg steps the primary leg selection through
// undesignated -> 0 -> 1 -> ... -> N-1 -> undesignated.
func (t *Teleop) cyclePrimaryLeg(direction int) {
	n := t.sc.Model.NumLegs()
	t.primaryLeg += direction
	if t.primaryLeg >= n {
		t.primaryLeg = -1
	}
	if t.primaryLeg < -1 {
		t.primaryLeg = n - 1
	}
	t.sc.SetPrimaryLegSelection(t.primaryLeg)
	log.Infof("primary leg selection: %d", t.primaryLeg)
}

func (t *Teleop) advanceSystemState() {
	switch t.sc.State {
	case statecontroller.Off, statecontroller.Packed:
		t.sc.SetDesiredSystemState(statecontroller.Running)
	default:
		t.sc.SetDesiredSystemState(statecontroller.Off)
	}
}

var posingModeCycle = []posecontroller.PosingMode{
	posecontroller.NoPosing,
	posecontroller.PosingXY,
	posecontroller.PosingPitchRoll,
	posecontroller.PosingZYaw,
}

func (t *Teleop) cyclePosingMode() {
	for i, m := range posingModeCycle {
		if m == t.sc.PosingMode {
			t.sc.SetPosingMode(posingModeCycle[(i+1)%len(posingModeCycle)])
			return
		}
	}
	t.sc.SetPosingMode(posecontroller.NoPosing)
}

var parameterSelectionCycle = []params.Selection{
	params.SelectionNone,
	params.StepFrequency,
	params.StepClearance,
	params.BodyClearance,
	params.LegSpanScale,
	params.VirtualMass,
	params.VirtualStiffness,
	params.VirtualDamping,
	params.ForceGain,
}

func (t *Teleop) cycleParameterSelection() {
	current := 0
	for i, s := range parameterSelectionCycle {
		if s == t.currentSelection {
			current = i
			break
		}
	}
	next := parameterSelectionCycle[(current+1)%len(parameterSelectionCycle)]
	t.currentSelection = next
	t.sc.SetParameterSelection(next)
}
