package posecontroller

import "github.com/deeplearning2012/syropod-highlevel-controller/params"

// pidTerm accumulates the absement (integral of error) and previous error
// needed to evaluate a three-term absement/position/velocity loop each
// tick, the combination spec.md §4.3 calls for in place of a standard
// PID's integral/proportional/derivative naming.
type pidTerm struct {
	absement float64
	prevErr  float64
	hasPrev  bool
}

// step evaluates the loop for one tick's error and returns the output,
// before any external clamp is applied.
func (t *pidTerm) step(err float64, gains params.PIDGains, dt float64) float64 {
	t.absement += err * dt

	var derivative float64
	if t.hasPrev && dt > 0 {
		derivative = (err - t.prevErr) / dt
	}
	t.prevErr = err
	t.hasPrev = true

	return gains.Absement*t.absement + gains.Position*err + gains.Velocity*derivative
}

func (t *pidTerm) reset() {
	t.absement = 0
	t.prevErr = 0
	t.hasPrev = false
}

func clampMagnitude(v, max float64) float64 {
	if v > max {
		return max
	}
	if v < -max {
		return -max
	}
	return v
}
