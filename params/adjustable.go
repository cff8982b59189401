package params

import "fmt"

// AdjustableParameter is a bounded runtime value with a default it can be
// reset to and a step size used by incremental adjust commands. Invariant:
// Min <= Current <= Max, enforced by Set and Adjust.
type AdjustableParameter struct {
	Name         string  `json:"-"`
	CurrentValue float64 `json:"current_value"`
	DefaultValue float64 `json:"default_value"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	AdjustStep   float64 `json:"adjust_step"`
}

// Set clamps value into [Min, Max] and reports whether clamping occurred, so
// callers can log a warning per §7's "parameter clamped to bound" case.
func (p *AdjustableParameter) Set(value float64) (clamped bool) {
	if value < p.Min {
		p.CurrentValue = p.Min
		return true
	}
	if value > p.Max {
		p.CurrentValue = p.Max
		return true
	}
	p.CurrentValue = value
	return false
}

// Adjust moves CurrentValue by AdjustStep in the given direction (+1 or -1)
// and clamps the result.
func (p *AdjustableParameter) Adjust(direction int) (clamped bool) {
	return p.Set(p.CurrentValue + float64(direction)*p.AdjustStep)
}

// Reset restores CurrentValue to DefaultValue.
func (p *AdjustableParameter) Reset() {
	p.CurrentValue = p.DefaultValue
}

func (p AdjustableParameter) String() string {
	return fmt.Sprintf("&Param{%s=%.3f [%.3f..%.3f]}", p.Name, p.CurrentValue, p.Min, p.Max)
}

// Selection names the runtime-tunable subset of parameters reachable
// through the teleop parameter-select/adjust gesture, rather than every
// AdjustableParameter in ParameterSet.
type Selection int

const (
	SelectionNone Selection = iota
	StepFrequency
	StepClearance
	BodyClearance
	LegSpanScale
	VirtualMass
	VirtualStiffness
	VirtualDamping
	ForceGain
)

func (s Selection) String() string {
	switch s {
	case SelectionNone:
		return "NONE"
	case StepFrequency:
		return "STEP_FREQUENCY"
	case StepClearance:
		return "STEP_CLEARANCE"
	case BodyClearance:
		return "BODY_CLEARANCE"
	case LegSpanScale:
		return "LEG_SPAN_SCALE"
	case VirtualMass:
		return "VIRTUAL_MASS"
	case VirtualStiffness:
		return "VIRTUAL_STIFFNESS"
	case VirtualDamping:
		return "VIRTUAL_DAMPING"
	case ForceGain:
		return "FORCE_GAIN"
	default:
		return "UNKNOWN_SELECTION"
	}
}
