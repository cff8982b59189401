// Package params holds the typed, bounded, adjustable configuration the
// rest of the control pipeline is built against. Config loading is
// grounded on gwillem-lerobot-go's pkg/robot/config.go: a plain
// encoding/json load from a file path, no third-party config library — the
// whole retrieval pack reaches for stdlib here too, so that's the idiom
// carried forward rather than introducing one nobody else uses.
package params

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/deeplearning2012/syropod-highlevel-controller/gait"
)

// DefaultConfigFile is used by Load when no explicit path is given.
const DefaultConfigFile = "syropod.json"

// VelocityInputMode selects whether teleop velocity input is interpreted as
// an absolute command or as a throttle toward cruise_control_mode's fixed
// velocity.
type VelocityInputMode int

const (
	VelocityModeReal VelocityInputMode = iota
	VelocityModeThrottle
)

// ParameterSet is every runtime parameter the pipeline reads, loaded once
// at startup and mutated only through AdjustableParameter.Set/Adjust for
// the tunable subset, or by StateController for flags like GaitType.
type ParameterSet struct {
	TimeDelta float64 `json:"time_delta"`

	IMUCompensation         bool `json:"imu_compensation"`
	AutoCompensation        bool `json:"auto_compensation"`
	ManualCompensation      bool `json:"manual_compensation"`
	InclinationCompensation bool `json:"inclination_compensation"`
	ImpedanceControl        bool `json:"impedance_control"`

	IMURotationOffset [3]float64 `json:"imu_rotation_offset"`

	InterfaceSetupSpeed float64 `json:"interface_setup_speed"`
	HexapodType         string  `json:"hexapod_type"`

	Legs []LegConfig `json:"legs"`

	GaitType      gait.Type           `json:"-"`
	GaitTypeName  string              `json:"gait_type"`
	StepFrequency AdjustableParameter `json:"step_frequency"`
	StepClearance AdjustableParameter `json:"step_clearance"`
	StepDepth     float64             `json:"step_depth"`

	BodyClearance AdjustableParameter `json:"body_clearance"`
	LegSpanScale  AdjustableParameter `json:"leg_span_scale"`

	MaxLinearAcceleration  float64 `json:"max_linear_acceleration"`
	MaxAngularAcceleration float64 `json:"max_angular_acceleration"`
	FootprintDownscale     float64 `json:"footprint_downscale"`

	VelocityInputMode     VelocityInputMode `json:"velocity_input_mode"`
	ForceCruiseVelocity   bool              `json:"force_cruise_velocity"`
	LinearCruiseVelocity  [3]float64        `json:"linear_cruise_velocity"`
	AngularCruiseVelocity float64           `json:"angular_cruise_velocity"`

	StartUpSequence bool    `json:"start_up_sequence"`
	TimeToStart     float64 `json:"time_to_start"`

	RotationPIDGains    PIDGains `json:"rotation_pid_gains"`
	TranslationPIDGains PIDGains `json:"translation_pid_gains"`

	AutoCompensationParameters AutoCompensationParameters `json:"auto_compensation_parameters"`

	MaxTranslation         float64 `json:"max_translation"`
	MaxTranslationVelocity float64 `json:"max_translation_velocity"`
	MaxRotation            float64 `json:"max_rotation"`
	MaxRotationVelocity    float64 `json:"max_rotation_velocity"`

	LegManipulationMode string `json:"leg_manipulation_mode"`
	DynamicStiffness    bool   `json:"dynamic_stiffness"`
	UseJointEffort      bool   `json:"use_joint_effort"`

	IntegratorStepTime   float64             `json:"integrator_step_time"`
	VirtualMass          AdjustableParameter `json:"virtual_mass"`
	VirtualStiffness     AdjustableParameter `json:"virtual_stiffness"`
	LoadStiffnessScaler  float64             `json:"load_stiffness_scaler"`
	SwingStiffnessScaler float64             `json:"swing_stiffness_scaler"`
	// VirtualDampingRatio is the VIRTUAL_DAMPING selectable parameter.
	// Damping itself is never set directly: spec.md §4.4 derives it from
	// this ratio plus the current mass/stiffness each impedance step, so
	// adjusting VIRTUAL_DAMPING moves the ratio that formula reads.
	VirtualDampingRatio AdjustableParameter `json:"virtual_damping_ratio"`
	ForceGain           AdjustableParameter `json:"force_gain"`

	// TipForceOffset and MaxTipForce are the constants the original
	// clamps raw sensor readings with before they become Leg.TipForce.
	// Not user-adjustable: see DESIGN.md's "tip-force constants" decision.
	TipForceOffset float64 `json:"tip_force_offset"`
	MaxTipForce    float64 `json:"max_tip_force"`
	MinTipForce    float64 `json:"min_tip_force"`
}

// AutoCompensationParameters are the phase-locked sway amplitudes for
// PoseController's gait-cycle auto-compensation term.
type AutoCompensationParameters struct {
	PitchAmplitude float64 `json:"pitch_amplitude"`
	RollAmplitude  float64 `json:"roll_amplitude"`
	ZAmplitude     float64 `json:"z_amplitude"`
}

// Selected returns the AdjustableParameter a Selection names, or nil for
// SelectionNone / an unrecognized selection.
func (p *ParameterSet) Selected(s Selection) *AdjustableParameter {
	switch s {
	case StepFrequency:
		return &p.StepFrequency
	case StepClearance:
		return &p.StepClearance
	case BodyClearance:
		return &p.BodyClearance
	case LegSpanScale:
		return &p.LegSpanScale
	case VirtualMass:
		return &p.VirtualMass
	case VirtualStiffness:
		return &p.VirtualStiffness
	case VirtualDamping:
		return &p.VirtualDampingRatio
	case ForceGain:
		return &p.ForceGain
	default:
		return nil
	}
}

// Load reads ParameterSet from DefaultConfigFile.
func Load() (*ParameterSet, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom reads and validates ParameterSet from the given path. Missing
// required fields (time_delta, at least one leg) are fatal per spec.md §7.
func LoadFrom(path string) (*ParameterSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s (while reading parameter file %s)", err, path)
	}

	var p ParameterSet
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s (while parsing parameter file %s)", err, path)
	}

	if p.TimeDelta <= 0 {
		return nil, fmt.Errorf("missing required parameter: time_delta")
	}
	if len(p.Legs) == 0 {
		return nil, fmt.Errorf("missing required parameter: legs")
	}

	gt, err := gait.ByName(p.GaitTypeName)
	if err != nil {
		return nil, fmt.Errorf("%s (while resolving gait_type)", err)
	}
	p.GaitType = gt

	p.nameAdjustableParameters()

	return &p, nil
}

// nameAdjustableParameters fills in each selectable AdjustableParameter's
// Name from its own JSON key, since Name itself is never unmarshaled
// (tagged json:"-": the field's own key already says what it is, so
// repeating it inside the object would be redundant in every config file).
func (p *ParameterSet) nameAdjustableParameters() {
	p.StepFrequency.Name = "step_frequency"
	p.StepClearance.Name = "step_clearance"
	p.BodyClearance.Name = "body_clearance"
	p.LegSpanScale.Name = "leg_span_scale"
	p.VirtualMass.Name = "virtual_mass"
	p.VirtualStiffness.Name = "virtual_stiffness"
	p.VirtualDampingRatio.Name = "virtual_damping_ratio"
	p.ForceGain.Name = "force_gain"
}
