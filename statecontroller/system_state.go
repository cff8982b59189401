package statecontroller

// SystemState is the top-level lifecycle state. Ported from
// original_source/include/simple_hexapod_controller/stateController.h's
// SystemState enum.
type SystemState int

const (
	WaitingForUser SystemState = iota
	Unknown
	Off
	Packed
	Ready
	Running
	Suspended
)

func (s SystemState) String() string {
	switch s {
	case WaitingForUser:
		return "WAITING_FOR_USER"
	case Unknown:
		return "UNKNOWN"
	case Off:
		return "OFF"
	case Packed:
		return "PACKED"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Suspended:
		return "SUSPENDED"
	default:
		return "UNKNOWN_SYSTEM_STATE"
	}
}
