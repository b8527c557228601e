package types

import "fmt"

// Acceleration selects how the emulator executes guest instructions.
// A snapshot only resumes warm under the same mode it was built with.
type Acceleration string

const (
	AccelSoftware Acceleration = "software" // -accel off, TCG emulation
	AccelHardware Acceleration = "hardware" // -accel on, KVM/HVF
)

// ParseAcceleration accepts the canonical names plus the emulator's own on/off spelling.
func ParseAcceleration(s string) (Acceleration, error) {
	switch s {
	case "software", "sw", "off":
		return AccelSoftware, nil
	case "hardware", "hw", "on":
		return AccelHardware, nil
	default:
		return "", fmt.Errorf("unknown acceleration mode %q (want software or hardware)", s)
	}
}

// EmulatorFlag returns the value passed to the emulator's -accel flag.
func (a Acceleration) EmulatorFlag() string {
	if a == AccelHardware {
		return "on"
	}
	return "off"
}
