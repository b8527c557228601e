package types

// Readiness is the guest boot signal observed on one poll tick. Never persisted.
type Readiness int

const (
	ReadinessUnknown  Readiness = iota // control channel unreachable or errored
	ReadinessNotReady                  // channel answered, guest still booting
	ReadinessReady                     // guest reported boot completed
)

func (r Readiness) String() string {
	switch r {
	case ReadinessReady:
		return "ready"
	case ReadinessNotReady:
		return "not-ready"
	default:
		return "unknown"
	}
}
