package supervisor

import "errors"

// Failure kinds. Every one is terminal for a run; retry policy belongs to the caller.
var (
	ErrLaunch             = errors.New("launch failure")
	ErrProcessDied        = errors.New("emulator process died")
	ErrBootTimeout        = errors.New("boot timeout")
	ErrSnapshotMissing    = errors.New("snapshot missing")
	ErrControlChannelLost = errors.New("control channel lost")
)

// Failure is a fatal pipeline outcome with the context an operator needs to
// diagnose it without re-running: log tail, directory listing, paths.
type Failure struct {
	Kind        error
	Message     string
	Diagnostics []string
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return f.Kind.Error()
	}
	return f.Kind.Error() + ": " + f.Message
}

func (f *Failure) Unwrap() error { return f.Kind }

// ExitCode maps an error to the process exit status. Unclassified errors
// (config, lock contention, I/O) exit 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrLaunch):
		return 2 //nolint:mnd
	case errors.Is(err, ErrProcessDied):
		return 3 //nolint:mnd
	case errors.Is(err, ErrBootTimeout):
		return 4 //nolint:mnd
	case errors.Is(err, ErrSnapshotMissing):
		return 5 //nolint:mnd
	case errors.Is(err, ErrControlChannelLost):
		return 6 //nolint:mnd
	default:
		return 1
	}
}

func fail(kind error, msg string, diag []string) *Failure {
	return &Failure{Kind: kind, Message: msg, Diagnostics: diag}
}
