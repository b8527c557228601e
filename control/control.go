package control

import "context"

const (
	// BootCompletedProperty is set by the guest once boot has finished.
	BootCompletedProperty = "sys.boot_completed"
	// BootCompletedValue is the value BootCompletedProperty holds when ready.
	BootCompletedValue = "1"
)

// Channel is the out-of-band command interface to a running emulator.
// It is best-effort: during early boot every call may fail.
type Channel interface {
	// GetProperty reads a guest system property.
	GetProperty(ctx context.Context, name string) (string, error)
	// RequestShutdownWithSnapshot asks the emulator to save its quickboot
	// snapshot and exit. No reply is awaited; completion is observed through
	// process exit and the snapshot on disk.
	RequestShutdownWithSnapshot(ctx context.Context) error
}
