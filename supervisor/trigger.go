package supervisor

import (
	"context"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/prebake/control"
	"github.com/projecteru2/prebake/emulator"
)

// Trigger asks a ready emulator to save its snapshot and exit.
type Trigger struct {
	Channel control.Channel
	// Grace bounds the wait for process exit after the request.
	Grace time.Duration
	// RequestTimeout bounds the shutdown command itself. Zero means no cap
	// beyond ctx.
	RequestTimeout time.Duration
}

// Snapshot sends one shutdown-with-snapshot request and waits up to Grace
// for the process to exit. It reports whether the process exited. An
// already-exited process returns true at once. A lingering process is only
// logged: the snapshot may be on disk regardless, and verification decides.
func (t *Trigger) Snapshot(ctx context.Context, proc emulator.Process) bool {
	logger := log.WithFunc("supervisor.Snapshot")
	if !proc.Alive() {
		return true
	}

	rctx := ctx
	if t.RequestTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, t.RequestTimeout)
		defer cancel()
	}
	if err := t.Channel.RequestShutdownWithSnapshot(rctx); err != nil {
		logger.Warnf(ctx, "shutdown request to pid %d: %v", proc.PID(), err)
	}

	if proc.Wait(ctx, t.Grace) {
		logger.Infof(ctx, "emulator pid %d exited", proc.PID())
		return true
	}
	logger.Warnf(ctx, "emulator pid %d still running %s after shutdown request; verifying snapshot anyway", proc.PID(), t.Grace)
	return false
}
