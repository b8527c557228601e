package emulator

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/projecteru2/prebake/utils"
)

// reapTimeout bounds the wait for the kernel to deliver exit after SIGKILL.
const reapTimeout = 5 * time.Second

// Process is a handle on a launched emulator. It is owned by the launcher's
// caller for the lifetime of one bake run and invalid once the process exits.
type Process interface {
	PID() int
	// Alive reports whether the process has not yet exited.
	Alive() bool
	// Terminate sends SIGTERM to the process group, escalating to SIGKILL after grace.
	Terminate(grace time.Duration) error
	// Wait blocks until the process exits, timeout elapses or ctx is done.
	// It returns true iff the process has exited; an already-exited process
	// returns true immediately.
	Wait(ctx context.Context, timeout time.Duration) bool
	// ExitErr is the result of the OS wait once the process has exited.
	ExitErr() error
}

// compile-time interface check.
var _ Process = (*execProcess)(nil)

// execProcess reaps its child in a goroutine; done closes once the OS wait
// returns, so liveness never depends on the pid table.
type execProcess struct {
	cmd     *exec.Cmd
	pid     int
	done    chan struct{}
	waitErr error
}

func watch(cmd *exec.Cmd) *execProcess {
	p := &execProcess{cmd: cmd, pid: cmd.Process.Pid, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p
}

func (p *execProcess) PID() int { return p.pid }

func (p *execProcess) Alive() bool { return !p.exited() }

func (p *execProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *execProcess) ExitErr() error {
	if !p.exited() {
		return nil
	}
	return p.waitErr
}

func (p *execProcess) Wait(ctx context.Context, timeout time.Duration) bool {
	if p.exited() {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return p.exited()
	}
}

func (p *execProcess) Terminate(grace time.Duration) error {
	if p.exited() {
		return nil
	}
	if err := utils.SignalGroup(p.pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("SIGTERM emulator %d: %w", p.pid, err)
	}
	if p.Wait(context.Background(), grace) {
		return nil
	}
	if err := utils.SignalGroup(p.pid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("SIGKILL emulator %d: %w", p.pid, err)
	}
	if !p.Wait(context.Background(), reapTimeout) {
		return fmt.Errorf("emulator %d still running after SIGKILL", p.pid)
	}
	return nil
}
