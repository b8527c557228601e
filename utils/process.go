package utils

import (
	"errors"
	"syscall"
)

// SignalGroup delivers sig to the process group led by pid.
// ESRCH (group already gone) is not an error.
func SignalGroup(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return nil
	}
	if err := syscall.Kill(-pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}
