// Package lock guarantees a single supervisor per instance id across processes.
package lock

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrHeld means another supervisor already owns the instance.
var ErrHeld = errors.New("another bake holds the instance lock")

// Instance is a held flock(2) on an instance's lock file.
type Instance struct {
	fl *flock.Flock
}

// Acquire takes the lock at path without blocking. A held lock fails fast
// with ErrHeld.
func Acquire(path string) (*Instance, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire flock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrHeld, path)
	}
	return &Instance{fl: fl}, nil
}

// Release unlocks and closes the lock file.
func (l *Instance) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release flock %s: %w", l.fl.Path(), err)
	}
	return nil
}
