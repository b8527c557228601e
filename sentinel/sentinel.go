// Package sentinel publishes and reads the ".prebaked" marker. The marker is
// written only after the snapshot has been verified, so consumers may trust
// its existence unconditionally.
package sentinel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/projecteru2/prebake/types"
	"github.com/projecteru2/prebake/utils"
)

// ErrNotFound is returned by Read when no sentinel has been published.
var ErrNotFound = errors.New("sentinel not found")

// Publish writes rec to path atomically, replacing any previous sentinel.
func Publish(path string, rec types.Sentinel) error {
	if err := utils.AtomicWriteJSON(path, rec, 0o644); err != nil { //nolint:mnd
		return fmt.Errorf("publish sentinel %s: %w", path, err)
	}
	return nil
}

// Read loads the sentinel at path.
func Read(path string) (*types.Sentinel, error) {
	data, err := os.ReadFile(path) //nolint:gosec // instance root path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read sentinel %s: %w", path, err)
	}
	var rec types.Sentinel
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse sentinel %s: %w", path, err)
	}
	return &rec, nil
}

// Exists reports whether a sentinel is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes the sentinel at path. A missing sentinel is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale sentinel %s: %w", path, err)
	}
	return nil
}
