package config

import (
	"path/filepath"

	"github.com/projecteru2/prebake/utils"
)

// EnsureDirs creates the static directories a bake run writes to.
func (c *Config) EnsureDirs() error {
	return utils.EnsureDirs(
		c.logDir(),
		c.lockDir(),
		c.AVDHome(),
	)
}

// AVDHome returns the AVD storage root, honoring the override.
func (c *Config) AVDHome() string {
	if c.InstanceAVDHome != "" {
		return c.InstanceAVDHome
	}
	return filepath.Join(c.InstanceRoot, "avd")
}

func (c *Config) AVDDir() string { return filepath.Join(c.AVDHome(), c.InstanceID+".avd") }

// SnapshotDir is where the emulator writes the quickboot snapshot on a clean kill.
func (c *Config) SnapshotDir() string {
	return filepath.Join(c.AVDDir(), "snapshots", "default_boot")
}

// SentinelPath is the marker consumed by the bootstrap process.
func (c *Config) SentinelPath() string { return filepath.Join(c.InstanceRoot, ".prebaked") }

func (c *Config) logDir() string  { return filepath.Join(c.InstanceRoot, "logs", c.InstanceID) }
func (c *Config) lockDir() string { return filepath.Join(c.InstanceRoot, "locks") }

func (c *Config) ProcessLog() string { return filepath.Join(c.logDir(), "emulator.log") }
func (c *Config) LockFile() string   { return filepath.Join(c.lockDir(), c.InstanceID+".lock") }
