package config

import (
	"fmt"
	"runtime"
	"time"

	units "github.com/docker/go-units"
	coretypes "github.com/projecteru2/core/types"

	"github.com/projecteru2/prebake/types"
)

const (
	defaultSoftwareBootTimeout = 900
	defaultHardwareBootTimeout = 300

	minConsolePort = 5554
	maxConsolePort = 5682
)

// Config is assembled once at startup and passed by pointer through the
// pipeline. Nothing downstream reads the environment directly.
type Config struct {
	// InstanceRoot is the base storage path; the sentinel lives here.
	InstanceRoot string `mapstructure:"instance_root" json:"instance_root"`
	// InstanceAVDHome overrides the AVD storage root.
	// Defaults to {InstanceRoot}/avd when empty.
	InstanceAVDHome string `mapstructure:"instance_avd_home" json:"instance_avd_home"`
	InstanceID      string `mapstructure:"instance_id" json:"instance_id"`
	APILevel        int    `mapstructure:"api_level" json:"api_level"`
	SystemImageRef  string `mapstructure:"system_image_ref" json:"system_image_ref"`
	// Arch is the guest ABI recorded in the sentinel. Defaults to the host's.
	Arch string `mapstructure:"arch" json:"arch"`

	// Acceleration must match the mode available where the snapshot is resumed.
	// It is never auto-detected.
	Acceleration string `mapstructure:"acceleration" json:"acceleration"`

	// BootTimeoutSeconds of zero picks the per-acceleration default.
	BootTimeoutSeconds    int `mapstructure:"boot_timeout_seconds" json:"boot_timeout_seconds"`
	PollIntervalSeconds   int `mapstructure:"poll_interval_seconds" json:"poll_interval_seconds"`
	ShutdownGraceSeconds  int `mapstructure:"shutdown_grace_seconds" json:"shutdown_grace_seconds"`
	// QueryTimeoutSeconds of zero leaves control channel calls capped only by
	// the boot deadline (queries) or the run context (shutdown request).
	QueryTimeoutSeconds   int `mapstructure:"query_timeout_seconds" json:"query_timeout_seconds"`
	TerminateGraceSeconds int `mapstructure:"terminate_grace_seconds" json:"terminate_grace_seconds"`
	// MaxQueryErrors caps consecutive control-channel failures during boot.
	// Zero means unlimited: errors count as not-ready until the deadline.
	MaxQueryErrors int `mapstructure:"max_query_errors" json:"max_query_errors"`
	LogTailLines   int `mapstructure:"log_tail_lines" json:"log_tail_lines"`

	// Memory and PartitionSize are human sizes ("4G", "8192M").
	Memory        string `mapstructure:"memory" json:"memory"`
	PartitionSize string `mapstructure:"partition_size" json:"partition_size"`
	GPU           string `mapstructure:"gpu" json:"gpu"`

	EmulatorBinary string `mapstructure:"emulator_binary" json:"emulator_binary"`
	ADBBinary      string `mapstructure:"adb_binary" json:"adb_binary"`
	ConsolePort    int    `mapstructure:"console_port" json:"console_port"`

	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `mapstructure:"log" json:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		InstanceRoot:          "/var/lib/prebake",
		Arch:                  HostArch(),
		Acceleration:          string(types.AccelSoftware),
		PollIntervalSeconds:   3,
		ShutdownGraceSeconds:  60,
		QueryTimeoutSeconds:   10,
		TerminateGraceSeconds: 5,
		LogTailLines:          40,
		Memory:                "4G",
		PartitionSize:         "8G",
		GPU:                   "swiftshader_indirect",
		EmulatorBinary:        "emulator",
		ADBBinary:             "adb",
		ConsolePort:           minConsolePort,
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// HostArch maps GOARCH to the Android ABI name used in system image refs.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "arm64-v8a"
	case "386":
		return "x86"
	default:
		return runtime.GOARCH
	}
}

// Normalize fills derived defaults. Called once, before Validate.
func (c *Config) Normalize() {
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 3
	}
	if c.LogTailLines <= 0 {
		c.LogTailLines = 40
	}
	if c.TerminateGraceSeconds <= 0 {
		c.TerminateGraceSeconds = 5
	}
	if c.Arch == "" {
		c.Arch = HostArch()
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.InstanceRoot == "" {
		return fmt.Errorf("instance_root is required")
	}
	if c.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if c.APILevel <= 0 {
		return fmt.Errorf("api_level must be positive, got %d", c.APILevel)
	}
	if c.SystemImageRef == "" {
		return fmt.Errorf("system_image_ref is required")
	}
	if _, err := c.Accel(); err != nil {
		return err
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be positive, got %d", c.PollIntervalSeconds)
	}
	if c.BootTimeoutSeconds < 0 {
		return fmt.Errorf("boot_timeout_seconds must not be negative, got %d", c.BootTimeoutSeconds)
	}
	for key, v := range map[string]int{
		"query_timeout_seconds":   c.QueryTimeoutSeconds,
		"shutdown_grace_seconds":  c.ShutdownGraceSeconds,
		"terminate_grace_seconds": c.TerminateGraceSeconds,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", key, v)
		}
	}
	if c.MaxQueryErrors < 0 {
		return fmt.Errorf("max_query_errors must not be negative, got %d", c.MaxQueryErrors)
	}
	if _, err := c.MemoryMiB(); err != nil {
		return err
	}
	if _, err := c.PartitionSizeMiB(); err != nil {
		return err
	}
	// The emulator console listens on an even port; adb uses port+1.
	if c.ConsolePort < minConsolePort || c.ConsolePort > maxConsolePort || c.ConsolePort%2 != 0 {
		return fmt.Errorf("console_port must be an even number in %d..%d, got %d", minConsolePort, maxConsolePort, c.ConsolePort)
	}
	return nil
}

// Accel parses the configured acceleration mode.
func (c *Config) Accel() (types.Acceleration, error) {
	return types.ParseAcceleration(c.Acceleration)
}

// BootTimeout returns the configured timeout, or the default for the
// acceleration mode when unset. Software boots are roughly 3x slower.
func (c *Config) BootTimeout() time.Duration {
	if c.BootTimeoutSeconds > 0 {
		return time.Duration(c.BootTimeoutSeconds) * time.Second
	}
	if accel, _ := c.Accel(); accel == types.AccelHardware {
		return defaultHardwareBootTimeout * time.Second
	}
	return defaultSoftwareBootTimeout * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}

func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

func (c *Config) TerminateGrace() time.Duration {
	return time.Duration(c.TerminateGraceSeconds) * time.Second
}

// MemoryMiB is the guest memory ceiling in MiB for the emulator's -memory flag.
func (c *Config) MemoryMiB() (int64, error) {
	return sizeMiB("memory", c.Memory)
}

// PartitionSizeMiB is the data partition size in MiB for -partition-size.
func (c *Config) PartitionSizeMiB() (int64, error) {
	return sizeMiB("partition_size", c.PartitionSize)
}

func sizeMiB(key, s string) (int64, error) {
	b, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if b < units.MiB {
		return 0, fmt.Errorf("invalid %s %q: must be at least 1M", key, s)
	}
	return b / units.MiB, nil
}

// Sentinel converts the build inputs into the marker record.
func (c *Config) Sentinel() types.Sentinel {
	return types.Sentinel{
		InstanceID:     c.InstanceID,
		APILevel:       c.APILevel,
		Arch:           c.Arch,
		SystemImageRef: c.SystemImageRef,
	}
}
