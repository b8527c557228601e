package emulator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/prebake/config"
	"github.com/projecteru2/prebake/types"
)

// Options are the fixed launch parameters for one emulator instance.
type Options struct {
	Binary       string
	AVD          string
	AVDHome      string
	ConsolePort  int
	MemoryMiB    int64
	PartitionMiB int64
	GPU          string
	// Accel is always explicit: a snapshot resumes warm only under the mode it
	// was built with, so callers pick the mode of the resume environment.
	Accel   types.Acceleration
	LogPath string
}

// NewOptions derives launch options from the run configuration.
func NewOptions(conf *config.Config) (Options, error) {
	accel, err := conf.Accel()
	if err != nil {
		return Options{}, err
	}
	mem, err := conf.MemoryMiB()
	if err != nil {
		return Options{}, err
	}
	part, err := conf.PartitionSizeMiB()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Binary:       conf.EmulatorBinary,
		AVD:          conf.InstanceID,
		AVDHome:      conf.AVDHome(),
		ConsolePort:  conf.ConsolePort,
		MemoryMiB:    mem,
		PartitionMiB: part,
		GPU:          conf.GPU,
		Accel:        accel,
		LogPath:      conf.ProcessLog(),
	}, nil
}

// Args builds the emulator command line. The run boots cold
// (-no-snapshot-load) and keeps snapshot saving enabled so a console kill
// writes the default_boot snapshot.
func (o Options) Args() []string {
	args := []string{
		"-avd", o.AVD,
		"-port", strconv.Itoa(o.ConsolePort),
		"-no-window",
		"-no-audio",
		"-no-boot-anim",
		"-no-snapshot-load",
		"-memory", strconv.FormatInt(o.MemoryMiB, 10),
		"-partition-size", strconv.FormatInt(o.PartitionMiB, 10),
		"-accel", o.Accel.EmulatorFlag(),
	}
	if o.GPU != "" {
		args = append(args, "-gpu", o.GPU)
	}
	return args
}

// Launch starts the emulator detached in its own process group, with stdout
// and stderr written to LogPath, truncated per run. The log stays readable
// after Launch returns.
// Start failures are returned as-is; they are configuration errors and are
// never retried.
func Launch(ctx context.Context, o Options) (Process, error) {
	logFile, err := os.OpenFile(o.LogPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open emulator log: %w", err)
	}
	// The child holds its own descriptor after Start.
	defer logFile.Close() //nolint:errcheck

	cmd := exec.Command(o.Binary, o.Args()...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(), "ANDROID_AVD_HOME="+o.AVDHome)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("exec %s: %w", o.Binary, err)
	}
	p := watch(cmd)
	log.WithFunc("emulator.Launch").Infof(ctx, "emulator %s started: pid %d, accel %s, log %s", o.AVD, p.PID(), o.Accel, o.LogPath)
	return p, nil
}
