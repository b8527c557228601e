package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/prebake/config"
	"github.com/projecteru2/prebake/control"
	"github.com/projecteru2/prebake/emulator"
	"github.com/projecteru2/prebake/lock"
	"github.com/projecteru2/prebake/sentinel"
	"github.com/projecteru2/prebake/types"
	"github.com/projecteru2/prebake/utils"
)

// LaunchFunc starts an emulator. emulator.Launch in production.
type LaunchFunc func(context.Context, emulator.Options) (emulator.Process, error)

// Pipeline runs launch, readiness, snapshot, verification and sentinel
// publication strictly in sequence. Any stage failing aborts the run.
type Pipeline struct {
	Conf    *config.Config
	Launch  LaunchFunc
	Channel control.Channel
	Clock   Clock
}

// Result summarizes a successful run.
type Result struct {
	Polls        int
	BootDuration time.Duration
	Sentinel     types.Sentinel
	// CleanExit is false when the emulator had to be terminated after the
	// shutdown grace period.
	CleanExit bool
}

// New returns a Pipeline wired to the real emulator launcher.
func New(conf *config.Config, ch control.Channel) *Pipeline {
	return &Pipeline{Conf: conf, Launch: emulator.Launch, Channel: ch, Clock: RealClock}
}

// Run executes one bake. Only one Run per instance id may be active; a second
// concurrent Run fails on the instance lock.
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	conf := p.Conf
	logger := log.WithFunc("supervisor.Run")
	clock := p.Clock
	if clock == nil {
		clock = RealClock
	}

	if err := conf.EnsureDirs(); err != nil {
		return nil, err
	}
	lk, err := lock.Acquire(conf.LockFile())
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", conf.InstanceID, err)
	}
	defer lk.Release() //nolint:errcheck

	// A rebuild invalidates the previous marker until it succeeds again.
	if err := sentinel.Remove(conf.SentinelPath()); err != nil {
		return nil, err
	}

	opts, err := emulator.NewOptions(conf)
	if err != nil {
		return nil, err
	}
	start := clock.Now()
	deadline := start.Add(conf.BootTimeout())
	proc, err := p.Launch(ctx, opts)
	if err != nil {
		return nil, fail(ErrLaunch, err.Error(), utils.TailLines(opts.LogPath, conf.LogTailLines))
	}
	logger.Infof(ctx, "waiting for %s to boot (deadline %s, interval %s)", conf.InstanceID, deadline.Format(time.DateTime), conf.PollInterval())

	// The supervisor never leaves its emulator orphaned on failure.
	defer func() {
		if err == nil || !proc.Alive() {
			return
		}
		logger.Warnf(ctx, "terminating emulator pid %d after failure: %v", proc.PID(), err)
		if terr := proc.Terminate(conf.TerminateGrace()); terr != nil {
			err = errors.Join(err, terr)
		}
	}()

	poller := &Poller{
		Channel:        p.Channel,
		Interval:       conf.PollInterval(),
		QueryTimeout:   conf.QueryTimeout(),
		MaxQueryErrors: conf.MaxQueryErrors,
		LogPath:        opts.LogPath,
		TailLines:      conf.LogTailLines,
		Clock:          clock,
	}
	polls, err := poller.WaitReady(ctx, proc, deadline)
	if err != nil {
		return nil, err
	}
	bootDuration := clock.Now().Sub(start)

	trigger := &Trigger{Channel: p.Channel, Grace: conf.ShutdownGrace(), RequestTimeout: conf.QueryTimeout()}
	clean := trigger.Snapshot(ctx, proc)

	if err := VerifySnapshot(conf.SnapshotDir()); err != nil {
		return nil, err
	}
	if !clean {
		if terr := proc.Terminate(conf.TerminateGrace()); terr != nil {
			logger.Warnf(ctx, "terminate lingering emulator pid %d: %v", proc.PID(), terr)
		}
	}

	rec := conf.Sentinel()
	if err := sentinel.Publish(conf.SentinelPath(), rec); err != nil {
		return nil, err
	}
	logger.Infof(ctx, "snapshot verified at %s, sentinel written to %s", conf.SnapshotDir(), conf.SentinelPath())
	return &Result{Polls: polls, BootDuration: bootDuration, Sentinel: rec, CleanExit: clean}, nil
}
