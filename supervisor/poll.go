package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/prebake/control"
	"github.com/projecteru2/prebake/emulator"
	"github.com/projecteru2/prebake/types"
	"github.com/projecteru2/prebake/utils"
)

// progressEvery is how many not-ready ticks pass between progress log lines.
const progressEvery = 10

// Poller waits for the guest to report boot completion.
type Poller struct {
	Channel  control.Channel
	Interval time.Duration
	// QueryTimeout bounds a single property read; it is further capped by the
	// time left before the deadline.
	QueryTimeout time.Duration
	// MaxQueryErrors > 0 turns that many consecutive channel errors into
	// ErrControlChannelLost. Zero treats errors as not-ready indefinitely.
	MaxQueryErrors int
	LogPath        string
	TailLines      int
	Clock          Clock
}

// WaitReady races three outcomes on every tick, checked in fixed priority:
// process died, guest ready, deadline reached. A capped run of channel
// errors ranks below the deadline. It returns the number of ticks
// taken. It never blocks past deadline regardless of channel behavior.
func (p *Poller) WaitReady(ctx context.Context, proc emulator.Process, deadline time.Time) (int, error) {
	logger := log.WithFunc("supervisor.WaitReady")
	clock := p.clock()
	start := clock.Now()
	consecutiveErrs := 0

	for tick := 1; ; tick++ {
		if !proc.Alive() {
			return tick, fail(ErrProcessDied,
				fmt.Sprintf("pid %d exited before boot completed (tick %d, %s after launch): %v",
					proc.PID(), tick, clock.Now().Sub(start).Round(time.Second), proc.ExitErr()),
				p.tail())
		}

		state, err := p.probe(ctx, clock, deadline)
		if state == types.ReadinessReady {
			logger.Infof(ctx, "guest ready after %d ticks (%s)", tick, clock.Now().Sub(start).Round(time.Second))
			return tick, nil
		}
		if state == types.ReadinessUnknown {
			consecutiveErrs++
		} else {
			consecutiveErrs = 0
		}

		// The tick landing on the deadline probes with no budget left; its
		// error is the timeout, not a lost channel.
		now := clock.Now()
		if !now.Before(deadline) {
			return tick, fail(ErrBootTimeout,
				fmt.Sprintf("guest not ready after %s (%d ticks, last signal %s)", now.Sub(start).Round(time.Second), tick, state),
				p.tail())
		}
		if p.MaxQueryErrors > 0 && consecutiveErrs >= p.MaxQueryErrors {
			return tick, fail(ErrControlChannelLost,
				fmt.Sprintf("%d consecutive control channel errors, last: %v", consecutiveErrs, err),
				p.tail())
		}
		if tick%progressEvery == 0 {
			logger.Infof(ctx, "still booting: tick %d, %s left", tick, deadline.Sub(now).Round(time.Second))
		}

		wait := min(p.Interval, deadline.Sub(now))
		select {
		case <-ctx.Done():
			return tick, fmt.Errorf("wait for boot: %w", ctx.Err())
		case <-clock.After(wait):
		}
	}
}

// probe reads the readiness property once. Any error is reported as
// ReadinessUnknown; the channel is expected to be down early in boot.
func (p *Poller) probe(ctx context.Context, clock Clock, deadline time.Time) (types.Readiness, error) {
	timeout := max(deadline.Sub(clock.Now()), 0)
	if p.QueryTimeout > 0 {
		timeout = min(timeout, p.QueryTimeout)
	}
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := p.Channel.GetProperty(qctx, control.BootCompletedProperty)
	if err != nil {
		return types.ReadinessUnknown, err
	}
	if v == control.BootCompletedValue {
		return types.ReadinessReady, nil
	}
	return types.ReadinessNotReady, nil
}

func (p *Poller) tail() []string {
	if p.LogPath == "" {
		return nil
	}
	lines := utils.TailLines(p.LogPath, p.TailLines)
	return append([]string{fmt.Sprintf("last %d lines of %s:", len(lines), p.LogPath)}, lines...)
}

func (p *Poller) clock() Clock {
	if p.Clock == nil {
		return RealClock
	}
	return p.Clock
}
