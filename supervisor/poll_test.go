package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPoller(ch *fakeChannel, clock Clock, interval time.Duration) *Poller {
	return &Poller{Channel: ch, Interval: interval, QueryTimeout: time.Second, TailLines: 5, Clock: clock}
}

func TestWaitReadyAfterFourPolls(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	ch := &fakeChannel{get: readyAt(4)}
	p := newPoller(ch, clock, time.Second)

	polls, err := p.WaitReady(context.Background(), &fakeProcess{}, start.Add(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 4, polls)
	assert.Equal(t, 4, ch.queries)
	assert.Equal(t, 3*time.Second, clock.Now().Sub(start))
}

func TestWaitReadyReturnsOnFirstReadyTick(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	ch := &fakeChannel{get: readyAt(1)}

	polls, err := newPoller(ch, clock, 3*time.Second).WaitReady(context.Background(), &fakeProcess{}, start.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, polls)
	assert.Equal(t, 1, ch.queries)
	assert.Equal(t, start, clock.Now(), "no sleep after ready")
}

func TestWaitReadyTimeoutBounded(t *testing.T) {
	for _, tc := range []struct {
		timeout, interval time.Duration
	}{
		{1 * time.Second, 1 * time.Second},
		{5 * time.Second, 1 * time.Second},
		{7 * time.Second, 3 * time.Second},
		{10 * time.Second, 3 * time.Second},
		{2 * time.Second, 5 * time.Second},
	} {
		t.Run(fmt.Sprintf("T=%s/i=%s", tc.timeout, tc.interval), func(t *testing.T) {
			clock := newFakeClock()
			start := clock.Now()
			p := newPoller(&fakeChannel{get: neverReady}, clock, tc.interval)

			_, err := p.WaitReady(context.Background(), &fakeProcess{}, start.Add(tc.timeout))
			require.ErrorIs(t, err, ErrBootTimeout)
			elapsed := clock.Now().Sub(start)
			assert.GreaterOrEqual(t, elapsed, tc.timeout)
			assert.LessOrEqual(t, elapsed, tc.timeout+tc.interval)
		})
	}
}

func TestWaitReadyProcessDiedFastFail(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	deadline := start.Add(10 * time.Second)
	proc := &fakeProcess{dieAt: 2}
	ch := &fakeChannel{get: neverReady}

	polls, err := newPoller(ch, clock, time.Second).WaitReady(context.Background(), proc, deadline)
	require.ErrorIs(t, err, ErrProcessDied)
	assert.Equal(t, 2, polls)
	assert.Equal(t, 1, ch.queries, "no query after death is observed")
	assert.True(t, clock.Now().Before(deadline))
}

func TestWaitReadyDeathOutranksTimeout(t *testing.T) {
	clock := newFakeClock()
	proc := &fakeProcess{dieAt: 1}

	_, err := newPoller(&fakeChannel{}, clock, time.Second).WaitReady(context.Background(), proc, clock.Now().Add(-time.Minute))
	require.ErrorIs(t, err, ErrProcessDied)
}

func TestWaitReadyReadyOutranksTimeout(t *testing.T) {
	clock := newFakeClock()
	polls, err := newPoller(&fakeChannel{get: readyAt(1)}, clock, time.Second).
		WaitReady(context.Background(), &fakeProcess{}, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, polls)
}

func TestWaitReadyQueryErrorsAreNotReady(t *testing.T) {
	clock := newFakeClock()
	ch := &fakeChannel{get: func(n int) (string, error) {
		if n < 5 {
			return "", errors.New("device offline")
		}
		return "1", nil
	}}

	polls, err := newPoller(ch, clock, time.Second).WaitReady(context.Background(), &fakeProcess{}, clock.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 5, polls)
}

func TestWaitReadyMaxQueryErrors(t *testing.T) {
	clock := newFakeClock()
	ch := &fakeChannel{get: func(n int) (string, error) {
		if n == 2 {
			return "0", nil // resets the streak
		}
		return "", errors.New("device not found")
	}}
	p := newPoller(ch, clock, time.Second)
	p.MaxQueryErrors = 3

	polls, err := p.WaitReady(context.Background(), &fakeProcess{}, clock.Now().Add(time.Minute))
	require.ErrorIs(t, err, ErrControlChannelLost)
	assert.Equal(t, 5, polls)
	assert.Contains(t, err.Error(), "device not found")
}

func TestWaitReadyDeadlineTickIsTimeout(t *testing.T) {
	clock := newFakeClock()
	ch := &fakeChannel{get: func(int) (string, error) { return "", errors.New("device offline") }}
	p := newPoller(ch, clock, time.Second)
	p.MaxQueryErrors = 3

	// Ticks at 0s, 1s and 2s; the third error coincides with the deadline.
	polls, err := p.WaitReady(context.Background(), &fakeProcess{}, clock.Now().Add(2*time.Second))
	require.ErrorIs(t, err, ErrBootTimeout)
	assert.NotErrorIs(t, err, ErrControlChannelLost)
	assert.Equal(t, 3, polls)
}

func TestWaitReadyDiagnosticsCarryLogTail(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "emulator.log")
	require.NoError(t, os.WriteFile(logPath, []byte("line1\nline2\nPANIC: missing kernel\n"), 0o600))

	clock := newFakeClock()
	p := newPoller(&fakeChannel{}, clock, time.Second)
	p.LogPath = logPath
	p.TailLines = 2

	_, err := p.WaitReady(context.Background(), &fakeProcess{dieAt: 1}, clock.Now().Add(time.Minute))
	var f *Failure
	require.ErrorAs(t, err, &f)
	require.Len(t, f.Diagnostics, 3)
	assert.Equal(t, "line2", f.Diagnostics[1])
	assert.Equal(t, "PANIC: missing kernel", f.Diagnostics[2])
}

// blockingChannel never answers until its context ends.
type blockingChannel struct{}

func (blockingChannel) GetProperty(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingChannel) RequestShutdownWithSnapshot(context.Context) error { return nil }

func TestWaitReadyNeverBlocksPastDeadline(t *testing.T) {
	p := &Poller{Channel: blockingChannel{}, Interval: 10 * time.Millisecond, QueryTimeout: time.Hour}
	deadline := time.Now().Add(100 * time.Millisecond)

	_, err := p.WaitReady(context.Background(), &fakeProcess{}, deadline)
	require.ErrorIs(t, err, ErrBootTimeout)
	assert.WithinDuration(t, deadline, time.Now(), 500*time.Millisecond)
}

func TestWaitReadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{Channel: &fakeChannel{get: neverReady}, Interval: time.Hour}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := p.WaitReady(ctx, &fakeProcess{}, time.Now().Add(2*time.Hour))
	require.ErrorIs(t, err, context.Canceled)
}
