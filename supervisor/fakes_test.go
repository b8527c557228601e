package supervisor

import (
	"context"
	"sync"
	"time"
)

// fakeClock advances virtual time whenever the code under test sleeps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	t := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- t
	return ch
}

type fakeProcess struct {
	mu         sync.Mutex
	checks     int
	dieAt      int // Alive reports false from this check on; 0 = never
	exited     bool
	terminated bool
	waits      int
}

func (p *fakeProcess) PID() int { return 4242 }

func (p *fakeProcess) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks++
	if p.dieAt > 0 && p.checks >= p.dieAt {
		p.exited = true
	}
	return !p.exited
}

func (p *fakeProcess) Terminate(time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminated = true
	p.exited = true
	return nil
}

func (p *fakeProcess) Wait(context.Context, time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return p.exited
}

func (p *fakeProcess) ExitErr() error { return nil }

func (p *fakeProcess) exit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exited = true
}

func (p *fakeProcess) wasTerminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

type fakeChannel struct {
	// honorCtx makes calls fail on an expired context, as adb's
	// exec.CommandContext does.
	honorCtx   bool
	mu         sync.Mutex
	queries    int
	get        func(n int) (string, error) // n is 1-based
	onShutdown func()
	shutdowns  int
}

func (c *fakeChannel) GetProperty(ctx context.Context, _ string) (string, error) {
	if c.honorCtx && ctx.Err() != nil {
		return "", ctx.Err()
	}
	c.mu.Lock()
	c.queries++
	n := c.queries
	c.mu.Unlock()
	if c.get == nil {
		return "0", nil
	}
	return c.get(n)
}

func (c *fakeChannel) RequestShutdownWithSnapshot(ctx context.Context) error {
	if c.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	c.mu.Lock()
	c.shutdowns++
	c.mu.Unlock()
	if c.onShutdown != nil {
		c.onShutdown()
	}
	return nil
}

// readyAt returns a property source that reports ready from query n on.
func readyAt(n int) func(int) (string, error) {
	return func(i int) (string, error) {
		if i >= n {
			return "1", nil
		}
		return "0", nil
	}
}

func neverReady(int) (string, error) { return "0", nil }
