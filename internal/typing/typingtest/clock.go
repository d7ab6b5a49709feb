// Package typingtest provides a manually advanced clock for scheduler tests.
package typingtest

import (
	"sort"
	"sync"
	"time"

	"github.com/verte-zerg/faketype/internal/typing"
)

// Clock is a typing.Clock whose time only moves on Advance.
type Clock struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*timer
	delays  []time.Duration
}

type timer struct {
	clock   *Clock
	at      time.Duration
	seq     int
	f       func()
	stopped bool
}

// NewClock returns a clock at t=0.
func NewClock() *Clock {
	return &Clock{}
}

// AfterFunc implements typing.Clock.
func (c *Clock) AfterFunc(d time.Duration, f func()) typing.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &timer{clock: c, at: c.now + d, seq: c.seq, f: f}
	c.pending = append(c.pending, t)
	c.delays = append(c.delays, d)
	return t
}

// Stop implements typing.Timer.
func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	for i, p := range t.clock.pending {
		if p == t {
			t.clock.pending = append(t.clock.pending[:i], t.clock.pending[i+1:]...)
			t.stopped = true
			return true
		}
	}
	return false
}

// Now returns the elapsed virtual time.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Pending returns the number of timers that have not fired.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Delays returns every duration passed to AfterFunc, in call order.
func (c *Clock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

// Advance moves time forward by d, firing due timers in order. Callbacks run
// on the calling goroutine.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()
	for {
		t := c.popDue(target)
		if t == nil {
			break
		}
		t.f()
	}
	c.mu.Lock()
	c.now = target
	c.mu.Unlock()
}

// Fire runs the timer that is due next regardless of its deadline and
// reports whether one was pending.
func (c *Clock) Fire() bool {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return false
	}
	c.sortLocked()
	next := c.pending[0]
	c.mu.Unlock()
	c.Advance(next.at - c.Now())
	return true
}

// RunAll fires timers until none are pending or limit callbacks ran.
func (c *Clock) RunAll(limit int) int {
	fired := 0
	for fired < limit && c.Fire() {
		fired++
	}
	return fired
}

func (c *Clock) popDue(target time.Duration) *timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	c.sortLocked()
	t := c.pending[0]
	if t.at > target {
		return nil
	}
	c.pending = c.pending[1:]
	if t.at > c.now {
		c.now = t.at
	}
	return t
}

func (c *Clock) sortLocked() {
	sort.SliceStable(c.pending, func(i, j int) bool {
		if c.pending[i].at == c.pending[j].at {
			return c.pending[i].seq < c.pending[j].seq
		}
		return c.pending[i].at < c.pending[j].at
	})
}
