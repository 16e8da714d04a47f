package session

import (
	"sync"
	"time"
)

// Clock records when a session began and answers threshold questions
// against wall-clock time. Its only state is the start timestamp.
type Clock struct {
	nowFunc func() time.Time

	mu    sync.RWMutex
	start time.Time
}

type ClockOption func(*Clock)

// WithClockNowFunc sets the now time function (primarily for testing)
func WithClockNowFunc(now func() time.Time) ClockOption {
	return func(c *Clock) {
		c.nowFunc = now
	}
}

func NewClock(options ...ClockOption) *Clock {
	c := &Clock{nowFunc: time.Now}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// MarkStart records now as the session start.
func (c *Clock) MarkStart() {
	c.Restore(c.nowFunc())
}

// Restore sets the session start to a known timestamp, e.g. one read back
// from persistent storage when resuming a remembered session.
func (c *Clock) Restore(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = start
}

// Clear forgets the session start; Elapsed returns 0 afterwards.
func (c *Clock) Clear() {
	c.Restore(time.Time{})
}

// Reset is the "extend session" operation: equivalent to MarkStart.
func (c *Clock) Reset() {
	c.MarkStart()
}

func (c *Clock) Start() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.start, !c.start.IsZero()
}

func (c *Clock) Elapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.start.IsZero() {
		return 0
	}
	return c.nowFunc().Sub(c.start)
}

// IsNear reports whether the session is within warnBefore of threshold.
func (c *Clock) IsNear(threshold, warnBefore time.Duration) bool {
	return c.Elapsed() >= threshold-warnBefore
}

func (c *Clock) HasExceeded(threshold time.Duration) bool {
	return c.Elapsed() >= threshold
}
