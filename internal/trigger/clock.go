// Package trigger turns operator actions into authorization pulses. A
// pulse is a Unix millisecond stamp that is never zero and never repeats.
package trigger

import (
	"errors"
	"sync"
	"time"
)

// ErrInterrupted is returned when the operator aborts while a source is
// waiting for a pulse.
var ErrInterrupted = errors.New("trigger: interrupted by operator")

// Clock issues strictly increasing millisecond stamps.
type Clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClock returns a clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Stamp returns the current Unix millisecond time, bumped past the
// previous stamp if the wall clock has not advanced or has gone back.
func (c *Clock) Stamp() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}
