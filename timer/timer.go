// Package timer implements the wall-clock countdown attached to room phases.
// All math is derived from clock reads against EndsAt rather than from a
// scheduled callback, so every client can compute "time remaining" against
// its own clock; the server never waits on a timer inside a mutation.
package timer

import (
	"time"
)

// now is read through a variable so tests can pin the clock.
var now = time.Now

// Countdown is a running or paused countdown, serialized with millisecond
// epoch anchors.
type Countdown struct {
	StartedAt   int64  `json:"startedAt"` // unix ms
	EndsAt      int64  `json:"endsAt"`    // unix ms; re-anchored on resume/extend
	DurationMs  int64  `json:"durationMs"`
	IsPaused    bool   `json:"isPaused"`
	RemainingMs int64  `json:"remainingMs"`
	Phase       string `json:"phase"`
	Pausable    bool   `json:"pausable"`
}

// NewCountdown starts a countdown of the given duration, tied to a phase.
func NewCountdown(phase string, d time.Duration, pausable bool) *Countdown {
	start := now()
	return &Countdown{
		StartedAt:   start.UnixMilli(),
		EndsAt:      start.Add(d).UnixMilli(),
		DurationMs:  d.Milliseconds(),
		RemainingMs: d.Milliseconds(),
		Phase:       phase,
		Pausable:    pausable,
	}
}

// Remaining returns the live remaining time, never negative.
func (c *Countdown) Remaining() time.Duration {
	if c.IsPaused {
		return time.Duration(c.RemainingMs) * time.Millisecond
	}
	left := c.EndsAt - now().UnixMilli()
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Millisecond
}

// Refresh recomputes RemainingMs from the wall clock. Called before every
// snapshot emission so the serialized value is never stale.
func (c *Countdown) Refresh() {
	if !c.IsPaused {
		c.RemainingMs = c.Remaining().Milliseconds()
	}
}

// Pause freezes the countdown at the current wall-clock delta to EndsAt.
func (c *Countdown) Pause() bool {
	if !c.Pausable || c.IsPaused {
		return false
	}
	c.RemainingMs = c.Remaining().Milliseconds()
	c.IsPaused = true
	return true
}

// Resume re-anchors EndsAt at now + the frozen remaining time.
func (c *Countdown) Resume() bool {
	if !c.Pausable || !c.IsPaused {
		return false
	}
	c.EndsAt = now().Add(time.Duration(c.RemainingMs) * time.Millisecond).UnixMilli()
	c.IsPaused = false
	return true
}

// Extend adds seconds to the countdown, clamped to maxSeconds per call.
// While paused the frozen remainder grows; while running EndsAt shifts
// forward by exactly the granted amount.
func (c *Countdown) Extend(seconds, maxSeconds int) bool {
	if !c.Pausable || seconds <= 0 {
		return false
	}
	if maxSeconds > 0 && seconds > maxSeconds {
		seconds = maxSeconds
	}
	extraMs := int64(seconds) * 1000
	if c.IsPaused {
		c.RemainingMs += extraMs
	} else {
		c.EndsAt += extraMs
		c.RemainingMs = c.Remaining().Milliseconds()
	}
	return true
}
