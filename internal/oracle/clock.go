package oracle

import (
	"sync"
	"time"

	"github.com/richxcame/matchengine/internal/domain"
)

// Clock is the matcher's monotone non-decreasing time source (spec.md §6).
type Clock interface {
	Now() domain.SimTime
}

// SystemClock reports sim-time as seconds elapsed since its construction,
// backed by the wall clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock constructs a Clock anchored to the current wall-clock time.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns elapsed seconds since construction, as SimTime.
func (c *SystemClock) Now() domain.SimTime {
	return domain.SimTime(time.Since(c.start).Seconds())
}

// ManualClock is a test/simulation clock advanced explicitly rather than by
// wall-clock elapse, for callers that need deterministic tick boundaries.
type ManualClock struct {
	mu  sync.Mutex
	now domain.SimTime
}

// NewManualClock constructs a ManualClock starting at the given sim-time.
func NewManualClock(start domain.SimTime) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current simulated time.
func (c *ManualClock) Now() domain.SimTime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by delta and returns the new time.
func (c *ManualClock) Advance(delta domain.SimTime) domain.SimTime {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(delta)
	return c.now
}
