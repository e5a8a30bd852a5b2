package frame

import "time"

// StepClock is a manual clock for headless runs and tests.
type StepClock struct {
	now time.Duration
}

// Now returns the current virtual time.
func (c *StepClock) Now() time.Duration {
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *StepClock) Advance(d time.Duration) time.Duration {
	c.now += d
	return c.now
}

// Set moves the clock to t.
func (c *StepClock) Set(t time.Duration) {
	c.now = t
}

// Seconds converts a float seconds timestamp, as returned by raylib's
// GetTime, to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
