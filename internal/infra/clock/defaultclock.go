package clock

import "time"

// DefaultClock implements Clock using the standard time package.
type DefaultClock struct{}

// NewDefaultClock creates a new DefaultClock.
func NewDefaultClock() Clock {
	return &DefaultClock{}
}

// Now returns the current time.
func (c *DefaultClock) Now() time.Time {
	return time.Now()
}

// After returns a channel that fires once d has elapsed.
func (c *DefaultClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
