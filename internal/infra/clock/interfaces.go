// Package clock provides an injectable notion of time, with a real and a
// manually advanced implementation, so time-dependent code can be tested
// without real sleeps. The pipeline driver holds a Clock; its worker
// pools do not use it.
package clock

import "time"

// Clock abstracts time operations for better testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After returns a channel that receives the current time after d has
	// elapsed, mirroring time.After.
	After(d time.Duration) <-chan time.Time
}
