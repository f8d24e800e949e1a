package event

import "time"

// Clock is injected into every SUT so that tests can drive the scheduler
// and event activation logic with a fake, monotonically advancing clock
// instead of wall time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
