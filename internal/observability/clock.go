package observability

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock times runs; tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source of run metrics. Pass nil to reset to real
// time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time of the run clock.
func Now() time.Time { return clock.Now() }
