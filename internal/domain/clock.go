package domain

import "github.com/jonboulle/clockwork"

// clock is the package-level time source used by quality scoring, validity
// windows, and flare-activity summaries. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the package time source. Exposed so callers outside the
// package (the orchestrator, fixture tooling) stay consistent with scoring
// when tests freeze time.
func Clock() clockwork.Clock {
	return clock
}
