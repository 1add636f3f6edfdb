package dataset

import "github.com/jonboulle/clockwork"

// clock stamps Snapshot.LoadedAt and times loads. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for snapshot loading. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
