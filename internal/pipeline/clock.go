package pipeline

import "github.com/jonboulle/clockwork"

// clock times the stages and stamps the last successful run. Tests freeze it
// via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
