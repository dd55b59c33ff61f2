package clock

import "time"

// Clock abstracts "now" so date-threshold math is deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func System() Clock { return systemClock{} }

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

// Fixed returns a clock pinned to the given instant.
func Fixed(at time.Time) Clock { return fixedClock{at: at} }
