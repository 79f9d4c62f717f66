package pagereplace

import "time"

type (
	// Clock supplies the timestamps used to age units.
	// Implementations must never go backwards.
	Clock interface {
		Now() time.Time
	}
	// LogicalClock is a [Clock] that only moves
	// when it is told to. Policies use one by default
	// so that aging is deterministic.
	LogicalClock struct {
		now time.Time
	}
	wallClock struct{}
)

// Epoch is the initial time of every [LogicalClock].
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewLogicalClock returns a clock set to [Epoch].
func NewLogicalClock() *LogicalClock {
	return &LogicalClock{now: Epoch}
}

// Now returns the clock's current time.
func (c *LogicalClock) Now() time.Time {
	if c.now.IsZero() {
		c.now = Epoch
	}
	return c.now
}

// Advance moves the clock forward by d.
// Negative durations are ignored.
func (c *LogicalClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.now = c.Now().Add(d)
}

// Set moves the clock forward to t.
// Times before the clock's current time are ignored.
func (c *LogicalClock) Set(t time.Time) {
	if t.After(c.Now()) {
		c.now = t
	}
}

// WallClock returns a [Clock] backed by [time.Now].
func WallClock() Clock { return wallClock{} }

func (wallClock) Now() time.Time { return time.Now() }
