package redraw

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time without a date, used for the night boundaries.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// matchesSecond reports whether now equals this time of day at second
// granularity (HH:MM:00). The tick driver runs once per second, so exact
// equality is how a boundary crossing is observed.
func (t TimeOfDay) matchesSecond(now time.Time) bool {
	return now.Hour() == t.Hour && now.Minute() == t.Minute && now.Second() == 0
}

// Coordinator decides, once per tick, whether a scene must recompute its
// visual output or may reuse the prior frame. Triggers: wall-clock hour
// rollover, exact night-start/night-end boundary, upstream data change, or
// an explicit Force. The first tick after startup always redraws since there
// is no prior frame. Each scene owns its own Coordinator.
type Coordinator struct {
	nightStart TimeOfDay
	nightEnd   TimeOfDay

	lastObservedHour int // -1 until the first redraw is reported
	forced           bool
}

// New creates a Coordinator with the given night boundaries, armed to redraw
// on the first tick.
func New(nightStart, nightEnd TimeOfDay) *Coordinator {
	return &Coordinator{
		nightStart:       nightStart,
		nightEnd:         nightEnd,
		lastObservedHour: -1,
		forced:           true,
	}
}

// Force arms the coordinator so the next ShouldRedraw reports true. Used for
// invalidations the tick inputs cannot see, such as flight data arriving.
func (c *Coordinator) Force() {
	c.forced = true
}

// ShouldRedraw is called once per rendering tick. It reports true at most
// once per trigger and records the observed hour as a side effect of
// reporting true.
func (c *Coordinator) ShouldRedraw(now time.Time, dataChanged bool) bool {
	if dataChanged || c.hourRolled(now) || c.crossesNightBoundary(now) {
		c.forced = true
	}
	if !c.forced {
		return false
	}
	c.forced = false
	c.lastObservedHour = now.Hour()
	return true
}

func (c *Coordinator) hourRolled(now time.Time) bool {
	return c.lastObservedHour >= 0 && now.Hour() != c.lastObservedHour
}

func (c *Coordinator) crossesNightBoundary(now time.Time) bool {
	return c.nightStart.matchesSecond(now) || c.nightEnd.matchesSecond(now)
}
