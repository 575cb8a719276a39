// Package testing moves fake clocks across fiscal period boundaries so
// scheduler jobs can be exercised without waiting for real month ends.
package testing

import (
	"time"

	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/fiscal"
)

// PeriodClock drives a fake clock in the calendar's local time.
type PeriodClock struct {
	clock    *clock.FakeClock
	calendar fiscal.Calendar
}

func NewPeriodClock(c *clock.FakeClock, calendar fiscal.Calendar) *PeriodClock {
	return &PeriodClock{clock: c, calendar: calendar}
}

// At sets the clock to the given local date and hour.
func (p *PeriodClock) At(year int, month time.Month, day, hour int) time.Time {
	t := time.Date(year, month, day, hour, 0, 0, 0, p.calendar.Location())
	p.clock.Set(t)
	return t
}

// StartOfNextMonth moves the clock to 00:30 local on the first day of the
// month after the current one.
func (p *PeriodClock) StartOfNextMonth() time.Time {
	now := p.clock.Now().In(p.calendar.Location())
	first := time.Date(now.Year(), now.Month(), 1, 0, 30, 0, 0, p.calendar.Location()).AddDate(0, 1, 0)
	p.clock.Set(first)
	return first
}

// StartOfNextQuarter moves the clock to the first day of the next fiscal
// quarter.
func (p *PeriodClock) StartOfNextQuarter() time.Time {
	q := p.calendar.QuarterOf(p.clock.Now())
	for {
		next := p.StartOfNextMonth()
		if p.calendar.QuarterOf(next) != q {
			return next
		}
	}
}
