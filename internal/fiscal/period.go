package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PeriodKind string

const (
	PeriodMonthly   PeriodKind = "monthly"
	PeriodQuarterly PeriodKind = "quarterly"
)

// Period is a return period: a calendar month or a fiscal quarter.
type Period struct {
	Kind         PeriodKind
	Year         Year
	Month        time.Month
	CalendarYear int
	Quarter      int
}

// Month builds the monthly period for the given calendar month.
func (c Calendar) Month(year int, month time.Month) Period {
	at := time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
	return Period{
		Kind:         PeriodMonthly,
		Year:         c.YearOf(at),
		Month:        month,
		CalendarYear: year,
		Quarter:      c.QuarterOf(at),
	}
}

// Quarter builds the quarterly period q (1-4) of fiscal year y.
func (c Calendar) Quarter(y Year, q int) (Period, error) {
	if q < 1 || q > 4 {
		return Period{}, ErrInvalidPeriod.WithMessage("quarter must be 1-4, got %d", q)
	}
	return Period{Kind: PeriodQuarterly, Year: y, Quarter: q}, nil
}

// PreviousMonth returns the monthly period immediately before t's month.
func (c Calendar) PreviousMonth(t time.Time) Period {
	local := t.In(c.loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, c.loc).AddDate(0, -1, 0)
	return c.Month(first.Year(), first.Month())
}

// Key renders "2024-07" for months and "2024-25-Q2" for quarters.
func (p Period) Key() string {
	if p.Kind == PeriodQuarterly {
		return fmt.Sprintf("%s-Q%d", p.Year.Label(), p.Quarter)
	}
	return fmt.Sprintf("%04d-%02d", p.CalendarYear, int(p.Month))
}

func (p Period) String() string { return p.Key() }

// PeriodBounds returns [start, end) of the period.
func (c Calendar) PeriodBounds(p Period) (time.Time, time.Time) {
	if p.Kind == PeriodQuarterly {
		yearStart, _ := c.Bounds(p.Year)
		start := yearStart.AddDate(0, (p.Quarter-1)*3, 0)
		return start, start.AddDate(0, 3, 0)
	}
	start := time.Date(p.CalendarYear, p.Month, 1, 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 1, 0)
}

// ParsePeriod accepts the formats produced by Period.Key.
func (c Calendar) ParsePeriod(raw string) (Period, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.LastIndex(raw, "-Q"); idx > 0 {
		year, err := c.ParseYear(raw[:idx])
		if err != nil {
			return Period{}, ErrInvalidPeriod.WithMessage("invalid period %q", raw)
		}
		q, err := strconv.Atoi(raw[idx+2:])
		if err != nil {
			return Period{}, ErrInvalidPeriod.WithMessage("invalid period %q", raw)
		}
		return c.Quarter(year, q)
	}

	at, err := time.ParseInLocation("2006-01", raw, c.loc)
	if err != nil {
		return Period{}, ErrInvalidPeriod.WithMessage("invalid period %q", raw)
	}
	return c.Month(at.Year(), at.Month()), nil
}
