package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/gstengine/pkg/apperror"
)

var (
	ErrInvalidFiscalYear = apperror.New(apperror.DomainValidation, 1201, "invalid_fiscal_year", "fiscal year label is invalid")
	ErrInvalidPeriod     = apperror.New(apperror.DomainValidation, 1202, "invalid_period", "return period is invalid")
)

// IST is the statutory timezone for fiscal boundaries.
var IST = time.FixedZone("IST", 5*3600+1800)

// Calendar maps timestamps to fiscal years that start on the first day of
// StartMonth in the calendar's location.
type Calendar struct {
	startMonth time.Month
	loc        *time.Location
}

func NewCalendar(startMonth time.Month, loc *time.Location) Calendar {
	if startMonth < time.January || startMonth > time.December {
		startMonth = time.April
	}
	if loc == nil {
		loc = IST
	}
	return Calendar{startMonth: startMonth, loc: loc}
}

// Default is the April-March Indian fiscal calendar.
func Default() Calendar {
	return NewCalendar(time.April, IST)
}

func (c Calendar) StartMonth() time.Month { return c.startMonth }

func (c Calendar) Location() *time.Location { return c.loc }

// Year identifies a fiscal year by the calendar year it starts in.
type Year struct {
	Start      int
	startMonth time.Month
}

// Label renders the year as "2024-25".
func (y Year) Label() string {
	if y.startMonth == time.January {
		return strconv.Itoa(y.Start)
	}
	return fmt.Sprintf("%d-%02d", y.Start, (y.Start+1)%100)
}

func (y Year) String() string { return y.Label() }

func (c Calendar) YearOf(t time.Time) Year {
	local := t.In(c.loc)
	start := local.Year()
	if local.Month() < c.startMonth {
		start--
	}
	return Year{Start: start, startMonth: c.startMonth}
}

// Label returns the fiscal-year label for t.
func (c Calendar) Label(t time.Time) string {
	return c.YearOf(t).Label()
}

// ParseYear accepts labels produced by Year.Label.
func (c Calendar) ParseYear(label string) (Year, error) {
	label = strings.TrimSpace(label)
	if len(label) < 4 {
		return Year{}, ErrInvalidFiscalYear.WithMessage("invalid fiscal year %q", label)
	}
	start, err := strconv.Atoi(label[:4])
	if err != nil {
		return Year{}, ErrInvalidFiscalYear.WithMessage("invalid fiscal year %q", label)
	}
	year := Year{Start: start, startMonth: c.startMonth}
	if year.Label() != label {
		return Year{}, ErrInvalidFiscalYear.WithMessage("invalid fiscal year %q", label)
	}
	return year, nil
}

// Bounds returns [start, end) of the fiscal year.
func (c Calendar) Bounds(y Year) (time.Time, time.Time) {
	start := time.Date(y.Start, c.startMonth, 1, 0, 0, 0, 0, c.loc)
	return start, start.AddDate(1, 0, 0)
}

// QuarterOf returns the fiscal quarter (1-4) containing t.
func (c Calendar) QuarterOf(t time.Time) int {
	local := t.In(c.loc)
	offset := (int(local.Month()) - int(c.startMonth) + 12) % 12
	return offset/3 + 1
}
