package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearLabel(t *testing.T) {
	cal := Default()
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2024, time.April, 1, 0, 0, 0, 0, IST), "2024-25"},
		{time.Date(2025, time.March, 31, 23, 59, 0, 0, IST), "2024-25"},
		{time.Date(2025, time.January, 15, 0, 0, 0, 0, IST), "2024-25"},
		{time.Date(2099, time.December, 1, 0, 0, 0, 0, IST), "2099-00"},
		// 31 March 19:00 UTC is already 1 April in IST.
		{time.Date(2025, time.March, 31, 19, 0, 0, 0, time.UTC), "2025-26"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cal.Label(tc.at), tc.at.String())
	}

	calendarYear := NewCalendar(time.January, time.UTC)
	assert.Equal(t, "2025", calendarYear.Label(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseYear(t *testing.T) {
	cal := Default()
	year, err := cal.ParseYear("2024-25")
	require.NoError(t, err)
	assert.Equal(t, 2024, year.Start)

	start, end := cal.Bounds(year)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, IST), start)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, IST), end)

	for _, bad := range []string{"", "2024", "2024-26", "24-25", "abcd-ef"} {
		_, err := cal.ParseYear(bad)
		assert.ErrorIs(t, err, ErrInvalidFiscalYear, bad)
	}
}

func TestQuarterOf(t *testing.T) {
	cal := Default()
	assert.Equal(t, 1, cal.QuarterOf(time.Date(2024, time.June, 30, 0, 0, 0, 0, IST)))
	assert.Equal(t, 2, cal.QuarterOf(time.Date(2024, time.July, 1, 0, 0, 0, 0, IST)))
	assert.Equal(t, 3, cal.QuarterOf(time.Date(2024, time.December, 31, 0, 0, 0, 0, IST)))
	assert.Equal(t, 4, cal.QuarterOf(time.Date(2025, time.February, 1, 0, 0, 0, 0, IST)))
}

func TestPeriods(t *testing.T) {
	cal := Default()

	month := cal.Month(2024, time.July)
	assert.Equal(t, "2024-07", month.Key())
	assert.Equal(t, "2024-25", month.Year.Label())
	assert.Equal(t, 2, month.Quarter)
	start, end := cal.PeriodBounds(month)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, IST), start)
	assert.Equal(t, time.Date(2024, time.August, 1, 0, 0, 0, 0, IST), end)

	year, _ := cal.ParseYear("2024-25")
	q4, err := cal.Quarter(year, 4)
	require.NoError(t, err)
	assert.Equal(t, "2024-25-Q4", q4.Key())
	start, end = cal.PeriodBounds(q4)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, IST), start)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, IST), end)

	_, err = cal.Quarter(year, 5)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	parsed, err := cal.ParsePeriod("2024-25-Q2")
	require.NoError(t, err)
	assert.Equal(t, PeriodQuarterly, parsed.Kind)
	assert.Equal(t, 2, parsed.Quarter)

	parsed, err = cal.ParsePeriod("2025-02")
	require.NoError(t, err)
	assert.Equal(t, month.Kind, parsed.Kind)
	assert.Equal(t, "2024-25", parsed.Year.Label())

	_, err = cal.ParsePeriod("July 2024")
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	prev := cal.PreviousMonth(time.Date(2025, time.January, 1, 9, 0, 0, 0, IST))
	assert.Equal(t, "2024-12", prev.Key())
}
