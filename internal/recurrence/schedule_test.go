package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDailyWeekly(t *testing.T) {
	from := date(2025, time.March, 10)
	got, err := Next(Daily, from)
	require.NoError(t, err)
	require.Equal(t, date(2025, time.March, 11), got)

	got, err = Next(Weekly, from)
	require.NoError(t, err)
	require.Equal(t, date(2025, time.March, 17), got)
}

func TestNextMonthlyClampsToMonthEnd(t *testing.T) {
	got, err := Next(Monthly, date(2025, time.January, 31))
	require.NoError(t, err)
	require.Equal(t, date(2025, time.February, 28), got)

	// leap year February has 29 days
	got, err = Next(Monthly, date(2024, time.January, 31))
	require.NoError(t, err)
	require.Equal(t, date(2024, time.February, 29), got)

	// mid-month days pass through untouched
	got, err = Next(Monthly, date(2025, time.April, 15))
	require.NoError(t, err)
	require.Equal(t, date(2025, time.May, 15), got)

	// December rolls the year
	got, err = Next(Monthly, date(2025, time.December, 31))
	require.NoError(t, err)
	require.Equal(t, date(2026, time.January, 31), got)
}

func TestNextYearlyLeapDay(t *testing.T) {
	got, err := Next(Yearly, date(2024, time.February, 29))
	require.NoError(t, err)
	require.Equal(t, date(2025, time.February, 28), got)

	got, err = Next(Yearly, date(2025, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, date(2026, time.June, 1), got)
}

func TestNextPreservesClockAndLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	from := time.Date(2025, time.January, 31, 9, 30, 0, 0, loc)
	got, err := Next(Monthly, from)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.February, 28, 9, 30, 0, 0, loc), got)
}

func TestNextUnknownFrequency(t *testing.T) {
	_, err := Next(Frequency("fortnightly"), time.Now())
	require.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestOccurrencesBoundedByTotalCount(t *testing.T) {
	spec := Spec{Frequency: Monthly, StartDate: date(2025, time.January, 31), TotalCount: 3}
	got, err := UpcomingN(spec, 10)
	require.NoError(t, err)
	require.Equal(t, []time.Time{
		date(2025, time.January, 31),
		date(2025, time.February, 28),
		date(2025, time.March, 28),
	}, got)
}

func TestOccurrencesInfiniteWhenUnbounded(t *testing.T) {
	spec := Spec{Frequency: Daily, StartDate: date(2025, time.January, 1)}
	got, err := UpcomingN(spec, 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, date(2025, time.January, 1), got[0])
	require.Equal(t, date(2025, time.January, 5), got[4])
}

func TestOccurrencesRestartable(t *testing.T) {
	spec := Spec{Frequency: Weekly, StartDate: date(2025, time.January, 6)}
	seq, err := Occurrences(spec)
	require.NoError(t, err)

	collect := func() []time.Time {
		var out []time.Time
		for d := range seq {
			if len(out) == 4 {
				break
			}
			out = append(out, d)
		}
		return out
	}
	first := collect()
	second := collect()
	require.Equal(t, first, second)
}

func TestUntil(t *testing.T) {
	spec := Spec{Frequency: Monthly, StartDate: date(2025, time.January, 15)}
	got, err := Until(spec, date(2025, time.April, 1))
	require.NoError(t, err)
	require.Equal(t, []time.Time{
		date(2025, time.January, 15),
		date(2025, time.February, 15),
		date(2025, time.March, 15),
	}, got)
}

func TestOccurrencesUnknownFrequency(t *testing.T) {
	_, err := Occurrences(Spec{Frequency: "hourly", StartDate: time.Now()})
	require.ErrorIs(t, err, ErrUnknownFrequency)
}
