package recurrence

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// Frequency enumerates the supported billing cycles.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// ErrUnknownFrequency flags a frequency outside the four supported values.
var ErrUnknownFrequency = errors.New("unknown billing frequency")

// Spec describes a recurring billing cycle. TotalCount bounds the number of
// occurrences; zero or negative means the cycle repeats indefinitely. The
// scheduler holds no state of its own: every function here is pure over a
// spec and a date.
type Spec struct {
	Frequency  Frequency
	StartDate  time.Time
	TotalCount int
}

// Next returns the occurrence that follows from. Month and year steps are
// calendar aware: the day of month is preserved where valid and clamped to
// the last day of the target month otherwise, so Jan 31 + 1 month is Feb 28
// (or 29), never Mar 3, and Feb 29 + 1 year is Feb 28.
func Next(freq Frequency, from time.Time) (time.Time, error) {
	switch freq {
	case Daily:
		return from.AddDate(0, 0, 1), nil
	case Weekly:
		return from.AddDate(0, 0, 7), nil
	case Monthly:
		return addMonths(from, 1), nil
	case Yearly:
		return addMonths(from, 12), nil
	default:
		return time.Time{}, fmt.Errorf("%q: %w", freq, ErrUnknownFrequency)
	}
}

// addMonths steps the calendar without the day-overflow normalisation of
// time.AddDate.
func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	h, m, s := t.Clock()
	return time.Date(first.Year(), first.Month(), day, h, m, s, t.Nanosecond(), t.Location())
}

// Occurrences returns a restartable sequence of occurrence dates seeded at
// StartDate, stepping via Next. The sequence is bounded by TotalCount when
// positive and infinite otherwise; callers bound consumption by breaking out
// of the range loop. Nothing is held open, so abandoning the sequence is
// free.
func Occurrences(spec Spec) (iter.Seq[time.Time], error) {
	if _, err := Next(spec.Frequency, spec.StartDate); err != nil {
		return nil, err
	}
	return func(yield func(time.Time) bool) {
		current := spec.StartDate
		for i := 0; spec.TotalCount <= 0 || i < spec.TotalCount; i++ {
			if !yield(current) {
				return
			}
			current, _ = Next(spec.Frequency, current)
		}
	}, nil
}

// UpcomingN collects the first n occurrences of the cycle. Fewer are
// returned when TotalCount runs out first.
func UpcomingN(spec Spec, n int) ([]time.Time, error) {
	seq, err := Occurrences(spec)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, n)
	for d := range seq {
		if len(out) == n {
			break
		}
		out = append(out, d)
	}
	return out, nil
}

// Until collects occurrences up to and including cutoff.
func Until(spec Spec, cutoff time.Time) ([]time.Time, error) {
	seq, err := Occurrences(spec)
	if err != nil {
		return nil, err
	}
	var out []time.Time
	for d := range seq {
		if d.After(cutoff) {
			break
		}
		out = append(out, d)
	}
	return out, nil
}
