package recurrence

import (
	"sort"
	"time"

	"github.com/remindly/remind-api/internal/models"
)

// NextOccurrence computes the next due timestamp strictly after current for
// the given pattern. It is pure: no I/O, no clock access. The time-of-day
// component of current is preserved exactly.
//
// Calendar edge cases follow the clamping policy: a day-of-month that does
// not exist in the target month (e.g. 31 in February) resolves to that
// month's last day.
func NextOccurrence(current time.Time, pattern *models.RecurrencePattern) (time.Time, error) {
	if err := pattern.Validate(); err != nil {
		return time.Time{}, err
	}

	switch pattern.Frequency {
	case models.FrequencyDaily:
		return current.AddDate(0, 0, pattern.Interval), nil
	case models.FrequencyWeekly:
		return nextWeekly(current, pattern), nil
	case models.FrequencyMonthly:
		return addMonthsClamped(current, pattern.Interval, pattern.DayOfMonth), nil
	case models.FrequencyYearly:
		return nextYearly(current, pattern), nil
	}

	// Unreachable: Validate rejects unknown frequencies.
	return time.Time{}, &models.InvalidPatternError{Reason: "unknown frequency: " + string(pattern.Frequency)}
}

// nextWeekly advances to the next selected weekday. With no day selection the
// occurrence stays on the same weekday, interval weeks out. With a selection,
// remaining days in the current week come first; once exhausted, the
// occurrence jumps interval weeks forward to the earliest selected day.
func nextWeekly(current time.Time, pattern *models.RecurrencePattern) time.Time {
	if len(pattern.DaysOfWeek) == 0 {
		return current.AddDate(0, 0, 7*pattern.Interval)
	}

	days := append([]int(nil), pattern.DaysOfWeek...)
	sort.Ints(days)

	wd := mondayIndex(current.Weekday())
	for _, d := range days {
		if d > wd {
			return current.AddDate(0, 0, d-wd)
		}
	}

	// Wrapped past the furthest selected day this week.
	return current.AddDate(0, 0, 7*pattern.Interval-wd+days[0])
}

func nextYearly(current time.Time, pattern *models.RecurrencePattern) time.Time {
	year := current.Year() + pattern.Interval

	month := current.Month()
	if pattern.Month != 0 {
		month = time.Month(pattern.Month)
	}

	day := current.Day()
	if pattern.DayOfMonth != 0 {
		day = pattern.DayOfMonth
	}
	if last := daysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day,
		current.Hour(), current.Minute(), current.Second(), current.Nanosecond(),
		current.Location())
}

// addMonthsClamped does calendar month arithmetic (not 30-day increments).
// time.Time.AddDate normalizes overflow (Jan 31 + 1 month = Mar 3), which is
// not the clamping behavior reminders want, so the target month is computed
// by hand.
func addMonthsClamped(current time.Time, months, dayOfMonth int) time.Time {
	total := int(current.Month()) - 1 + months
	year := current.Year() + total/12
	month := time.Month(total%12 + 1)

	day := current.Day()
	if dayOfMonth != 0 {
		day = dayOfMonth
	}
	if last := daysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day,
		current.Hour(), current.Minute(), current.Second(), current.Nanosecond(),
		current.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// mondayIndex converts Go's Sunday-based weekday to the 0=Monday..6=Sunday
// convention recurrence patterns use.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
