package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/remindly/remind-api/internal/models"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNextOccurrence_Daily(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		current  time.Time
		interval int
		want     time.Time
	}{
		{"every day", date(2026, 3, 10, 9, 0), 1, date(2026, 3, 11, 9, 0)},
		{"every 3 days", date(2026, 3, 10, 9, 0), 3, date(2026, 3, 13, 9, 0)},
		{"across month boundary", date(2026, 1, 31, 18, 30), 1, date(2026, 2, 1, 18, 30)},
		{"across year boundary", date(2025, 12, 31, 23, 59), 1, date(2026, 1, 1, 23, 59)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pattern := &models.RecurrencePattern{Frequency: models.FrequencyDaily, Interval: tt.interval}
			got, err := NextOccurrence(tt.current, pattern)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrence_Weekly(t *testing.T) {
	t.Parallel()
	// 2026-03-09 is a Monday
	monday := date(2026, 3, 9, 8, 0)
	wednesday := date(2026, 3, 11, 8, 0)

	tests := []struct {
		name    string
		current time.Time
		pattern *models.RecurrencePattern
		want    time.Time
	}{
		{
			"no day selection stays on weekday",
			monday,
			&models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 1},
			date(2026, 3, 16, 8, 0),
		},
		{
			"no day selection biweekly",
			monday,
			&models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 2},
			date(2026, 3, 23, 8, 0),
		},
		{
			"monday to wednesday within week",
			monday,
			&models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{0, 2}},
			wednesday,
		},
		{
			"wednesday wraps to next monday",
			wednesday,
			&models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{0, 2}},
			date(2026, 3, 16, 8, 0),
		},
		{
			"single day equal to current weekday advances a full cycle",
			monday,
			&models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{0}},
			date(2026, 3, 16, 8, 0),
		},
		{
			"wrap honors interval",
			wednesday,
			&models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 2, DaysOfWeek: []int{0, 2}},
			date(2026, 3, 23, 8, 0),
		},
		{
			"unsorted day selection",
			monday,
			&models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{4, 2}},
			wednesday,
		},
		{
			"sunday selection from saturday",
			date(2026, 3, 14, 10, 0), // Saturday
			&models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{6}},
			date(2026, 3, 15, 10, 0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NextOccurrence(tt.current, tt.pattern)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v (%s), want %v (%s)", got, got.Weekday(), tt.want, tt.want.Weekday())
			}
		})
	}
}

func TestNextOccurrence_Monthly(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		current time.Time
		pattern *models.RecurrencePattern
		want    time.Time
	}{
		{
			"jan 31 clamps to feb 28",
			date(2026, 1, 31, 9, 0),
			&models.RecurrencePattern{Frequency: models.FrequencyMonthly, Interval: 1},
			date(2026, 2, 28, 9, 0),
		},
		{
			"jan 31 clamps to feb 29 in leap year",
			date(2024, 1, 31, 9, 0),
			&models.RecurrencePattern{Frequency: models.FrequencyMonthly, Interval: 1},
			date(2024, 2, 29, 9, 0),
		},
		{
			"day of month anchor recovers after a short month",
			date(2026, 2, 28, 9, 0),
			&models.RecurrencePattern{Frequency: models.FrequencyMonthly, Interval: 1, DayOfMonth: 31},
			date(2026, 3, 31, 9, 0),
		},
		{
			"mid-month day is unaffected",
			date(2026, 4, 15, 12, 30),
			&models.RecurrencePattern{Frequency: models.FrequencyMonthly, Interval: 1},
			date(2026, 5, 15, 12, 30),
		},
		{
			"quarterly interval",
			date(2026, 1, 15, 9, 0),
			&models.RecurrencePattern{Frequency: models.FrequencyMonthly, Interval: 3},
			date(2026, 4, 15, 9, 0),
		},
		{
			"december wraps the year",
			date(2026, 12, 31, 9, 0),
			&models.RecurrencePattern{Frequency: models.FrequencyMonthly, Interval: 1},
			date(2027, 1, 31, 9, 0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NextOccurrence(tt.current, tt.pattern)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrence_Yearly(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		current time.Time
		pattern *models.RecurrencePattern
		want    time.Time
	}{
		{
			"same date next year",
			date(2026, 6, 10, 9, 0),
			&models.RecurrencePattern{Frequency: models.FrequencyYearly, Interval: 1},
			date(2027, 6, 10, 9, 0),
		},
		{
			"feb 29 clamps to feb 28",
			date(2024, 2, 29, 9, 0),
			&models.RecurrencePattern{Frequency: models.FrequencyYearly, Interval: 1},
			date(2025, 2, 28, 9, 0),
		},
		{
			"month and day overrides",
			date(2026, 6, 10, 9, 0),
			&models.RecurrencePattern{Frequency: models.FrequencyYearly, Interval: 1, Month: 12, DayOfMonth: 25},
			date(2027, 12, 25, 9, 0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NextOccurrence(tt.current, tt.pattern)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrence_StrictlyAfter(t *testing.T) {
	t.Parallel()
	current := date(2026, 3, 9, 8, 0)
	patterns := []*models.RecurrencePattern{
		{Frequency: models.FrequencyDaily, Interval: 1},
		{Frequency: models.FrequencyWeekly, Interval: 1},
		{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{0}},
		{Frequency: models.FrequencyMonthly, Interval: 1},
		{Frequency: models.FrequencyYearly, Interval: 1},
	}
	for _, pattern := range patterns {
		got, err := NextOccurrence(current, pattern)
		if err != nil {
			t.Fatalf("NextOccurrence(%s) error = %v", pattern.Frequency, err)
		}
		if !got.After(current) {
			t.Errorf("NextOccurrence(%s) = %v, not strictly after %v", pattern.Frequency, got, current)
		}
	}
}

func TestNextOccurrence_PreservesTimeOfDay(t *testing.T) {
	t.Parallel()
	current := time.Date(2026, 1, 31, 17, 45, 30, 123456789, time.UTC)
	pattern := &models.RecurrencePattern{Frequency: models.FrequencyMonthly, Interval: 1}

	got, err := NextOccurrence(current, pattern)
	if err != nil {
		t.Fatalf("NextOccurrence() error = %v", err)
	}
	if got.Hour() != 17 || got.Minute() != 45 || got.Second() != 30 || got.Nanosecond() != 123456789 {
		t.Errorf("time of day not preserved: got %v", got)
	}
}

func TestNextOccurrence_InvalidPattern(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		pattern *models.RecurrencePattern
	}{
		{"nil pattern", nil},
		{"zero interval", &models.RecurrencePattern{Frequency: models.FrequencyDaily, Interval: 0}},
		{"negative interval", &models.RecurrencePattern{Frequency: models.FrequencyDaily, Interval: -2}},
		{"unknown frequency", &models.RecurrencePattern{Frequency: "hourly", Interval: 1}},
		{"weekday out of range", &models.RecurrencePattern{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{7}}},
		{"day of month out of range", &models.RecurrencePattern{Frequency: models.FrequencyMonthly, Interval: 1, DayOfMonth: 32}},
		{"month out of range", &models.RecurrencePattern{Frequency: models.FrequencyYearly, Interval: 1, Month: 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NextOccurrence(date(2026, 3, 9, 8, 0), tt.pattern)
			var patternErr *models.InvalidPatternError
			if !errors.As(err, &patternErr) {
				t.Errorf("NextOccurrence() error = %v, want InvalidPatternError", err)
			}
		})
	}
}

func TestMondayIndex(t *testing.T) {
	t.Parallel()
	tests := []struct {
		wd   time.Weekday
		want int
	}{
		{time.Monday, 0},
		{time.Tuesday, 1},
		{time.Saturday, 5},
		{time.Sunday, 6},
	}
	for _, tt := range tests {
		if got := mondayIndex(tt.wd); got != tt.want {
			t.Errorf("mondayIndex(%s) = %d, want %d", tt.wd, got, tt.want)
		}
	}
}
