package models

import "time"

// Frequency represents how often a recurring task repeats
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurrencePattern describes a repeat rule. Only the fields relevant to
// Frequency are meaningful; the rest are ignored. Weekday indices follow the
// due-date convention 0=Monday..6=Sunday.
type RecurrencePattern struct {
	Frequency  Frequency `json:"frequency"`
	Interval   int       `json:"interval"`
	DaysOfWeek []int     `json:"days_of_week,omitempty"`
	DayOfMonth int       `json:"day_of_month,omitempty"`
	Month      int       `json:"month,omitempty"`

	// EndDate bounds the recurrence: no occurrence is created past it.
	// Nil means the recurrence is open-ended.
	EndDate *time.Time `json:"end_date,omitempty"`
}

// Ended reports whether the recurrence is over at the given occurrence time.
func (p *RecurrencePattern) Ended(at time.Time) bool {
	return p != nil && p.EndDate != nil && at.After(*p.EndDate)
}

// InvalidPatternError reports a recurrence pattern that cannot be used.
// Patterns are validated at construction time so an invalid one is never
// persisted or handed to the occurrence calculator.
type InvalidPatternError struct {
	Reason string
}

func (e *InvalidPatternError) Error() string {
	return "invalid recurrence pattern: " + e.Reason
}

// Validate checks the pattern fields relevant to its frequency.
func (p *RecurrencePattern) Validate() error {
	if p == nil {
		return &InvalidPatternError{Reason: "pattern is nil"}
	}

	switch p.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return &InvalidPatternError{Reason: "unknown frequency: " + string(p.Frequency)}
	}

	if p.Interval < 1 {
		return &InvalidPatternError{Reason: "interval must be a positive integer"}
	}

	if p.Frequency == FrequencyWeekly {
		for _, d := range p.DaysOfWeek {
			if d < 0 || d > 6 {
				return &InvalidPatternError{Reason: "days_of_week entries must be in 0..6 (0=Monday)"}
			}
		}
	}

	if p.Frequency == FrequencyMonthly || p.Frequency == FrequencyYearly {
		if p.DayOfMonth != 0 && (p.DayOfMonth < 1 || p.DayOfMonth > 31) {
			return &InvalidPatternError{Reason: "day_of_month must be in 1..31"}
		}
	}

	if p.Frequency == FrequencyYearly {
		if p.Month != 0 && (p.Month < 1 || p.Month > 12) {
			return &InvalidPatternError{Reason: "month must be in 1..12"}
		}
	}

	return nil
}

// Clone returns a deep copy of the pattern, or nil for a nil pattern.
func (p *RecurrencePattern) Clone() *RecurrencePattern {
	if p == nil {
		return nil
	}
	c := *p
	c.DaysOfWeek = append([]int(nil), p.DaysOfWeek...)
	if p.EndDate != nil {
		end := *p.EndDate
		c.EndDate = &end
	}
	return &c
}
