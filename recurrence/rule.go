package recurrence

import (
	"encoding/json"
	"fmt"
	"time"
)

// Frequency is the base repetition unit of a rule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// WeekAndDay pins a monthly rule to the nth weekday of the month,
// e.g. {Week: 2, Day: time.Tuesday} for the second Tuesday.
type WeekAndDay struct {
	Week int          `json:"weekOfMonth"` // 1-5, counted from the start of the month
	Day  time.Weekday `json:"dayOfWeek"`
}

// Rule describes a repeating pattern. The timezone is mandatory: all date
// arithmetic is done against the rule's zone, so "daily at 09:00" stays at
// 09:00 local across DST transitions.
//
// Terminal condition is at most one of Count or EndDate. With neither set the
// rule produces exactly one occurrence: the anchor, or the first instant
// matching the rule's refinements when the anchor itself does not match.
type Rule struct {
	Frequency Frequency `json:"frequency"`
	// Interval between occurrences in units of Frequency. Zero is treated as 1.
	Interval int    `json:"interval,omitempty"`
	Timezone string `json:"timezone"`

	// Count is the number of occurrences to produce. Zero means unset.
	Count int `json:"count,omitempty"`
	// EndDate is the inclusive upper bound for occurrence starts.
	EndDate *time.Time `json:"endDate,omitempty"`

	// DaysOfWeek restricts weekly rules to a set of weekdays.
	DaysOfWeek []time.Weekday `json:"daysOfWeek,omitempty"`
	// DayOfMonth fixes monthly rules to a day 1-31, clamped to the last day
	// of shorter months. Zero means unset. Mutually exclusive with WeekAndDay.
	DayOfMonth int `json:"dayOfMonth,omitempty"`
	// WeekAndDay fixes monthly rules to the nth weekday of the month.
	WeekAndDay *WeekAndDay `json:"weekAndDayOfMonth,omitempty"`
}

// ruleJSON is the wire shape of a Rule: endDate travels as epoch
// milliseconds.
type ruleJSON struct {
	Frequency  Frequency      `json:"frequency"`
	Interval   int            `json:"interval,omitempty"`
	Timezone   string         `json:"timezone"`
	Count      int            `json:"count,omitempty"`
	EndDate    *int64         `json:"endDate,omitempty"`
	DaysOfWeek []time.Weekday `json:"daysOfWeek,omitempty"`
	DayOfMonth int            `json:"dayOfMonth,omitempty"`
	WeekAndDay *WeekAndDay    `json:"weekAndDayOfMonth,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{
		Frequency:  r.Frequency,
		Interval:   r.Interval,
		Timezone:   r.Timezone,
		Count:      r.Count,
		DaysOfWeek: r.DaysOfWeek,
		DayOfMonth: r.DayOfMonth,
		WeekAndDay: r.WeekAndDay,
	}
	if r.EndDate != nil {
		ms := r.EndDate.UnixMilli()
		out.EndDate = &ms
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Rule{
		Frequency:  in.Frequency,
		Interval:   in.Interval,
		Timezone:   in.Timezone,
		Count:      in.Count,
		DaysOfWeek: in.DaysOfWeek,
		DayOfMonth: in.DayOfMonth,
		WeekAndDay: in.WeekAndDay,
	}
	if in.EndDate != nil {
		end := time.UnixMilli(*in.EndDate).UTC()
		r.EndDate = &end
	}
	return nil
}

// Validate checks structural constraints. Generate calls it before expanding,
// so a rule without a timezone fails fast there too.
func (r Rule) Validate() error {
	switch r.Frequency {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return fmt.Errorf("unknown frequency %q", r.Frequency)
	}
	if r.Timezone == "" {
		return fmt.Errorf("rule has no timezone")
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", r.Timezone, err)
	}
	if r.Interval < 0 {
		return fmt.Errorf("interval must be positive, got %d", r.Interval)
	}
	if r.Count < 0 {
		return fmt.Errorf("count must be positive, got %d", r.Count)
	}
	if r.Count > 0 && r.EndDate != nil {
		return fmt.Errorf("count and endDate are mutually exclusive")
	}
	if r.DayOfMonth != 0 && (r.DayOfMonth < 1 || r.DayOfMonth > 31) {
		return fmt.Errorf("dayOfMonth must be 1-31, got %d", r.DayOfMonth)
	}
	if r.DayOfMonth != 0 && r.WeekAndDay != nil {
		return fmt.Errorf("dayOfMonth and weekAndDayOfMonth are mutually exclusive")
	}
	if r.WeekAndDay != nil {
		if r.WeekAndDay.Week < 1 || r.WeekAndDay.Week > 5 {
			return fmt.Errorf("weekOfMonth must be 1-5, got %d", r.WeekAndDay.Week)
		}
		if r.WeekAndDay.Day < time.Sunday || r.WeekAndDay.Day > time.Saturday {
			return fmt.Errorf("dayOfWeek must be 0-6, got %d", r.WeekAndDay.Day)
		}
	}
	for _, d := range r.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("daysOfWeek values must be 0-6, got %d", d)
		}
	}
	return nil
}

// interval returns the effective interval, defaulting to 1.
func (r Rule) interval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

// Equal reports whether two rules describe the same pattern. Scalar fields
// must match exactly, DaysOfWeek is compared as a set, and WeekAndDay
// descriptors must match field-by-field or both be absent.
func (r Rule) Equal(o Rule) bool {
	if r.Frequency != o.Frequency ||
		r.interval() != o.interval() ||
		r.Count != o.Count ||
		r.DayOfMonth != o.DayOfMonth ||
		r.Timezone != o.Timezone {
		return false
	}
	if (r.EndDate == nil) != (o.EndDate == nil) {
		return false
	}
	if r.EndDate != nil && !r.EndDate.Equal(*o.EndDate) {
		return false
	}
	if (r.WeekAndDay == nil) != (o.WeekAndDay == nil) {
		return false
	}
	if r.WeekAndDay != nil && *r.WeekAndDay != *o.WeekAndDay {
		return false
	}
	return sameWeekdaySet(r.DaysOfWeek, o.DaysOfWeek)
}

func sameWeekdaySet(a, b []time.Weekday) bool {
	var setA, setB uint8
	for _, d := range a {
		setA |= 1 << uint(d)
	}
	for _, d := range b {
		setB |= 1 << uint(d)
	}
	return setA == setB
}
