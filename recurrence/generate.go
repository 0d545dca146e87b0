package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxOccurrences is the safety ceiling applied to every expansion, regardless
// of the rule's own Count or EndDate. It bounds the damage of a huge count or
// a far-future end date.
const MaxOccurrences = 200

// Generate expands a rule from the given anchor into an ordered, strictly
// increasing list of occurrence start times. It is a pure function of its
// inputs.
//
// Non-yearly frequencies are expanded in "neutral" space: the anchor's
// wall-clock fields in the rule's timezone are reinterpreted as UTC, the rule
// arithmetic runs there, and each result is converted back. That keeps the
// underlying rrule engine timezone-naive while occurrences stay pinned to the
// local wall-clock time across DST transitions.
func Generate(anchor time.Time, rule Rule) ([]time.Time, error) {
	return generate(anchor, rule, MaxOccurrences)
}

func generate(anchor time.Time, rule Rule, ceiling int) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if ceiling <= 0 || ceiling > MaxOccurrences {
		ceiling = MaxOccurrences
	}

	loc, err := time.LoadLocation(rule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", rule.Timezone, err)
	}

	if rule.Frequency == Yearly {
		return generateYearly(anchor, rule, loc, ceiling), nil
	}

	opt := rrule.ROption{
		Freq:     rruleFreq(rule.Frequency),
		Interval: rule.interval(),
		Dtstart:  toNeutralAnchor(anchor, loc),
	}

	switch rule.Frequency {
	case Weekly:
		for _, d := range rule.DaysOfWeek {
			opt.Byweekday = append(opt.Byweekday, rruleWeekday(d))
		}
	case Monthly:
		switch {
		case rule.WeekAndDay != nil:
			wd := rruleWeekday(rule.WeekAndDay.Day)
			opt.Byweekday = []rrule.Weekday{wd.Nth(rule.WeekAndDay.Week)}
		case rule.DayOfMonth > 28:
			// Clamp to the last valid day of shorter months: match every
			// candidate day from 28 up and keep the latest one per month.
			for d := 28; d <= rule.DayOfMonth; d++ {
				opt.Bymonthday = append(opt.Bymonthday, d)
			}
			opt.Bysetpos = []int{-1}
		case rule.DayOfMonth > 0:
			opt.Bymonthday = []int{rule.DayOfMonth}
		}
	}

	var until time.Time
	switch {
	case rule.Count > 0:
		opt.Count = min(rule.Count, ceiling)
	case rule.EndDate != nil:
		until = toNeutralAnchor(*rule.EndDate, loc)
	default:
		opt.Count = 1
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build recurrence rule: %w", err)
	}

	var out []time.Time
	next := r.Iterator()
	for {
		t, ok := next()
		if !ok {
			break
		}
		// EndDate is an inclusive bound.
		if !until.IsZero() && t.After(until) {
			break
		}
		out = append(out, fromNeutralAnchor(t, loc))
		if len(out) >= ceiling {
			break
		}
	}
	return out, nil
}

// generateYearly expands yearly rules without the rrule engine: the month and
// day of the anchor's local representation repeat per year, and a year where
// that date does not exist (Feb 29 outside leap years) is skipped outright,
// never substituted.
func generateYearly(anchor time.Time, rule Rule, loc *time.Location, ceiling int) []time.Time {
	lt := anchor.In(loc)
	month, day := lt.Month(), lt.Day()

	var out []time.Time
	switch {
	case rule.Count > 0:
		// One candidate year per requested occurrence; invalid years consume
		// their slot, so the result may be shorter than Count.
		n := min(rule.Count, ceiling)
		for i := 0; i < n; i++ {
			if occ, ok := yearlyOccurrence(lt, lt.Year()+i, month, day, loc); ok {
				out = append(out, occ)
			}
		}
	case rule.EndDate != nil:
		end := *rule.EndDate
		for year := lt.Year(); len(out) < ceiling; year += rule.interval() {
			occ, ok := yearlyOccurrence(lt, year, month, day, loc)
			if ok {
				if occ.After(end) {
					break
				}
				out = append(out, occ)
				continue
			}
			// Skipped year: still check whether the range is exhausted.
			if time.Date(year, month, 1, 0, 0, 0, 0, loc).After(end) {
				break
			}
		}
	default:
		out = append(out, time.Date(lt.Year(), month, day, lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), loc))
	}
	return out
}

// yearlyOccurrence builds the occurrence for the given year, reporting false
// when the month/day combination does not exist in that year.
func yearlyOccurrence(anchor time.Time, year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	occ := time.Date(year, month, day, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), loc)
	if occ.Month() != month || occ.Day() != day {
		return time.Time{}, false
	}
	return occ, true
}

// toNeutralAnchor reinterprets t's wall-clock fields in loc as if they were
// UTC. fromNeutralAnchor is its inverse. The pair brackets the timezone-naive
// rule arithmetic.
func toNeutralAnchor(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), lt.Minute(), lt.Second(), 0, time.UTC)
}

func fromNeutralAnchor(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func rruleFreq(f Frequency) rrule.Frequency {
	switch f {
	case Daily:
		return rrule.DAILY
	case Weekly:
		return rrule.WEEKLY
	default:
		return rrule.MONTHLY
	}
}

var rruleWeekdays = [...]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

func rruleWeekday(d time.Weekday) rrule.Weekday {
	return rruleWeekdays[d]
}
