// Package recurrence implements the occurrence date arithmetic for
// recurring transaction rules. It is pure: no storage, no clocks.
package recurrence

import (
	"fmt"
	"time"
)

// DateLayout is the wire/storage format for occurrence dates.
const DateLayout = "2006-01-02"

type intervalKind int

const (
	kindDaily intervalKind = iota
	kindWeekly
	kindMonthly
)

// anchorNone marks a rule without a day-of-week/day-of-month anchor.
const anchorNone = -1

// Rule is a recurrence rule. The zero value is a daily rule. Anchored
// weekly/monthly rules can only be built through the constructors, so an
// out-of-range anchor is unrepresentable.
type Rule struct {
	kind   intervalKind
	anchor int
}

// Daily returns a rule that recurs every day.
func Daily() Rule {
	return Rule{kind: kindDaily, anchor: anchorNone}
}

// Weekly returns a rule that recurs on the given weekday (0 = Sunday).
func Weekly(dayOfWeek int) (Rule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return Rule{}, fmt.Errorf("dayOfWeek %d out of range 0-6", dayOfWeek)
	}
	return Rule{kind: kindWeekly, anchor: dayOfWeek}, nil
}

// WeeklyAny returns a rule that recurs every 7 days from the reference date.
func WeeklyAny() Rule {
	return Rule{kind: kindWeekly, anchor: anchorNone}
}

// Monthly returns a rule that recurs on the given day of month, clamped to
// the last day of shorter months.
func Monthly(dayOfMonth int) (Rule, error) {
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return Rule{}, fmt.Errorf("dayOfMonth %d out of range 1-31", dayOfMonth)
	}
	return Rule{kind: kindMonthly, anchor: dayOfMonth}, nil
}

// MonthlyAny returns a rule that recurs one calendar month from the
// reference date, clamped to the last day of shorter months.
func MonthlyAny() Rule {
	return Rule{kind: kindMonthly, anchor: anchorNone}
}

// Next returns the first date strictly after the reference date that
// satisfies the rule. Dates are treated as UTC midnights.
func (r Rule) Next(after time.Time) time.Time {
	after = Truncate(after)

	switch r.kind {
	case kindWeekly:
		if r.anchor == anchorNone {
			return after.AddDate(0, 0, 7)
		}
		delta := (r.anchor - int(after.Weekday()) + 7) % 7
		if delta == 0 {
			// Already on the target weekday: a full week forward,
			// never the reference date itself.
			delta = 7
		}
		return after.AddDate(0, 0, delta)

	case kindMonthly:
		day := r.anchor
		y, m, _ := after.Date()
		if day == anchorNone {
			day = after.Day()
		} else if sameMonth := clampedDate(y, m, day, after.Location()); sameMonth.After(after) {
			return sameMonth
		}
		return clampedDate(y, m+1, day, after.Location())

	default: // daily
		return after.AddDate(0, 0, 1)
	}
}

// PreviousIntervalStart steps one interval backwards from the given date,
// so that Next applied to the result can yield the date itself. Used to
// make a template's start date eligible as its first occurrence.
func (r Rule) PreviousIntervalStart(start time.Time) time.Time {
	start = Truncate(start)

	switch r.kind {
	case kindWeekly:
		return start.AddDate(0, 0, -7)
	case kindMonthly:
		y, m, d := start.Date()
		return clampedDate(y, m-1, d, start.Location())
	default:
		return start.AddDate(0, 0, -1)
	}
}

// Expand returns, in order, every occurrence strictly after afterExclusive
// and no later than horizonInclusive, honoring the optional end bound and
// the skip set. The returned slice is finite and freshly allocated.
func Expand(r Rule, afterExclusive, horizonInclusive time.Time, end *time.Time, skipDates []string) []time.Time {
	horizon := Truncate(horizonInclusive)
	if end != nil {
		e := Truncate(*end)
		if e.Before(horizon) {
			horizon = e
		}
	}

	skip := make(map[string]struct{}, len(skipDates))
	for _, s := range skipDates {
		skip[s] = struct{}{}
	}

	var out []time.Time
	for d := r.Next(afterExclusive); !d.After(horizon); d = r.Next(d) {
		if _, skipped := skip[Format(d)]; skipped {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Parse parses a YYYY-MM-DD date string into a UTC midnight.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Format renders a date as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// Truncate drops the time-of-day component, keeping the location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// clampedDate builds a date with the day clamped to the target month's
// length. Month overflow (e.g. month 13) is normalized first.
func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	if last := daysIn(firstOfMonth); day > last {
		day = last
	}
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, loc)
}

// daysIn returns the number of days in t's month.
func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
