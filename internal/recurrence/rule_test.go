package recurrence

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustWeekly(t *testing.T, dow int) Rule {
	t.Helper()
	r, err := Weekly(dow)
	if err != nil {
		t.Fatalf("Weekly(%d) returned error: %v", dow, err)
	}
	return r
}

func mustMonthly(t *testing.T, dom int) Rule {
	t.Helper()
	r, err := Monthly(dom)
	if err != nil {
		t.Fatalf("Monthly(%d) returned error: %v", dom, err)
	}
	return r
}

func TestRuleConstructorsRejectBadAnchors(t *testing.T) {
	for _, dow := range []int{-1, 7, 100} {
		if _, err := Weekly(dow); err == nil {
			t.Errorf("Weekly(%d) accepted out-of-range weekday", dow)
		}
	}
	for _, dom := range []int{0, -5, 32} {
		if _, err := Monthly(dom); err == nil {
			t.Errorf("Monthly(%d) accepted out-of-range day", dom)
		}
	}
}

func TestDailyNext(t *testing.T) {
	got := Daily().Next(date(2024, time.March, 1))
	if want := date(2024, time.March, 2); !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", Format(got), Format(want))
	}
}

func TestWeeklyNextAdvancesToAnchorWeekday(t *testing.T) {
	// 2024-03-01 is a Friday; anchor is Monday.
	rule := mustWeekly(t, 1)
	got := rule.Next(date(2024, time.March, 1))
	if want := date(2024, time.March, 4); !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", Format(got), Format(want))
	}
}

func TestWeeklyNextNeverReturnsSameDate(t *testing.T) {
	// 2024-03-04 is already a Monday; must advance a full week.
	rule := mustWeekly(t, 1)
	got := rule.Next(date(2024, time.March, 4))
	if want := date(2024, time.March, 11); !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", Format(got), Format(want))
	}
}

func TestWeeklyAnyNextAddsSevenDays(t *testing.T) {
	got := WeeklyAny().Next(date(2024, time.February, 27))
	if want := date(2024, time.March, 5); !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", Format(got), Format(want))
	}
}

func TestMonthlyNextClampsToMonthEnd(t *testing.T) {
	rule := mustMonthly(t, 31)

	cases := []struct {
		after, want time.Time
	}{
		{date(2024, time.January, 31), date(2024, time.February, 29)}, // leap year
		{date(2023, time.January, 31), date(2023, time.February, 28)},
		{date(2024, time.February, 29), date(2024, time.March, 31)},
		{date(2024, time.March, 31), date(2024, time.April, 30)},
		// A reference before the anchor stays within the month.
		{date(2024, time.March, 14), date(2024, time.March, 31)},
	}
	for _, c := range cases {
		got := rule.Next(c.after)
		if !got.Equal(c.want) {
			t.Errorf("Next(%s) = %s, want %s", Format(c.after), Format(got), Format(c.want))
		}
	}
}

func TestMonthlyAnyNextKeepsDayOfMonth(t *testing.T) {
	got := MonthlyAny().Next(date(2024, time.March, 15))
	if want := date(2024, time.April, 15); !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", Format(got), Format(want))
	}

	// Same clamping as anchored monthly when the day does not exist.
	got = MonthlyAny().Next(date(2024, time.January, 30))
	if want := date(2024, time.February, 29); !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", Format(got), Format(want))
	}
}

func TestPreviousIntervalStartMakesStartDateEligible(t *testing.T) {
	cases := []struct {
		name  string
		rule  Rule
		start time.Time
	}{
		{"daily", Daily(), date(2024, time.March, 1)},
		{"weekly anchored on start weekday", mustWeekly(t, 1), date(2024, time.March, 4)},
		{"monthly day 31", mustMonthly(t, 31), date(2024, time.January, 31)},
		{"monthly day 1", mustMonthly(t, 1), date(2024, time.January, 1)},
	}
	for _, c := range cases {
		prev := c.rule.PreviousIntervalStart(c.start)
		if !prev.Before(c.start) {
			t.Errorf("%s: PreviousIntervalStart(%s) = %s, not before start", c.name, Format(c.start), Format(prev))
		}
		if got := c.rule.Next(prev); !got.Equal(c.start) {
			t.Errorf("%s: Next(%s) = %s, want %s", c.name, Format(prev), Format(got), Format(c.start))
		}
	}
}

func TestExpandMonthly31Scenario(t *testing.T) {
	// Day-31 template started 2024-01-31 through a 2024-04-01 horizon:
	// Jan 31, Feb 29 (leap), Mar 31.
	rule := mustMonthly(t, 31)
	start := date(2024, time.January, 31)

	got := Expand(rule, rule.PreviousIntervalStart(start), date(2024, time.April, 1), nil, nil)

	want := []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.March, 31),
	}
	assertDates(t, got, want)
}

func TestExpandFiltersSkipDates(t *testing.T) {
	rule := mustMonthly(t, 1)
	start := date(2024, time.January, 1)

	got := Expand(rule, rule.PreviousIntervalStart(start), date(2024, time.May, 1), nil, []string{"2024-04-01"})

	want := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.February, 1),
		date(2024, time.March, 1),
		date(2024, time.May, 1),
	}
	assertDates(t, got, want)
}

func TestExpandStopsAtEndDate(t *testing.T) {
	rule := mustWeekly(t, 1)
	start := date(2026, time.January, 5) // a Monday
	end := date(2026, time.January, 19)

	got := Expand(rule, rule.PreviousIntervalStart(start), date(2026, time.March, 1), &end, nil)

	want := []time.Time{
		date(2026, time.January, 5),
		date(2026, time.January, 12),
		date(2026, time.January, 19),
	}
	assertDates(t, got, want)
	for _, d := range got {
		if d.After(end) {
			t.Fatalf("occurrence %s exceeds end date %s", Format(d), Format(end))
		}
	}
}

func TestExpandEmptyWhenHorizonBeforeFirstOccurrence(t *testing.T) {
	rule := Daily()
	got := Expand(rule, date(2024, time.June, 1), date(2024, time.June, 1), nil, nil)
	if len(got) != 0 {
		t.Fatalf("expected no occurrences, got %d", len(got))
	}
}

func TestExpandDailyRespectsHorizon(t *testing.T) {
	got := Expand(Daily(), date(2024, time.June, 1), date(2024, time.June, 8), nil, nil)
	if len(got) != 7 {
		t.Fatalf("expected 7 occurrences, got %d", len(got))
	}
	if first := got[0]; !first.Equal(date(2024, time.June, 2)) {
		t.Fatalf("first occurrence = %s, want 2024-06-02", Format(first))
	}
	if last := got[len(got)-1]; !last.Equal(date(2024, time.June, 8)) {
		t.Fatalf("last occurrence = %s, want 2024-06-08", Format(last))
	}
}

func TestParseRejectsMalformedDates(t *testing.T) {
	for _, s := range []string{"", "2024-13-01", "01/31/2024", "2024-02-30"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) accepted malformed date", s)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	d, err := Parse("2024-02-29")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := Format(d); got != "2024-02-29" {
		t.Fatalf("Format = %q, want 2024-02-29", got)
	}
}

func assertDates(t *testing.T, got, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences %v, want %d", len(got), formatAll(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence[%d] = %s, want %s", i, Format(got[i]), Format(want[i]))
		}
	}
}

func formatAll(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = Format(d)
	}
	return out
}
