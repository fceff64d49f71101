package schedule_test

import (
	"testing"
	"time"

	"aircheck/internal/schedule"
)

func TestParseRejectsBadPatterns(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"four fields", "0 9 * *"},
		{"six fields", "0 9 * * 1 extra"},
		{"minute range", "0-5 9 * * 1"},
		{"minute out of range", "60 9 * * 1"},
		{"hour out of range", "0 24 * * 1"},
		{"day of month set", "0 9 15 * 1"},
		{"month set", "0 9 * 6 1"},
		{"day seven", "0 9 * * 7"},
		{"day garbage", "0 9 * * mon"},
		{"empty list entry", "0 9 * * 1,,2"},
	}
	for _, tc := range cases {
		if _, err := schedule.Parse(tc.pattern); err == nil {
			t.Fatalf("%s: expected parse error for %q", tc.name, tc.pattern)
		}
	}
}

func TestParseAcceptsDayForms(t *testing.T) {
	cases := []struct {
		pattern string
		matches []time.Weekday
	}{
		{"0 9 * * *", []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}},
		{"0 9 * * 3", []time.Weekday{time.Wednesday}},
		{"0 9 * * 1,3,5", []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{"0 9 * * 1-5", []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
		{"0 9 * * 6-1", []time.Weekday{time.Saturday, time.Sunday, time.Monday}},
		{"0 9 * * 5-5", []time.Weekday{time.Friday}},
	}
	for _, tc := range cases {
		parsed, err := schedule.Parse(tc.pattern)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tc.pattern, err)
		}
		want := make(map[time.Weekday]bool, len(tc.matches))
		for _, day := range tc.matches {
			want[day] = true
		}
		for day := time.Sunday; day <= time.Saturday; day++ {
			if parsed.MatchesDay(day) != want[day] {
				t.Fatalf("pattern %q: day %s match = %v, want %v", tc.pattern, day, parsed.MatchesDay(day), want[day])
			}
		}
	}
}

func TestEvaluateWeekdayMorningShow(t *testing.T) {
	loc := time.UTC
	// 2026-08-24 is a Monday.
	monday := func(hour, minute int) time.Time {
		return time.Date(2026, 8, 24, hour, minute, 0, 0, loc)
	}

	window, active := schedule.Evaluate("0 9 * * 1-5", time.Hour, loc, monday(9, 30))
	if !active {
		t.Fatal("expected Monday 09:30 to be inside the window")
	}
	if !window.Start.Equal(monday(9, 0)) {
		t.Fatalf("expected window start 09:00, got %s", window.Start)
	}
	if !window.End.Equal(monday(10, 0)) {
		t.Fatalf("expected window end 10:00, got %s", window.End)
	}

	if _, active := schedule.Evaluate("0 9 * * 1-5", time.Hour, loc, monday(8, 59)); active {
		t.Fatal("expected 08:59 to be outside the window")
	}
	// End is exclusive.
	if _, active := schedule.Evaluate("0 9 * * 1-5", time.Hour, loc, monday(10, 0)); active {
		t.Fatal("expected 10:00 to be outside the window")
	}

	// 2026-08-22 is a Saturday; the weekday pattern must not fire.
	saturday := time.Date(2026, 8, 22, 9, 30, 0, 0, loc)
	if _, active := schedule.Evaluate("0 9 * * 1-5", time.Hour, loc, saturday); active {
		t.Fatal("expected Saturday to be inactive for a weekday pattern")
	}
}

func TestEvaluateWrappingWeekendRange(t *testing.T) {
	loc := time.UTC
	pattern := "0 9 * * 6-1"
	days := []struct {
		date   time.Time
		active bool
	}{
		{time.Date(2026, 8, 22, 9, 30, 0, 0, loc), true},  // Saturday
		{time.Date(2026, 8, 23, 9, 30, 0, 0, loc), true},  // Sunday
		{time.Date(2026, 8, 24, 9, 30, 0, 0, loc), true},  // Monday
		{time.Date(2026, 8, 25, 9, 30, 0, 0, loc), false}, // Tuesday
		{time.Date(2026, 8, 28, 9, 30, 0, 0, loc), false}, // Friday
	}
	for _, tc := range days {
		if _, active := schedule.Evaluate(pattern, time.Hour, loc, tc.date); active != tc.active {
			t.Fatalf("%s: active = %v, want %v", tc.date.Weekday(), active, tc.active)
		}
	}
}

func TestEvaluateCatchesWindowAcrossMidnight(t *testing.T) {
	loc := time.UTC
	// Friday 23:30 with a two hour duration runs into Saturday 01:30.
	pattern := "30 23 * * 5"
	saturdayEarly := time.Date(2026, 8, 22, 0, 45, 0, 0, loc)

	window, active := schedule.Evaluate(pattern, 2*time.Hour, loc, saturdayEarly)
	if !active {
		t.Fatal("expected Friday's window to still claim early Saturday")
	}
	wantStart := time.Date(2026, 8, 21, 23, 30, 0, 0, loc)
	if !window.Start.Equal(wantStart) {
		t.Fatalf("expected window start Friday 23:30, got %s", window.Start)
	}

	// Saturday itself does not match the pattern, so later on Saturday
	// nothing is active.
	saturdayLater := time.Date(2026, 8, 22, 2, 0, 0, 0, loc)
	if _, active := schedule.Evaluate(pattern, 2*time.Hour, loc, saturdayLater); active {
		t.Fatal("expected window to have closed by Saturday 02:00")
	}
}

func TestEvaluateEmptyAndInvalidNeverMatch(t *testing.T) {
	now := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	if _, active := schedule.Evaluate("", time.Hour, time.UTC, now); active {
		t.Fatal("empty pattern must never match")
	}
	if _, active := schedule.Evaluate("not a pattern", time.Hour, time.UTC, now); active {
		t.Fatal("invalid pattern must never match")
	}
	if _, active := schedule.Evaluate("0 9 * * *", 0, time.UTC, now); active {
		t.Fatal("zero duration must never match")
	}
}

func TestEvaluateHonorsLocation(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	// 14:00 UTC on 2026-08-24 is 09:00 in Chicago (CDT).
	now := time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC)

	window, active := schedule.Evaluate("0 9 * * 1", time.Hour, chicago, now)
	if !active {
		t.Fatal("expected pattern to be active in the station zone")
	}
	if window.Start.Hour() != 9 {
		t.Fatalf("expected a 09:00 local start, got %s", window.Start)
	}
	if _, active := schedule.Evaluate("0 9 * * 1", time.Hour, time.UTC, now); active {
		t.Fatal("expected 14:00 UTC to be outside a UTC 09:00 window")
	}
}

func TestNext(t *testing.T) {
	loc := time.UTC
	after := time.Date(2026, 8, 24, 9, 0, 0, 0, loc) // Monday 09:00

	// The 09:00 start itself is not strictly after 09:00.
	next, ok := schedule.Next("0 9 * * 1-5", loc, after)
	if !ok {
		t.Fatal("expected a next occurrence")
	}
	want := time.Date(2026, 8, 25, 9, 0, 0, 0, loc) // Tuesday
	if !next.Equal(want) {
		t.Fatalf("expected next start %s, got %s", want, next)
	}

	// Weekend-only pattern from a Monday jumps to Saturday.
	next, ok = schedule.Next("15 7 * * 6", loc, after)
	if !ok {
		t.Fatal("expected a next occurrence")
	}
	want = time.Date(2026, 8, 29, 7, 15, 0, 0, loc)
	if !next.Equal(want) {
		t.Fatalf("expected Saturday 07:15, got %s", next)
	}

	if _, ok := schedule.Next("", loc, after); ok {
		t.Fatal("empty pattern has no next occurrence")
	}
}
