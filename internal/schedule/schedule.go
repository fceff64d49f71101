package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Pattern is a parsed five-field schedule expression. Minute and hour are
// single values; day-of-month and month must be `*`; day-of-week supports
// `*`, single values, comma lists, and ranges. A range whose start exceeds
// its end wraps the week, so `6-1` covers Saturday, Sunday, and Monday.
type Pattern struct {
	minute int
	hour   int
	days   [7]bool
}

// ErrEmptyPattern marks a pattern with no content. Shows without a pattern
// are on-demand only; evaluation treats them as never active.
var ErrEmptyPattern = errors.New("empty schedule pattern")

// Parse validates a five-field expression.
func Parse(pattern string) (Pattern, error) {
	fields := strings.Fields(pattern)
	if len(fields) == 0 {
		return Pattern{}, ErrEmptyPattern
	}
	if len(fields) != 5 {
		return Pattern{}, fmt.Errorf("schedule pattern needs 5 fields, got %d", len(fields))
	}

	minute, err := parseUnit(fields[0], 59)
	if err != nil {
		return Pattern{}, fmt.Errorf("minute field: %w", err)
	}
	hour, err := parseUnit(fields[1], 23)
	if err != nil {
		return Pattern{}, fmt.Errorf("hour field: %w", err)
	}
	if fields[2] != "*" {
		return Pattern{}, fmt.Errorf("day-of-month field must be *, got %q", fields[2])
	}
	if fields[3] != "*" {
		return Pattern{}, fmt.Errorf("month field must be *, got %q", fields[3])
	}
	days, err := parseDays(fields[4])
	if err != nil {
		return Pattern{}, fmt.Errorf("day-of-week field: %w", err)
	}

	return Pattern{minute: minute, hour: hour, days: days}, nil
}

func parseUnit(field string, max int) (int, error) {
	value, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", field)
	}
	if value < 0 || value > max {
		return 0, fmt.Errorf("%d out of range 0-%d", value, max)
	}
	return value, nil
}

func parseDays(field string) ([7]bool, error) {
	var days [7]bool
	if field == "*" {
		for i := range days {
			days[i] = true
		}
		return days, nil
	}
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return days, errors.New("empty list entry")
		}
		from, to, found := strings.Cut(part, "-")
		if !found {
			value, err := parseDay(part)
			if err != nil {
				return days, err
			}
			days[value] = true
			continue
		}
		start, err := parseDay(from)
		if err != nil {
			return days, err
		}
		end, err := parseDay(to)
		if err != nil {
			return days, err
		}
		for d := start; ; d = (d + 1) % 7 {
			days[d] = true
			if d == end {
				break
			}
		}
	}
	return days, nil
}

func parseDay(field string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("%q is not a day number", field)
	}
	if value < 0 || value > 6 {
		return 0, fmt.Errorf("day %d out of range 0-6", value)
	}
	return value, nil
}

// MatchesDay reports whether the pattern fires on the given weekday.
func (p Pattern) MatchesDay(day time.Weekday) bool {
	return p.days[int(day)]
}

// StartOn places the pattern's hour:minute on the given day in its location.
func (p Pattern) StartOn(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), p.hour, p.minute, 0, 0, day.Location())
}

// Window is one concrete occurrence of a schedule.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Evaluate reports whether now falls inside an occurrence of the pattern and
// returns that occurrence. A window that began on an earlier matching day
// still claims now when its duration covers it, so a show that starts before
// midnight is caught by a scheduler that wakes after midnight. Empty and
// invalid patterns are never active.
func Evaluate(pattern string, duration time.Duration, loc *time.Location, now time.Time) (Window, bool) {
	parsed, err := Parse(pattern)
	if err != nil {
		return Window{}, false
	}
	return parsed.Evaluate(duration, loc, now)
}

// Evaluate is the parsed-form counterpart of the package-level Evaluate.
func (p Pattern) Evaluate(duration time.Duration, loc *time.Location, now time.Time) (Window, bool) {
	if duration <= 0 {
		return Window{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)

	// A window can only reach now if it started within the last duration,
	// so look back one day per full 24h it spans plus the current day.
	lookback := int(duration/(24*time.Hour)) + 1
	for offset := 0; offset <= lookback; offset++ {
		day := local.AddDate(0, 0, -offset)
		if !p.MatchesDay(day.Weekday()) {
			continue
		}
		start := p.StartOn(day)
		window := Window{Start: start, End: start.Add(duration)}
		if window.Contains(local) {
			return window, true
		}
	}
	return Window{}, false
}

// Next returns the first window start strictly after the given time,
// scanning at most one year ahead.
func Next(pattern string, loc *time.Location, after time.Time) (time.Time, bool) {
	parsed, err := Parse(pattern)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.Next(loc, after)
}

// Next is the parsed-form counterpart of the package-level Next.
func (p Pattern) Next(loc *time.Location, after time.Time) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	local := after.In(loc)
	for offset := 0; offset <= 366; offset++ {
		day := local.AddDate(0, 0, offset)
		if !p.MatchesDay(day.Weekday()) {
			continue
		}
		start := p.StartOn(day)
		if start.After(local) {
			return start, true
		}
	}
	return time.Time{}, false
}
