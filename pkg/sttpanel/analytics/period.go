package analytics

import (
	"fmt"
	"time"
)

// Preset period names accepted by the analytics endpoint
const (
	PeriodThisWeek  = "this-week"
	PeriodLastWeek  = "last-week"
	PeriodThisMonth = "this-month"
	PeriodLastMonth = "last-month"
)

// ParseRange interprets from/to query values. Each value may be an
// RFC 3339 instant or a plain date; a date-only "to" is inclusive
// through the end of that day. Empty values yield nil bounds.
func ParseRange(fromStr, toStr string) (from, to *time.Time, err error) {
	if fromStr != "" {
		t, _, err := parseInstant(fromStr)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if toStr != "" {
		t, dateOnly, err := parseInstant(toStr)
		if err != nil {
			return nil, nil, err
		}
		if dateOnly {
			t = endOfDay(t)
		}
		to = &t
	}
	return from, to, nil
}

// PresetRange resolves a named preset period relative to now. Weeks
// start on Monday.
func PresetRange(name string, now time.Time) (from, to time.Time, err error) {
	switch name {
	case PeriodThisWeek:
		from = startOfWeek(now)
		return from, endOfDay(from.AddDate(0, 0, 6)), nil
	case PeriodLastWeek:
		from = startOfWeek(now.AddDate(0, 0, -7))
		return from, endOfDay(from.AddDate(0, 0, 6)), nil
	case PeriodThisMonth:
		from = startOfMonth(now)
		return from, endOfDay(from.AddDate(0, 1, -1)), nil
	case PeriodLastMonth:
		from = startOfMonth(now).AddDate(0, -1, 0)
		return from, endOfDay(from.AddDate(0, 1, -1)), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period %q", name)
	}
}

func parseInstant(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q", s)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func startOfWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return startOfDay(t.AddDate(0, 0, -daysSinceMonday))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
