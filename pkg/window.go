package pkg

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Window is an inclusive [From, To] time range used to scope aggregations.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the day of t, in UTC.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// StartOfWeek returns the Monday midnight (UTC) of the week of t.
// Weeks start on Monday (ISO), not Sunday.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	weekday := day.Weekday()
	if weekday == time.Sunday {
		return day.AddDate(0, 0, -6)
	}
	return day.AddDate(0, 0, -int(weekday-time.Monday))
}

// ResolveWindowPreset maps a named range preset to a concrete window
// relative to now. Known presets: today, week, month, 30days, 90days,
// 6months, year.
func ResolveWindowPreset(preset string, now time.Time) (Window, error) {
	to := EndOfDay(now)
	switch preset {
	case "today":
		return Window{From: StartOfDay(now), To: to}, nil
	case "week":
		return Window{From: StartOfWeek(now), To: to}, nil
	case "month":
		day := StartOfDay(now)
		return Window{From: time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC), To: to}, nil
	case "30days":
		return Window{From: StartOfDay(now).AddDate(0, 0, -29), To: to}, nil
	case "90days":
		return Window{From: StartOfDay(now).AddDate(0, 0, -89), To: to}, nil
	case "6months":
		return Window{From: StartOfDay(now).AddDate(0, -6, 0), To: to}, nil
	case "year":
		return Window{From: StartOfDay(now).AddDate(-1, 0, 0), To: to}, nil
	default:
		return Window{}, fmt.Errorf("unknown window preset: %s", preset)
	}
}

// TimeRangeFromQuery reads either a window preset or an explicit
// from/to pair (unix seconds) from request query values.
func TimeRangeFromQuery(query url.Values, now time.Time) (from, to *time.Time, err error) {
	if preset := query.Get("window"); preset != "" {
		window, err := ResolveWindowPreset(preset, now)
		if err != nil {
			return nil, nil, err
		}
		return &window.From, &window.To, nil
	}

	if fromStr := query.Get("from"); fromStr != "" {
		fromUnix, err := strconv.ParseInt(fromStr, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid from timestamp: %s", fromStr)
		}
		f := time.Unix(fromUnix, 0).UTC()
		from = &f
	}
	if toStr := query.Get("to"); toStr != "" {
		toUnix, err := strconv.ParseInt(toStr, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid to timestamp: %s", toStr)
		}
		t := time.Unix(toUnix, 0).UTC()
		to = &t
	}

	return from, to, nil
}
