package report

import (
	"fmt"
	"time"

	"github.com/chuolink/shule/core"
)

// Window is one of the relative reporting buckets used by the dashboards.
type Window string

const (
	WindowToday   Window = "today"
	WindowWeek    Window = "week"
	WindowMonth   Window = "month"
	WindowYear    Window = "year"
	WindowAllTime Window = "all_time"
)

// Windows lists the buckets in classification precedence order.
var Windows = []Window{WindowToday, WindowWeek, WindowMonth, WindowYear, WindowAllTime}

func ParseWindow(s string) (Window, error) {
	switch core.CleanString(s, true /* lower */) {
	case "", "all", "alltime", "all_time":
		return WindowAllTime, nil
	case "today":
		return WindowToday, nil
	case "week":
		return WindowWeek, nil
	case "month":
		return WindowMonth, nil
	case "year":
		return WindowYear, nil
	}
	return "", core.NewValidationError(
		fmt.Errorf("invalid window %q", s),
		core.FieldError{Field: "window", Error: "must be one of today, week, month, year, all_time"},
	)
}

// Classify maps ts to the first matching bucket relative to now:
//
//	today: [startOfDay(now), endOfDay(now)]   (both endpoints inclusive)
//	week:  [now - 7 days, startOfDay(now))
//	month: [startOfMonth(now), now - 7 days)
//	year:  [startOfYear(now), startOfMonth(now))
//	all_time: everything else
//
// today/week/month/year are pairwise disjoint under a fixed now; the
// half-open intervals guarantee no timestamp is double-counted. It is a
// pure function of its two inputs; callers inject now.
func Classify(ts, now time.Time) Window {
	dayStart := startOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
	if !ts.Before(dayStart) && !ts.After(dayEnd) {
		return WindowToday
	}

	weekStart := now.AddDate(0, 0, -7)
	if !ts.Before(weekStart) && ts.Before(dayStart) {
		return WindowWeek
	}

	monthStart := startOfMonth(now)
	if !ts.Before(monthStart) && ts.Before(weekStart) {
		return WindowMonth
	}

	yearStart := startOfYear(now)
	if !ts.Before(yearStart) && ts.Before(monthStart) {
		return WindowYear
	}

	return WindowAllTime
}

// Contains reports whether ts falls within w relative to now. WindowAllTime
// is a superset aggregate: it contains every timestamp regardless of the
// bucket Classify assigns.
func (w Window) Contains(ts, now time.Time) bool {
	if w == WindowAllTime {
		return true
	}
	return Classify(ts, now) == w
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}
