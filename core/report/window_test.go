package report

import (
	"testing"
	"time"
)

// a fixed mid-month, mid-week reference keeps every bucket non-empty
var now = time.Date(2023, 6, 21, 15, 30, 0, 0, time.UTC)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"", WindowAllTime, false},
		{"all", WindowAllTime, false},
		{"all_time", WindowAllTime, false},
		{"ALLTIME", WindowAllTime, false},
		{"today", WindowToday, false},
		{" Week ", WindowWeek, false},
		{"month", WindowMonth, false},
		{"year", WindowYear, false},
		{"fortnight", "", true},
	}
	for _, tt := range tests {
		got, err := ParseWindow(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWindow(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWindow(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want Window
	}{
		{"now itself", now, WindowToday},
		{"midnight today", time.Date(2023, 6, 21, 0, 0, 0, 0, time.UTC), WindowToday},
		{"late tonight", time.Date(2023, 6, 21, 23, 59, 59, 0, time.UTC), WindowToday},
		{"yesterday", now.AddDate(0, 0, -1), WindowWeek},
		{"just before midnight yesterday", time.Date(2023, 6, 20, 23, 59, 59, 0, time.UTC), WindowWeek},
		{"exactly seven days prior", now.AddDate(0, 0, -7), WindowWeek},
		{"eight days ago", now.AddDate(0, 0, -8), WindowMonth},
		{"start of the month", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), WindowMonth},
		{"last month", time.Date(2023, 5, 15, 12, 0, 0, 0, time.UTC), WindowYear},
		{"start of the year", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), WindowYear},
		{"last year", time.Date(2022, 12, 31, 23, 59, 59, 0, time.UTC), WindowAllTime},
		{"years ago", time.Date(2019, 3, 10, 0, 0, 0, 0, time.UTC), WindowAllTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ts, now); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.ts, got, tt.want)
			}
		})
	}
}

// every timestamp lands in exactly one of today/week/month/year/all_time
func TestClassify_disjoint(t *testing.T) {
	stamps := []time.Time{
		now,
		startOfDay(now),
		startOfDay(now).Add(-time.Nanosecond),
		now.AddDate(0, 0, -7),
		now.AddDate(0, 0, -7).Add(-time.Nanosecond),
		startOfMonth(now),
		startOfMonth(now).Add(-time.Nanosecond),
		startOfYear(now),
		startOfYear(now).Add(-time.Nanosecond),
	}
	for _, ts := range stamps {
		var matches int
		for _, w := range Windows {
			if w == WindowAllTime {
				continue
			}
			if w.Contains(ts, now) {
				matches++
			}
		}
		if matches > 1 {
			t.Errorf("timestamp %v matched %d disjoint windows", ts, matches)
		}
		if !WindowAllTime.Contains(ts, now) {
			t.Errorf("WindowAllTime does not contain %v", ts)
		}
	}
}
