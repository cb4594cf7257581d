package report

import (
	"time"

	"github.com/chuolink/shule/core/student"
)

type (
	// LevelCount holds the per-level totals for one window. Counts carry
	// unique-student semantics: a student with several ledger events at
	// the same level within the window counts once.
	LevelCount struct {
		Total    int            `json:"total"`
		Boys     int            `json:"boys"`
		Girls    int            `json:"girls"`
		Programs map[string]int `json:"programs"`
	}

	// ProgressionEntry compares a level's count against the level below
	// it. For the floor level previous equals current by convention,
	// which forces NotProgressed to 0 there; existing reports depend on
	// this.
	ProgressionEntry struct {
		Current       int `json:"current"`
		Previous      int `json:"previous"`
		NotProgressed int `json:"not_progressed"`
		Boys          int `json:"boys"`
		Girls         int `json:"girls"`
	}
)

// CountByLevel computes, for each level 1..5, the distinct students whose
// ledger holds at least one event at that level whose AchievedOn falls in
// w relative to now. Level buckets are not mutually exclusive with each
// other: a student reaching levels 1..5 inside the window counts once in
// each. Events with out-of-range levels are skipped; historical data
// contains them. Read-only over the ledgers.
func CountByLevel(students []student.Student, w Window, now time.Time) map[int]LevelCount {
	counts := make(map[int]LevelCount, student.MaxLevel)
	for lvl := student.MinLevel; lvl <= student.MaxLevel; lvl++ {
		counts[lvl] = LevelCount{Programs: make(map[string]int)}
	}

	for _, st := range students {
		seen := make(map[int]bool, student.MaxLevel)
		for _, ev := range st.LevelHistory {
			if !student.LevelInRange(ev.Level) {
				continue
			}
			if seen[ev.Level] {
				continue
			}
			if !w.Contains(ev.AchievedOn, now) {
				continue
			}
			seen[ev.Level] = true

			lc := counts[ev.Level]
			lc.Total++
			switch st.Gender {
			case student.GenderMale:
				lc.Boys++
			case student.GenderFemale:
				lc.Girls++
			}
			if st.Program != "" {
				lc.Programs[st.Program]++
			}
			counts[ev.Level] = lc
		}
	}
	return counts
}

// Progression derives stalling figures from per-level counts:
// NotProgressed is the count of students at the previous level who have
// not (yet, within the window) reached this one, floored at 0.
func Progression(counts map[int]LevelCount) map[int]ProgressionEntry {
	entries := make(map[int]ProgressionEntry, student.MaxLevel)
	for lvl := student.MinLevel; lvl <= student.MaxLevel; lvl++ {
		cur := counts[lvl]

		prev := cur.Total
		if lvl > student.MinLevel {
			prev = counts[lvl-1].Total
		}

		notProgressed := prev - cur.Total
		if notProgressed < 0 {
			notProgressed = 0
		}

		entries[lvl] = ProgressionEntry{
			Current:       cur.Total,
			Previous:      prev,
			NotProgressed: notProgressed,
			Boys:          cur.Boys,
			Girls:         cur.Girls,
		}
	}
	return entries
}
