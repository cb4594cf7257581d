package report

import (
	"testing"
	"time"

	"github.com/chuolink/shule/core/student"
)

func ledgered(gender student.Gender, program string, levels map[int]time.Time) student.Student {
	st := student.Student{Gender: gender, Program: program}
	for lvl, on := range levels {
		st.LevelHistory = append(st.LevelHistory, student.LevelEvent{Level: lvl, AchievedOn: on})
	}
	return st
}

func TestCountByLevel(t *testing.T) {
	old := now.AddDate(-1, 0, 0)
	students := []student.Student{
		ledgered(student.GenderFemale, "nursing", map[int]time.Time{1: old, 2: now}),
		ledgered(student.GenderFemale, "nursing", map[int]time.Time{1: now, 2: now}),
		ledgered(student.GenderMale, "computer science", map[int]time.Time{1: old}),
	}
	// duplicate event at an already-counted level; must not double-count
	students[0].LevelHistory = append(students[0].LevelHistory,
		student.LevelEvent{Level: 2, AchievedOn: now.Add(-time.Hour)})
	// out-of-range legacy event; must be skipped
	students[2].LevelHistory = append(students[2].LevelHistory,
		student.LevelEvent{Level: 9, AchievedOn: now})

	counts := CountByLevel(students, WindowToday, now)
	if counts[1].Total != 1 {
		t.Errorf("today level 1 Total = %d, want 1", counts[1].Total)
	}
	if counts[2].Total != 2 {
		t.Errorf("today level 2 Total = %d, want 2", counts[2].Total)
	}
	if counts[2].Girls != 2 || counts[2].Boys != 0 {
		t.Errorf("today level 2 Girls/Boys = %d/%d, want 2/0", counts[2].Girls, counts[2].Boys)
	}
	if counts[2].Programs["nursing"] != 2 {
		t.Errorf("today level 2 Programs[nursing] = %d, want 2", counts[2].Programs["nursing"])
	}

	counts = CountByLevel(students, WindowAllTime, now)
	if counts[1].Total != 3 {
		t.Errorf("all-time level 1 Total = %d, want 3", counts[1].Total)
	}
	if counts[2].Total != 2 {
		t.Errorf("all-time level 2 Total = %d, want 2", counts[2].Total)
	}
	// every level key exists even when empty
	for lvl := student.MinLevel; lvl <= student.MaxLevel; lvl++ {
		if _, ok := counts[lvl]; !ok {
			t.Errorf("all-time counts missing level %d", lvl)
		}
	}
}

func TestProgression(t *testing.T) {
	counts := map[int]LevelCount{
		1: {Total: 5, Boys: 2, Girls: 3},
		2: {Total: 3, Boys: 1, Girls: 2},
		3: {Total: 4}, // more than the level below; floor applies
		4: {Total: 1},
		5: {Total: 0},
	}
	prog := Progression(counts)

	// the floor level compares against itself
	if prog[1].Previous != 5 || prog[1].NotProgressed != 0 {
		t.Errorf("level 1 = %+v, want Previous 5, NotProgressed 0", prog[1])
	}
	if prog[2].Previous != 5 || prog[2].Current != 3 || prog[2].NotProgressed != 2 {
		t.Errorf("level 2 = %+v, want Previous 5, Current 3, NotProgressed 2", prog[2])
	}
	if prog[3].NotProgressed != 0 {
		t.Errorf("level 3 NotProgressed = %d, want 0 (floored)", prog[3].NotProgressed)
	}
	if prog[4].Previous != 4 || prog[4].NotProgressed != 3 {
		t.Errorf("level 4 = %+v, want Previous 4, NotProgressed 3", prog[4])
	}
	if prog[5].Previous != 1 || prog[5].NotProgressed != 1 {
		t.Errorf("level 5 = %+v, want Previous 1, NotProgressed 1", prog[5])
	}
	if prog[2].Boys != 1 || prog[2].Girls != 2 {
		t.Errorf("level 2 Boys/Girls = %d/%d, want 1/2", prog[2].Boys, prog[2].Girls)
	}
}
