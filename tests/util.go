package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/chuolink/shule/core/class"
	"github.com/chuolink/shule/core/staff"
	"github.com/chuolink/shule/core/student"
)

func CreateStaff(
	t *testing.T,
	repo staff.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) staff.Staff {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	stf := staff.Staff{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := stf.SetPassword(pwd); err != nil {
			t.Fatalf("CreateStaff(): %v", err)
		}
	}
	stf, err := repo.CreateStaff(context.Background(), stf)
	if err != nil {
		t.Fatalf("CreateStaff(): %v", err)
	}
	return stf
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	name, gender, program, campus string,
	level int,
	history []student.LevelEvent,
	createdAt ...time.Time,
) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if history == nil {
		history = []student.LevelEvent{}
	}
	st := student.Student{
		Name:         name,
		Gender:       student.NormalizeGender(gender),
		Program:      student.NormalizeProgram(program),
		Campus:       campus,
		CurrentLevel: level,
		LevelHistory: history,
		Remarks:      []student.Remark{},
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	st, err := repo.CreateStudent(context.Background(), st)
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	return st
}

// LevelEventAt builds a ledger entry for seeding test students.
func LevelEventAt(id string, level int, achievedOn time.Time) student.LevelEvent {
	return student.LevelEvent{
		ID:         id,
		Level:      level,
		AchievedOn: achievedOn.UTC(),
		Actor:      student.Actor{ID: "test", Label: "Test"},
		Notes:      "seeded",
	}
}

func CreateClass(
	t *testing.T,
	repo class.Repository,
	name, program, campus string,
	capacity int,
) class.Class {
	tstamp := time.Now().UTC()
	cls := class.Class{
		Name:      name,
		Program:   program,
		Campus:    campus,
		Capacity:  capacity,
		Slots:     []class.Slot{},
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	cls, err := repo.CreateClass(context.Background(), cls)
	if err != nil {
		t.Fatalf("CreateClass(): %v", err)
	}
	return cls
}
