package class

import (
	"time"

	"github.com/chuolink/shule/core"
)

// Slot is a weekly timetable entry for a class. Start/End are minutes
// from midnight; a slot occupies [StartMin, EndMin).
type Slot struct {
	ID       string       `json:"id" bson:"id"`
	Day      time.Weekday `json:"day" bson:"day"`
	StartMin int          `json:"start_min" bson:"startMin"`
	EndMin   int          `json:"end_min" bson:"endMin"`
	Subject  string       `json:"subject" bson:"subject"`
	Room     string       `json:"room,omitempty" bson:"room,omitempty"`
}

// Overlaps reports whether two slots occupy intersecting time on the
// same day.
func (s Slot) Overlaps(other Slot) bool {
	if s.Day != other.Day {
		return false
	}
	return s.StartMin < other.EndMin && other.StartMin < s.EndMin
}

type Class struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Name         string    `json:"name" bson:"name"`
	Program      string    `json:"program" bson:"program"`
	Campus       string    `json:"campus" bson:"campus"`
	Capacity     int       `json:"capacity" bson:"capacity"`
	TeacherLabel string    `json:"teacher_label,omitempty" bson:"teacherLabel,omitempty"`
	Slots        []Slot    `json:"slots" bson:"slots"`
	CreatedAt    time.Time `json:"created_at" bson:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updated_at" bson:"updatedAt"` // UTC
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name         string `json:"name" validate:"required"`
	Program      string `json:"program" validate:"required"`
	Campus       string `json:"campus" validate:"required"`
	Capacity     int    `json:"capacity" validate:"omitempty,min=1"`
	TeacherLabel string `json:"teacher_label"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Program = core.CleanString(nc.Program)
	nc.Campus = core.CleanString(nc.Campus)
	nc.TeacherLabel = core.CleanString(nc.TeacherLabel)
	return core.Validate.Struct(nc)
}

// UpdateClass defines what information may be provided to modify an existing Class.
type UpdateClass struct {
	Name         string `json:"name"`
	Program      string `json:"program"`
	Campus       string `json:"campus"`
	Capacity     *int   `json:"capacity" validate:"omitempty"`
	TeacherLabel string `json:"teacher_label"`
}

func (uc *UpdateClass) Validate(orig Class) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if program := core.CleanString(uc.Program); program != "" {
		uc.Program = program
	} else {
		uc.Program = orig.Program
	}
	if campus := core.CleanString(uc.Campus); campus != "" {
		uc.Campus = campus
	} else {
		uc.Campus = orig.Campus
	}
	if label := core.CleanString(uc.TeacherLabel); label != "" {
		uc.TeacherLabel = label
	} else {
		uc.TeacherLabel = orig.TeacherLabel
	}
	return core.Validate.Struct(uc)
}

// NewSlot contains information needed to add a timetable slot.
type NewSlot struct {
	Day      int    `json:"day" validate:"min=0,max=6"`
	StartMin int    `json:"start_min" validate:"min=0,max=1439"`
	EndMin   int    `json:"end_min" validate:"min=1,max=1440"`
	Subject  string `json:"subject" validate:"required"`
	Room     string `json:"room"`
}

func (ns *NewSlot) Validate() error {
	ns.Subject = core.CleanString(ns.Subject)
	ns.Room = core.CleanString(ns.Room)
	return core.Validate.Struct(ns)
}

type QueryFilter struct {
	Search  string `query:"search"`
	Program string `query:"program"`
	Campus  string `query:"campus"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Program == "" && qf.Campus == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Program = core.CleanString(qf.Program)
	qf.Campus = core.CleanString(qf.Campus)
}
