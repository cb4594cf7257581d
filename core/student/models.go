package student

import (
	"regexp"
	"time"

	"github.com/chuolink/shule/core"
)

// Enquiry levels: the 5 ordered stages of the admission funnel.
const (
	MinLevel = 1 // initial enquiry
	MaxLevel = 5 // admitted

	AdmittedLevel = MaxLevel
)

// LevelInRange reports whether lvl is a valid enquiry level.
func LevelInRange(lvl int) bool {
	return MinLevel <= lvl && lvl <= MaxLevel
}

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// NormalizeGender folds the assorted casings and abbreviations found in
// intake forms ("M", "male", "Boy", ...) into the closed Gender enum.
// Unrecognized values map to GenderUnknown.
func NormalizeGender(s string) Gender {
	switch core.CleanString(s, true /* lower */) {
	case "m", "male", "boy":
		return GenderMale
	case "f", "female", "girl":
		return GenderFemale
	}
	return GenderUnknown
}

var innerSpaceRegex = regexp.MustCompile(`\s+`)

// NormalizeProgram canonicalizes a program name: trimmed, lowered,
// inner whitespace collapsed.
func NormalizeProgram(s string) string {
	return innerSpaceRegex.ReplaceAllString(core.CleanString(s, true /* lower */), " ")
}

// Actor identifies the staff member recording a change. A zero Actor
// denotes a system-initiated change (eg. a ledger backfill).
type Actor struct {
	ID    string `json:"id" bson:"id"`
	Label string `json:"label" bson:"label"`
}

func (a Actor) IsZero() bool { return a.ID == "" && a.Label == "" }

// LevelEvent is an immutable record of a student reaching (or regressing
// to) an enquiry level. Events are only ever appended to a student's
// LevelHistory, never edited or removed.
type LevelEvent struct {
	ID            string    `json:"id" bson:"id"`
	Level         int       `json:"level" bson:"level"`
	AchievedOn    time.Time `json:"achieved_on" bson:"achievedOn"` // UTC
	Actor         Actor     `json:"actor" bson:"actor"`
	Notes         string    `json:"notes" bson:"notes"`
	IsRegression  bool      `json:"is_regression" bson:"isRegression"`
	PreviousLevel int       `json:"previous_level,omitempty" bson:"previousLevel,omitempty"` // set only on regressions
}

// Remark is an append-only correspondence note on a student.
type Remark struct {
	ID        string    `json:"id" bson:"id"`
	Text      string    `json:"text" bson:"text"`
	Actor     Actor     `json:"actor" bson:"actor"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"` // UTC
}

type Student struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	Name         string       `json:"name" bson:"name"`
	Gender       Gender       `json:"gender" bson:"gender"`
	Program      string       `json:"program" bson:"program"`
	Campus       string       `json:"campus" bson:"campus"`
	Phone        string       `json:"phone,omitempty" bson:"phone,omitempty"`
	Email        string       `json:"email,omitempty" bson:"email,omitempty"`
	CurrentLevel int          `json:"current_level" bson:"currentLevel"`
	Admitted     bool         `json:"admitted" bson:"admitted"`
	AdmittedOn   time.Time    `json:"admitted_on,omitempty" bson:"admittedOn,omitempty"` // UTC
	LevelHistory []LevelEvent `json:"level_history" bson:"levelHistory"`
	Remarks      []Remark     `json:"remarks" bson:"remarks"`
	CreatedAt    time.Time    `json:"created_at" bson:"createdAt"` // UTC
	UpdatedAt    time.Time    `json:"updated_at" bson:"updatedAt"` // UTC
}

// EffectiveLevel resolves the student's present level from the ledger:
// the entry with the latest AchievedOn wins, later entries winning ties
// (backfilled entries share a synthetic timestamp). The stored
// CurrentLevel is only a fallback for students with no ledger at all.
func (s *Student) EffectiveLevel() int {
	if len(s.LevelHistory) == 0 {
		return s.CurrentLevel
	}
	last := s.LevelHistory[0]
	for _, ev := range s.LevelHistory[1:] {
		if !ev.AchievedOn.Before(last.AchievedOn) {
			last = ev
		}
	}
	return last.Level
}

// HasLedgerMismatch reports whether the stored CurrentLevel disagrees
// with the ledger. Such students are surfaced on the IT dashboard.
func (s *Student) HasLedgerMismatch() bool {
	return len(s.LevelHistory) > 0 && s.CurrentLevel != s.EffectiveLevel()
}

// HasLevel reports whether the ledger holds an event at lvl.
func (s *Student) HasLevel(lvl int) bool {
	for _, ev := range s.LevelHistory {
		if ev.Level == lvl {
			return true
		}
	}
	return false
}

// NewStudent contains information needed to register a new enquiry.
type NewStudent struct {
	Name    string `json:"name" validate:"required"`
	Gender  string `json:"gender" validate:"required"`
	Program string `json:"program" validate:"required"`
	Campus  string `json:"campus" validate:"required"`
	Phone   string `json:"phone" validate:"omitempty"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Program = core.CleanString(ns.Program)
	ns.Campus = core.CleanString(ns.Campus)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return core.Validate.Struct(ns)
}

// UpdateStudent defines what demographic information may be modified.
// Level changes go through LevelChange exclusively.
type UpdateStudent struct {
	Name    string `json:"name"`
	Gender  string `json:"gender"`
	Program string `json:"program"`
	Campus  string `json:"campus"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func (us *UpdateStudent) Validate(orig Student) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if gender := core.CleanString(us.Gender); gender != "" {
		us.Gender = gender
	} else {
		us.Gender = string(orig.Gender)
	}
	if program := core.CleanString(us.Program); program != "" {
		us.Program = program
	} else {
		us.Program = orig.Program
	}
	if campus := core.CleanString(us.Campus); campus != "" {
		us.Campus = campus
	} else {
		us.Campus = orig.Campus
	}
	if phone := core.CleanString(us.Phone); phone != "" {
		us.Phone = phone
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}
	return core.Validate.Struct(us)
}

// LevelChange is a request to move a student to another enquiry level.
// Notes are mandatory on every change; downgrades must be explicitly
// flagged as regressions with a reason.
type LevelChange struct {
	Level            int    `json:"level" validate:"required,min=1,max=5"`
	Notes            string `json:"notes" validate:"required"`
	Regression       bool   `json:"regression"`
	RegressionReason string `json:"regression_reason"`
}

func (lc *LevelChange) Validate() error {
	lc.Notes = core.CleanString(lc.Notes)
	lc.RegressionReason = core.CleanString(lc.RegressionReason)
	return core.Validate.Struct(lc)
}

// NewRemark contains information needed to log a remark on a student.
type NewRemark struct {
	Text string `json:"text" validate:"required"`
}

func (nr *NewRemark) Validate() error {
	nr.Text = core.CleanString(nr.Text)
	return core.Validate.Struct(nr)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Gender      string    `query:"gender"`
	Program     string    `query:"program"`
	Campus      string    `query:"campus"`
	MinLevel    int       `query:"min_level"`
	MaxLevel    int       `query:"max_level"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Gender == "" && qf.Program == "" && qf.Campus == "" &&
		qf.MinLevel == 0 && qf.MaxLevel == 0 && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	if qf.Gender != "" {
		qf.Gender = string(NormalizeGender(qf.Gender))
	}
	qf.Program = NormalizeProgram(qf.Program)
	qf.Campus = core.CleanString(qf.Campus)
}
