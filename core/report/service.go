package report

import (
	"context"
	"fmt"
	"time"

	"github.com/chuolink/shule/core"
	"github.com/chuolink/shule/core/student"
)

var nowFunc = time.Now // mockable

type (
	// StudentSource is the slice of the student store the reporting layer
	// reads from. Satisfied by student.Repository.
	StudentSource interface {
		QueryAllStudents(ctx context.Context) ([]student.Student, error)
		FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error)
		CountStudents(ctx context.Context) (int64, error)
	}

	// StaffSource provides the staff totals shown on the IT dashboard.
	// Satisfied by staff.Repository.
	StaffSource interface {
		CountStaff(ctx context.Context) (int64, error)
		CountStaffByRole(ctx context.Context) (map[string]int64, error)
	}

	// ClassSource provides the class totals shown on the IT dashboard.
	// Satisfied by class.Repository.
	ClassSource interface {
		CountClasses(ctx context.Context) (int64, error)
	}

	// Filter scopes a progression report.
	Filter struct {
		Gender  string `query:"gender"`
		Program string `query:"program"`
		Campus  string `query:"campus"`
	}

	// Overview is the principal dashboard payload: level totals per
	// window plus headline figures.
	Overview struct {
		Totals    OverviewTotals         `json:"totals"`
		ByWindow  map[Window]map[int]int `json:"by_window"`
		ByGender  map[string]int         `json:"by_gender"`
		ByProgram map[string]int         `json:"by_program"`
	}

	OverviewTotals struct {
		Students int64 `json:"students"`
		Admitted int   `json:"admitted"`
	}

	// Mismatch is a student whose stored CurrentLevel disagrees with the
	// ledger; the ledger is authoritative and these are repair candidates.
	Mismatch struct {
		StudentID    string `json:"student_id"`
		Name         string `json:"name"`
		CurrentLevel int    `json:"current_level"`
		LedgerLevel  int    `json:"ledger_level"`
	}

	// IntegrityReport is the IT dashboard payload.
	IntegrityReport struct {
		Counts      IntegrityCounts  `json:"counts"`
		StaffByRole map[string]int64 `json:"staff_by_role"`
		Mismatches  []Mismatch       `json:"mismatches"`
	}

	IntegrityCounts struct {
		Students int64 `json:"students"`
		Staff    int64 `json:"staff"`
		Classes  int64 `json:"classes"`
	}

	Service struct {
		students StudentSource
		staff    StaffSource
		classes  ClassSource
		log      core.Logger
	}
)

func NewService(students StudentSource, staff StaffSource, classes ClassSource, log core.Logger) *Service {
	return &Service{students: students, staff: staff, classes: classes, log: log}
}

// LevelBreakdown returns, per level, the count of distinct students who
// reached that level within the window.
func (svc *Service) LevelBreakdown(ctx context.Context, w Window) (map[int]int, error) {
	students, err := svc.students.QueryAllStudents(ctx)
	if err != nil {
		return nil, err
	}
	svc.warnMismatches(students)

	counts := CountByLevel(students, w, nowFunc())
	breakdown := make(map[int]int, student.MaxLevel)
	for lvl, lc := range counts {
		breakdown[lvl] = lc.Total
	}
	return breakdown, nil
}

// ProgressionReport computes per-level progression figures for the window,
// optionally scoped by gender, program and campus.
func (svc *Service) ProgressionReport(ctx context.Context, w Window, filter Filter) (map[int]ProgressionEntry, error) {
	qf := student.QueryFilter{
		Gender:  filter.Gender,
		Program: filter.Program,
		Campus:  filter.Campus,
	}
	qf.Clean()

	var (
		students []student.Student
		err      error
	)
	if qf.IsEmpty() {
		students, err = svc.students.QueryAllStudents(ctx)
	} else {
		students, err = svc.students.FilterStudents(ctx, qf)
	}
	if err != nil {
		return nil, err
	}
	svc.warnMismatches(students)

	return Progression(CountByLevel(students, w, nowFunc())), nil
}

// Overview assembles the principal dashboard: headline totals plus level
// breakdowns for every window in one pass over the store.
func (svc *Service) Overview(ctx context.Context) (Overview, error) {
	students, err := svc.students.QueryAllStudents(ctx)
	if err != nil {
		return Overview{}, err
	}
	svc.warnMismatches(students)

	now := nowFunc()
	ov := Overview{
		Totals:    OverviewTotals{Students: int64(len(students))},
		ByWindow:  make(map[Window]map[int]int, len(Windows)),
		ByGender:  make(map[string]int),
		ByProgram: make(map[string]int),
	}

	for _, w := range Windows {
		counts := CountByLevel(students, w, now)
		breakdown := make(map[int]int, student.MaxLevel)
		for lvl, lc := range counts {
			breakdown[lvl] = lc.Total
		}
		ov.ByWindow[w] = breakdown
	}

	for _, st := range students {
		ov.ByGender[string(st.Gender)]++
		if st.Program != "" {
			ov.ByProgram[st.Program]++
		}
		if st.Admitted {
			ov.Totals.Admitted++
		}
	}
	return ov, nil
}

// Integrity assembles the IT dashboard: collection counts, staff spread
// by role, and every student whose stored level disagrees with the ledger.
func (svc *Service) Integrity(ctx context.Context) (IntegrityReport, error) {
	rep := IntegrityReport{Mismatches: []Mismatch{}}

	var err error
	if rep.Counts.Students, err = svc.students.CountStudents(ctx); err != nil {
		return rep, err
	}
	if rep.Counts.Staff, err = svc.staff.CountStaff(ctx); err != nil {
		return rep, err
	}
	if rep.Counts.Classes, err = svc.classes.CountClasses(ctx); err != nil {
		return rep, err
	}
	if rep.StaffByRole, err = svc.staff.CountStaffByRole(ctx); err != nil {
		return rep, err
	}

	students, err := svc.students.QueryAllStudents(ctx)
	if err != nil {
		return rep, err
	}
	for _, st := range students {
		if st.HasLedgerMismatch() {
			rep.Mismatches = append(rep.Mismatches, Mismatch{
				StudentID:    st.ID,
				Name:         st.Name,
				CurrentLevel: st.CurrentLevel,
				LedgerLevel:  st.EffectiveLevel(),
			})
		}
	}
	return rep, nil
}

// warnMismatches logs a data-integrity warning for students whose stored
// CurrentLevel disagrees with the ledger. Reads are never blocked by a
// mismatch; the ledger is used either way.
func (svc *Service) warnMismatches(students []student.Student) {
	for _, st := range students {
		if st.HasLedgerMismatch() {
			svc.log.Warn(fmt.Sprintf(
				"data integrity: student %s currentLevel=%d disagrees with ledger level %d",
				st.ID, st.CurrentLevel, st.EffectiveLevel(),
			))
		}
	}
}
