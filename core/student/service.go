package student

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chuolink/shule/core"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")

	nowFunc = time.Now // mockable
)

type (
	// LevelUpdate carries the derived fields a ledger append must set on
	// the student document alongside the pushed events.
	LevelUpdate struct {
		CurrentLevel int
		AdmittedOn   *time.Time // set when level 5 is reached for the first time
	}

	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// FilterStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Student.Name.
		// MinLevel/MaxLevel match the ledger-derived EffectiveLevel, not the
		// stored CurrentLevel.
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
		// AppendLevelEvents appends events to the student's ledger and sets
		// the derived fields in one update. The ledger is append-only: no
		// prior event is ever mutated or removed.
		AppendLevelEvents(ctx context.Context, id string, events []LevelEvent, update LevelUpdate) (Student, error)
		AppendRemark(ctx context.Context, id string, rm Remark) (Student, error)
		CountStudents(ctx context.Context) (int64, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		log     core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, log core.Logger) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, log: log}
}

// Create registers a new enquiry and seeds the ledger with a level-1
// event so the history is never empty.
func (svc *Service) Create(ctx context.Context, ns NewStudent, actor Actor) (Student, error) {
	now := nowFunc().UTC()
	st := Student{
		Name:         ns.Name,
		Gender:       NormalizeGender(ns.Gender),
		Program:      NormalizeProgram(ns.Program),
		Campus:       ns.Campus,
		Phone:        ns.Phone,
		Email:        ns.Email,
		CurrentLevel: MinLevel,
		LevelHistory: []LevelEvent{{
			ID:         uuid.New().String(),
			Level:      MinLevel,
			AchievedOn: now,
			Actor:      actor,
			Notes:      "enquiry registered",
		}},
		Remarks:   []Remark{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	st.Name = us.Name
	st.Gender = NormalizeGender(us.Gender)
	st.Program = NormalizeProgram(us.Program)
	st.Campus = us.Campus
	st.Phone = us.Phone
	st.Email = us.Email
	st.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, st)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

// RecordLevelChange validates and appends a level transition to the
// student's ledger. The ledger's last entry is authoritative for the
// student's present level; a stored CurrentLevel that disagrees is
// reported as a data-integrity warning and the ledger wins.
func (svc *Service) RecordLevelChange(ctx context.Context, id string, lc LevelChange, actor Actor) (LevelEvent, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return LevelEvent{}, err
	}

	current := st.EffectiveLevel()
	if st.HasLedgerMismatch() {
		svc.log.Warn(fmt.Sprintf(
			"data integrity: student %s currentLevel=%d disagrees with ledger level %d; using ledger",
			st.ID, st.CurrentLevel, current,
		))
	}

	if err := ValidateTransition(current, lc); err != nil {
		return LevelEvent{}, err
	}

	ev := LevelEvent{
		ID:           uuid.New().String(),
		Level:        lc.Level,
		AchievedOn:   nowFunc().UTC(),
		Actor:        actor,
		Notes:        lc.Notes,
		IsRegression: lc.Regression,
	}
	if lc.Regression {
		ev.PreviousLevel = current
		ev.Notes = fmt.Sprintf("%s (reason: %s)", lc.Notes, lc.RegressionReason)
	}

	update := LevelUpdate{CurrentLevel: lc.Level}

	// reaching level 5 for the first time officially admits the student
	if lc.Level == AdmittedLevel && !st.Admitted && !lc.Regression {
		admittedOn := ev.AchievedOn
		update.AdmittedOn = &admittedOn
		svc.log.Info(fmt.Sprintf("student %s officially admitted", st.ID))
		svc.sendAdmissionMail(st)
	}

	if _, err := svc.repo.AppendLevelEvents(ctx, id, []LevelEvent{ev}, update); err != nil {
		return LevelEvent{}, err
	}
	return ev, nil
}

func (svc *Service) sendAdmissionMail(st Student) {
	if st.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject: "Admission Confirmed",
		Body: fmt.Sprintf(
			"Dear %s,\n\nCongratulations! You have been officially admitted to the %s program (%s campus).\n"+
				"Our office will contact you shortly with enrollment details.",
			st.Name, st.Program, st.Campus,
		),
	})
}

// Backfill initializes the ledger of a student whose CurrentLevel predates
// level tracking, synthesizing one event per level from 1 up to
// CurrentLevel, all timestamped with the student's CreatedAt. It is
// idempotent: levels already present in the ledger are never duplicated,
// and a fully covered ledger is a no-op.
func (svc *Service) Backfill(ctx context.Context, id string) ([]LevelEvent, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target := st.CurrentLevel
	if target < MinLevel {
		target = MinLevel
	}
	events := SyntheticEvents(MinLevel, target, st.CreatedAt, st.LevelHistory)
	if len(events) == 0 {
		return nil, nil
	}

	if _, err := svc.repo.AppendLevelEvents(ctx, id, events, LevelUpdate{CurrentLevel: target}); err != nil {
		return nil, err
	}
	return events, nil
}

// BackfillAll runs Backfill across every student and returns the number
// of students whose ledger was repaired.
func (svc *Service) BackfillAll(ctx context.Context) (int, error) {
	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return 0, err
	}
	var repaired int
	for _, st := range students {
		events, err := svc.Backfill(ctx, st.ID)
		if err != nil {
			return repaired, errors.Wrapf(err, "backfilling student %s", st.ID)
		}
		if len(events) > 0 {
			repaired++
		}
	}
	return repaired, nil
}

// AddRemark appends a correspondence note to the student.
func (svc *Service) AddRemark(ctx context.Context, id string, nr NewRemark, actor Actor) (Remark, error) {
	rm := Remark{
		ID:        uuid.New().String(),
		Text:      nr.Text,
		Actor:     actor,
		CreatedAt: nowFunc().UTC(),
	}
	if _, err := svc.repo.AppendRemark(ctx, id, rm); err != nil {
		return Remark{}, err
	}
	return rm, nil
}

// Remarks lists a student's remarks, newest first.
func (svc *Service) Remarks(ctx context.Context, id string) ([]Remark, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	remarks := make([]Remark, len(st.Remarks))
	copy(remarks, st.Remarks)
	for i, j := 0, len(remarks)-1; i < j; i, j = i+1, j-1 {
		remarks[i], remarks[j] = remarks[j], remarks[i]
	}
	return remarks, nil
}
