package student_test

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/chuolink/shule/core/student"
	emailsvc "github.com/chuolink/shule/services/email"
	logsvc "github.com/chuolink/shule/services/logger"
	inmemdb "github.com/chuolink/shule/storage/inmem"
)

func setup(t *testing.T) (*student.Service, student.Repository, *bytes.Buffer) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening inmem db: %v", err)
	}
	repo := inmemdb.NewStudentRepository(db)
	logs := new(bytes.Buffer)
	svc := student.NewService(
		repo,
		emailsvc.NewConsoleServiceMock(),
		logsvc.NewConsoleLogger(log.New(logs, "", 0)),
	)
	return svc, repo, logs
}

var desk = student.Actor{ID: "stf1", Label: "Front Desk"}

func TestService_Create(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	st, err := svc.Create(ctx, student.NewStudent{
		Name:    "Asha Kim",
		Gender:  "F",
		Program: "Computer  Science",
		Campus:  "Main",
	}, desk)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if st.Gender != student.GenderFemale {
		t.Errorf("Gender = %q, want %q", st.Gender, student.GenderFemale)
	}
	if st.Program != "computer science" {
		t.Errorf("Program = %q, want %q", st.Program, "computer science")
	}
	if st.CurrentLevel != student.MinLevel {
		t.Errorf("CurrentLevel = %d, want %d", st.CurrentLevel, student.MinLevel)
	}
	if len(st.LevelHistory) != 1 || st.LevelHistory[0].Level != student.MinLevel {
		t.Errorf("LevelHistory = %+v, want a single level-1 seed event", st.LevelHistory)
	}
	if st.LevelHistory[0].Actor != desk {
		t.Errorf("seed event actor = %+v, want %+v", st.LevelHistory[0].Actor, desk)
	}
}

func TestService_RecordLevelChange_admission(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	st, err := svc.Create(ctx, student.NewStudent{
		Name: "Asha Kim", Gender: "F", Program: "Nursing", Campus: "Main", Email: "asha@test.cd",
	}, desk)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	emailsvc.SentMessages = emailsvc.SentMessages[:0]

	if _, err = svc.RecordLevelChange(ctx, st.ID, student.LevelChange{Level: 5, Notes: "paid in full"}, desk); err != nil {
		t.Fatalf("RecordLevelChange() error = %v", err)
	}

	st, err = svc.GetByID(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !st.Admitted {
		t.Error("Admitted = false after reaching level 5, want true")
	}
	if st.AdmittedOn.IsZero() {
		t.Error("AdmittedOn is zero after admission")
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent %d admission mails, want 1", len(emailsvc.SentMessages))
	}
	if to := emailsvc.SentMessages[0].To[0].Address; to != "asha@test.cd" {
		t.Errorf("admission mail to %q, want %q", to, "asha@test.cd")
	}
}

func TestService_RecordLevelChange_regression(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	st, err := svc.Create(ctx, student.NewStudent{Name: "Jo Doe", Gender: "M", Program: "Nursing", Campus: "Main"}, desk)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err = svc.RecordLevelChange(ctx, st.ID, student.LevelChange{Level: 3, Notes: "site visit"}, desk); err != nil {
		t.Fatalf("RecordLevelChange() error = %v", err)
	}

	ev, err := svc.RecordLevelChange(ctx, st.ID, student.LevelChange{
		Level: 2, Notes: "stalled", Regression: true, RegressionReason: "fees unpaid",
	}, desk)
	if err != nil {
		t.Fatalf("RecordLevelChange() error = %v", err)
	}
	if !ev.IsRegression {
		t.Error("IsRegression = false, want true")
	}
	if ev.PreviousLevel != 3 {
		t.Errorf("PreviousLevel = %d, want 3", ev.PreviousLevel)
	}
	if !strings.Contains(ev.Notes, "fees unpaid") {
		t.Errorf("Notes = %q, want the regression reason embedded", ev.Notes)
	}

	st, _ = svc.GetByID(ctx, st.ID)
	if st.CurrentLevel != 2 {
		t.Errorf("CurrentLevel = %d, want 2", st.CurrentLevel)
	}
}

func TestService_RecordLevelChange_ledgerWins(t *testing.T) {
	svc, repo, logs := setup(t)
	ctx := context.Background()

	// stored level drifted from the ledger (ledger says 1)
	st, err := repo.CreateStudent(ctx, student.Student{
		Name: "Jo Doe", Gender: student.GenderMale, Program: "nursing", Campus: "Main",
		CurrentLevel: 4,
		LevelHistory: []student.LevelEvent{{ID: "ev1", Level: 1, AchievedOn: time.Now().UTC(), Actor: desk}},
	})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	// level 2 is a valid upgrade from the ledger's 1, even though the
	// stored 4 would make it a downgrade
	if _, err = svc.RecordLevelChange(ctx, st.ID, student.LevelChange{Level: 2, Notes: "called back"}, desk); err != nil {
		t.Fatalf("RecordLevelChange() error = %v", err)
	}
	if !strings.Contains(logs.String(), "data integrity") {
		t.Error("no data-integrity warning logged for a drifted CurrentLevel")
	}
}

func TestService_Filter_levelUsesLedger(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	// stored level says 4 but the ledger only reaches 1
	if _, err := repo.CreateStudent(ctx, student.Student{
		Name: "Jo Doe", Gender: student.GenderMale, Program: "nursing", Campus: "Main",
		CurrentLevel: 4,
		LevelHistory: []student.LevelEvent{{ID: "ev1", Level: 1, AchievedOn: time.Now().UTC(), Actor: desk}},
	}); err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	students, err := svc.Filter(ctx, student.QueryFilter{MinLevel: 4})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(students) != 0 {
		t.Errorf("Filter(MinLevel 4) matched %d students on the drifted stored level, want 0", len(students))
	}

	students, err = svc.Filter(ctx, student.QueryFilter{MaxLevel: 1})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(students) != 1 {
		t.Errorf("Filter(MaxLevel 1) matched %d students, want 1 from the ledger level", len(students))
	}
}

func TestService_Backfill(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	// legacy record: level 3, no ledger
	st, err := repo.CreateStudent(ctx, student.Student{
		Name: "Jo Doe", Gender: student.GenderMale, Program: "nursing", Campus: "Main", CurrentLevel: 3,
	})
	if err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	events, err := svc.Backfill(ctx, st.ID)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Backfill() returned %d events, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Level != i+1 {
			t.Errorf("events[%d].Level = %d, want %d", i, ev.Level, i+1)
		}
		if ev.Actor.Label != student.BackfillActorLabel {
			t.Errorf("events[%d].Actor.Label = %q, want %q", i, ev.Actor.Label, student.BackfillActorLabel)
		}
	}

	// re-running finds the ledger covered and appends nothing
	events, err = svc.Backfill(ctx, st.ID)
	if err != nil {
		t.Fatalf("Backfill() second run error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Backfill() second run returned %d events, want 0", len(events))
	}
}

func TestService_Remarks(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	st, err := svc.Create(ctx, student.NewStudent{Name: "Jo Doe", Gender: "M", Program: "Nursing", Campus: "Main"}, desk)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, text := range []string{"first call", "second call"} {
		if _, err = svc.AddRemark(ctx, st.ID, student.NewRemark{Text: text}, desk); err != nil {
			t.Fatalf("AddRemark(%q) error = %v", text, err)
		}
	}

	remarks, err := svc.Remarks(ctx, st.ID)
	if err != nil {
		t.Fatalf("Remarks() error = %v", err)
	}
	if len(remarks) != 2 {
		t.Fatalf("Remarks() returned %d remarks, want 2", len(remarks))
	}
	// newest first
	if remarks[0].Text != "second call" || remarks[1].Text != "first call" {
		t.Errorf("Remarks() order = [%q, %q], want newest first", remarks[0].Text, remarks[1].Text)
	}
}
