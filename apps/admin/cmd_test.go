package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"testing"

	"github.com/chuolink/shule/core/staff"
	"github.com/chuolink/shule/core/student"
	emailsvc "github.com/chuolink/shule/services/email"
	logsvc "github.com/chuolink/shule/services/logger"
	inmemdb "github.com/chuolink/shule/storage/inmem"
	testutil "github.com/chuolink/shule/tests"
)

var (
	stfRepo staff.Repository
	stdRepo student.Repository
)

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup(): %v", err)
	}
	stfRepo = inmemdb.NewStaffRepository(db)
	stdRepo = inmemdb.NewStudentRepository(db)

	quiet := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	stdSvc := student.NewService(stdRepo, emailsvc.NewConsoleServiceMock(), quiet)

	// start CLI
	return &commandLine{
		stfRepo: stfRepo,
		stdSvc:  stdSvc,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	stf := testutil.CreateStaff(t, stfRepo, "Front Desk", "frontdesk", "desk@shule.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "staff not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: staff.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", stf.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", stf.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := stfRepo.GetStaffByID(context.Background(), stf.ID)
				if err != nil {
					t.Fatalf("GetStaffByID(): %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, stf.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addStaff(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"addstaff"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"addstaff", "-username", "boss"}, wantErr: errHelp},
		{name: "created", args: []string{"addstaff", "-username", "boss", "-email", "boss@shule.cd", "-admin"}, extra: extra{pwd: "lol"}},
		{name: "updated", args: []string{"addstaff", "-username", "boss"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	stf, err := stfRepo.GetStaffByUsername(context.Background(), "boss")
	if err != nil {
		t.Fatalf("GetStaffByUsername(): %v", err)
	}
	if !stf.IsActive {
		t.Error("IsActive = false; want true")
	}
	if !stf.IsAdmin() {
		t.Error("IsAdmin() = false; want true")
	}
	if err := stf.CheckPassword("lmao"); err != nil {
		t.Error("password was not updated")
	}
}

func Test_commandLine_backfill(t *testing.T) {
	cli := setup(t)

	// two legacy records without ledgers, one healthy
	testutil.CreateStudent(t, stdRepo, "Legacy A", "M", "business", "Main", 3, nil)
	testutil.CreateStudent(t, stdRepo, "Legacy B", "F", "business", "Main", 2, nil)

	if err := cli.run([]string{"admin", "backfill"}); err != nil {
		t.Fatalf("cli.run(): %v", err)
	}

	students, err := stdRepo.QueryAllStudents(context.Background())
	if err != nil {
		t.Fatalf("QueryAllStudents(): %v", err)
	}
	for _, st := range students {
		if len(st.LevelHistory) != st.CurrentLevel {
			t.Errorf("student %s: len(LevelHistory) = %v; want %v", st.Name, len(st.LevelHistory), st.CurrentLevel)
		}
	}

	// idempotent: a second run appends nothing
	if err := cli.run([]string{"admin", "backfill"}); err != nil {
		t.Fatalf("cli.run(): %v", err)
	}
	students, _ = stdRepo.QueryAllStudents(context.Background())
	for _, st := range students {
		if len(st.LevelHistory) != st.CurrentLevel {
			t.Errorf("student %s: ledger grew on re-run", st.Name)
		}
	}
}
