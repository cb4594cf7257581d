package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/chuolink/shule/core/staff"
	"github.com/chuolink/shule/core/student"
	emailsvc "github.com/chuolink/shule/services/email"
	testutil "github.com/chuolink/shule/tests"
)

func Test_studentApi_create(t *testing.T) {
	app := setup(t)

	desk := testutil.CreateStaff(t, stfRepo, "Front Desk", "frontdesk", "desk@shule.cd", "", []string{staff.RoleReceptionist}, true)
	deskToken := getToken(t, desk)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", token: deskToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, student.NewStudent{}),
			wantData: marchallObj(t, map[string]string{
				"name":    "this field is required",
				"gender":  "this field is required",
				"program": "this field is required",
				"campus":  "this field is required",
			}),
		},
		{
			name: "registered", token: deskToken, wantCode: http.StatusCreated,
			body: marchallObj(t, student.NewStudent{
				Name:    "Asha Juma",
				Gender:  "F",
				Program: "Computer  Science",
				Campus:  "Main",
				Email:   "asha@test.cd",
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/students"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var st student.Student
				if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if st.Gender != student.GenderFemale {
					t.Errorf("Gender = %v; want %v", st.Gender, student.GenderFemale)
				}
				if st.Program != "computer science" {
					t.Errorf("Program = %q; want %q", st.Program, "computer science")
				}
				if st.CurrentLevel != student.MinLevel {
					t.Errorf("CurrentLevel = %v; want %v", st.CurrentLevel, student.MinLevel)
				}
				// the ledger is seeded; it is never empty
				if len(st.LevelHistory) != 1 {
					t.Fatalf("len(LevelHistory) = %v; want 1", len(st.LevelHistory))
				}
				if st.LevelHistory[0].Level != student.MinLevel {
					t.Errorf("LevelHistory[0].Level = %v; want %v", st.LevelHistory[0].Level, student.MinLevel)
				}
				if st.LevelHistory[0].Actor.ID != desk.ID {
					t.Errorf("LevelHistory[0].Actor.ID = %v; want %v", st.LevelHistory[0].Actor.ID, desk.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_recordLevelChange(t *testing.T) {
	app := setup(t)

	desk := testutil.CreateStaff(t, stfRepo, "Front Desk", "frontdesk", "desk@shule.cd", "", []string{staff.RoleReceptionist}, true)
	deskToken := getToken(t, desk)

	register := func(name string) student.Student {
		body := marchallObj(t, student.NewStudent{Name: name, Gender: "M", Program: "Business", Campus: "Main"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", deskToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("register(): code = %v; body %s", rec.Code, rec.Body.String())
		}
		var st student.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
			t.Fatalf("register(): %v", err)
		}
		return st
	}

	st := register("Juma Bakari")

	tests := []struct {
		name     string
		body     student.LevelChange
		wantCode int
	}{
		{name: "notes required", body: student.LevelChange{Level: 2}, wantCode: http.StatusBadRequest},
		{name: "same level rejected", body: student.LevelChange{Level: 1, Notes: "no-op"}, wantCode: http.StatusBadRequest},
		{name: "out of range rejected", body: student.LevelChange{Level: 6, Notes: "lol"}, wantCode: http.StatusBadRequest},
		{name: "upgrade", body: student.LevelChange{Level: 3, Notes: "visited campus"}, wantCode: http.StatusOK},
		{name: "downgrade needs regression flag", body: student.LevelChange{Level: 2, Notes: "stalled"}, wantCode: http.StatusBadRequest},
		{name: "regression needs a reason", body: student.LevelChange{Level: 2, Notes: "stalled", Regression: true}, wantCode: http.StatusBadRequest},
		{
			name:     "regression recorded",
			body:     student.LevelChange{Level: 2, Notes: "stalled", Regression: true, RegressionReason: "fees unpaid"},
			wantCode: http.StatusOK,
		},
		{name: "regression flag on upgrade rejected", body: student.LevelChange{Level: 4, Notes: "lol", Regression: true, RegressionReason: "lol"}, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+st.ID+"/level", deskToken, marchallObj(t, tt.body))
			app.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var ev student.LevelEvent
			if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
				t.Fatalf("json.Unmarshal(): %v", err)
			}
			if ev.Level != tt.body.Level {
				t.Errorf("Level = %v; want %v", ev.Level, tt.body.Level)
			}
			if ev.IsRegression != tt.body.Regression {
				t.Errorf("IsRegression = %v; want %v", ev.IsRegression, tt.body.Regression)
			}
			if tt.body.Regression && ev.PreviousLevel == 0 {
				t.Error("PreviousLevel not set on regression")
			}
		})
	}

	// the ledger holds every change, in order, nothing rewritten
	req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+st.ID+"/level-history", deskToken)
	app.ServeHTTP(rec, req)
	var history []student.LevelEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	wantLevels := []int{1, 3, 2} // seed, upgrade, regression
	if len(history) != len(wantLevels) {
		t.Fatalf("len(history) = %v; want %v", len(history), len(wantLevels))
	}
	for i, lvl := range wantLevels {
		if history[i].Level != lvl {
			t.Errorf("history[%d].Level = %v; want %v", i, history[i].Level, lvl)
		}
	}
}

func Test_studentApi_admission(t *testing.T) {
	app := setup(t)
	emailsvc.SentMessages = emailsvc.SentMessages[:0]

	desk := testutil.CreateStaff(t, stfRepo, "Front Desk", "frontdesk", "desk@shule.cd", "", []string{staff.RoleReceptionist}, true)
	deskToken := getToken(t, desk)

	body := marchallObj(t, student.NewStudent{Name: "Asha Juma", Gender: "F", Program: "Business", Campus: "Main", Email: "asha@test.cd"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/students", deskToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var st student.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}

	lc := marchallObj(t, student.LevelChange{Level: 5, Notes: "all paperwork complete"})
	req, rec = newAuthRequest(http.MethodPut, "/v1/students/"+st.ID+"/level", deskToken, lc)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("level change: code = %v; body %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/students/"+st.ID, deskToken)
	app.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if !st.Admitted {
		t.Error("Admitted = false; want true")
	}
	if st.AdmittedOn.IsZero() {
		t.Error("AdmittedOn not set")
	}

	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %v; want 1", len(emailsvc.SentMessages))
	}
	if to := emailsvc.SentMessages[0].To[0].Address; to != "asha@test.cd" {
		t.Errorf("To = %v; want asha@test.cd", to)
	}
}

func Test_studentApi_remarks(t *testing.T) {
	app := setup(t)

	desk := testutil.CreateStaff(t, stfRepo, "Front Desk", "frontdesk", "desk@shule.cd", "", []string{staff.RoleReceptionist}, true)
	deskToken := getToken(t, desk)

	st := testutil.CreateStudent(t, stdRepo, "Juma Bakari", "M", "Business", "Main", 1, nil)

	for _, text := range []string{"called, no answer", "follow up next week"} {
		body := marchallObj(t, student.NewRemark{Text: text})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students/"+st.ID+"/remarks", deskToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add remark: code = %v; body %s", rec.Code, rec.Body.String())
		}
	}

	// newest first
	req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+st.ID+"/remarks", deskToken)
	app.ServeHTTP(rec, req)
	var remarks []student.Remark
	if err := json.Unmarshal(rec.Body.Bytes(), &remarks); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(remarks) != 2 {
		t.Fatalf("len(remarks) = %v; want 2", len(remarks))
	}
	if remarks[0].Text != "follow up next week" {
		t.Errorf("remarks[0].Text = %q; want newest first", remarks[0].Text)
	}
}

func Test_studentApi_backfill(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateStaff(t, stfRepo, "Admin", "admin1", "admin@shule.cd", "", []string{staff.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	// a legacy record: level 3, no ledger at all
	st := testutil.CreateStudent(t, stdRepo, "Legacy Rec", "F", "Business", "Main", 3, nil)

	req, rec := newAuthRequest(http.MethodPost, "/v1/students/"+st.ID+"/backfill", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("backfill: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var events []student.LevelEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %v; want 3", len(events))
	}
	for i, ev := range events {
		if ev.Level != i+1 {
			t.Errorf("events[%d].Level = %v; want %v", i, ev.Level, i+1)
		}
		if ev.Actor.Label != student.BackfillActorLabel {
			t.Errorf("events[%d].Actor.Label = %q; want %q", i, ev.Actor.Label, student.BackfillActorLabel)
		}
	}

	// running it again is a no-op
	req, rec = newAuthRequest(http.MethodPost, "/v1/students/"+st.ID+"/backfill", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("backfill: code = %v; body %s", rec.Code, rec.Body.String())
	}
	events = events[:0]
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if len(events) != 0 {
		t.Errorf("len(events) = %v; want 0", len(events))
	}
}
