package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/chuolink/shule/apps/api/echo"
	"github.com/chuolink/shule/core"
	"github.com/chuolink/shule/core/class"
	"github.com/chuolink/shule/core/report"
	"github.com/chuolink/shule/core/staff"
	"github.com/chuolink/shule/core/student"
	emailsvc "github.com/chuolink/shule/services/email"
	logsvc "github.com/chuolink/shule/services/logger"
	inmemdb "github.com/chuolink/shule/storage/inmem"
)

var (
	stfRepo staff.Repository
	stdRepo student.Repository
	clsRepo class.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func setup(t *testing.T) Server {
	// force TEST mode regardless of the caller's env
	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup(): %v", err)
	}
	stfRepo = inmemdb.NewStaffRepository(db)
	stdRepo = inmemdb.NewStudentRepository(db)
	clsRepo = inmemdb.NewClassRepository(db)

	// set up services
	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()
	stfSvc := staff.NewServiceMock(stfRepo, mailSvc)
	stdSvc := student.NewService(stdRepo, mailSvc, logger)
	clsSvc := class.NewService(clsRepo)
	repSvc := report.NewService(stdRepo, stfRepo, clsRepo, logger)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logger,
			StaffSvc:       stfSvc,
			StudentSvc:     stdSvc,
			ClassSvc:       clsSvc,
			ReportSvc:      repSvc,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, stf staff.Staff) string {
	claims := GetStaffClaims(stf)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
