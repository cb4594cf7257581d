package staff

import (
	"testing"
	"time"

	"github.com/chuolink/shule/core"
)

func TestMakeVerifyToken(t *testing.T) {
	now := time.Now()
	stf := Staff{
		ID:        "5f7c1b9e2d3a4c0001a1b2c3",
		Name:      "T",
		Username:  "t",
		Email:     "t@test.test",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = stf.SetPassword("pwd")

	validToken, err := MakeToken(stf)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}

	// generate an expired token
	dayLate := core.Conf.Server.PasswordResetTimeoutDelta + (24 * time.Hour)
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := MakeToken(stf)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	NowFunc = time.Now // reset

	tests := []struct {
		name    string
		stf     Staff
		token   string
		wantErr error
	}{
		{name: "no token", stf: stf, wantErr: errInvalidToken},
		{name: "invalid parts len", stf: stf, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", stf: stf, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", stf: stf, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", stf: stf, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", stf: stf, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", stf: stf, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(tt.stf, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
