package staff

import (
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/chuolink/shule/core"
)

func Test_validatePassword_commonPasswords(t *testing.T) {
	loadCommonPasswordsFrom(filepath.Join("..", "..", "assets", "common-passwords.txt.gz"))
	if len(commonPasswords) == 0 {
		t.Fatal("common-passwords asset not loaded")
	}

	newStaff := func(pwd string) *NewStaff {
		return &NewStaff{
			Name:            "Asha Kim",
			Username:        "ashakim",
			Email:           "asha@test.cd",
			Password:        pwd,
			PasswordConfirm: pwd,
		}
	}
	hasTag := func(err error, tag string) bool {
		vErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return false
		}
		for _, vErr := range vErrs {
			if vErr.Tag() == tag {
				return true
			}
		}
		return false
	}

	tests := []struct {
		name       string
		pwd        string
		wantCommon bool
	}{
		{"common password rejected", "P@ssw0rd", true},
		{"common password rejected case-insensitively", "p@SSw0rd", true},
		{"uncommon password accepted", "Kin5hasa!Gombe", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.Validate.Struct(newStaff(tt.pwd))
			if got := err != nil && hasTag(err, pwdNoCommonTag); got != tt.wantCommon {
				t.Errorf("Validate() error = %v, want %q reported: %v", err, pwdNoCommonTag, tt.wantCommon)
			}
		})
	}
}
