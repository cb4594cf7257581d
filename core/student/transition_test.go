package student

import (
	"testing"

	"github.com/chuolink/shule/core"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		lc       LevelChange
		wantErr  bool
		wantKind string // "validation" | "transition"
	}{
		{name: "upgrade by one", current: 1, lc: LevelChange{Level: 2, Notes: "called back"}},
		{name: "upgrade jumps levels", current: 1, lc: LevelChange{Level: 4, Notes: "walk-in, paid deposit"}},
		{name: "upgrade to admitted", current: 4, lc: LevelChange{Level: 5, Notes: "paperwork complete"}},
		{name: "regression with reason", current: 3, lc: LevelChange{Level: 2, Notes: "stalled", Regression: true, RegressionReason: "fees unpaid"}},
		{name: "level below range", current: 1, lc: LevelChange{Level: 0, Notes: "lol"}, wantErr: true, wantKind: "validation"},
		{name: "level above range", current: 1, lc: LevelChange{Level: 6, Notes: "lol"}, wantErr: true, wantKind: "validation"},
		{name: "missing notes", current: 1, lc: LevelChange{Level: 2}, wantErr: true, wantKind: "validation"},
		{name: "blank notes", current: 1, lc: LevelChange{Level: 2, Notes: "   "}, wantErr: true, wantKind: "validation"},
		{name: "same level", current: 2, lc: LevelChange{Level: 2, Notes: "lol"}, wantErr: true, wantKind: "transition"},
		{name: "downgrade without flag", current: 3, lc: LevelChange{Level: 2, Notes: "lol"}, wantErr: true, wantKind: "transition"},
		{name: "regression flag on upgrade", current: 2, lc: LevelChange{Level: 3, Notes: "lol", Regression: true, RegressionReason: "lol"}, wantErr: true, wantKind: "transition"},
		{name: "regression without reason", current: 3, lc: LevelChange{Level: 2, Notes: "stalled", Regression: true}, wantErr: true, wantKind: "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.current, tt.lc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTransition() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			switch tt.wantKind {
			case "validation":
				if _, ok := err.(*core.ValidationError); !ok {
					t.Errorf("ValidateTransition() error type = %T, want *core.ValidationError", err)
				}
			case "transition":
				if _, ok := err.(*core.TransitionError); !ok {
					t.Errorf("ValidateTransition() error type = %T, want *core.TransitionError", err)
				}
			}
		})
	}
}
