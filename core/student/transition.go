package student

import (
	"errors"
	"fmt"

	"github.com/chuolink/shule/core"
)

var (
	errMissingNotes  = errors.New("notes are required for every level change")
	errMissingReason = errors.New("a reason is required for regressions")
)

// ValidateTransition decides whether moving a student from current to the
// requested level is admissible:
//   - levels are bounded to [MinLevel, MaxLevel]
//   - notes are mandatory, forward or backward
//   - same-level requests are rejected
//   - downgrades are rejected unless flagged as a regression with a reason
//   - the regression flag is rejected on non-downgrades
//
// It is a pure decision; appending to the ledger is the caller's job.
func ValidateTransition(current int, lc LevelChange) error {
	if !LevelInRange(lc.Level) {
		return core.NewValidationError(
			fmt.Errorf("level must be between %d and %d", MinLevel, MaxLevel),
			core.FieldError{Field: "level", Error: fmt.Sprintf("level must be between %d and %d", MinLevel, MaxLevel)},
		)
	}
	if core.CleanString(lc.Notes) == "" {
		return core.NewValidationError(errMissingNotes, core.FieldError{Field: "notes", Error: errMissingNotes.Error()})
	}

	switch {
	case lc.Level == current:
		return core.NewTransitionError(fmt.Sprintf("student is already at level %d", current))
	case lc.Level > current:
		if lc.Regression {
			return core.NewTransitionError(fmt.Sprintf("cannot regress from level %d to a higher level %d", current, lc.Level))
		}
		return nil
	default: // lc.Level < current
		if !lc.Regression {
			return core.NewTransitionError(
				fmt.Sprintf("downgrade from level %d to %d is not allowed; use the regression path with a reason", current, lc.Level),
			)
		}
		if core.CleanString(lc.RegressionReason) == "" {
			return core.NewValidationError(errMissingReason,
				core.FieldError{Field: "regression_reason", Error: errMissingReason.Error()})
		}
		return nil
	}
}
