package student

import (
	"github.com/go-playground/validator/v10"

	"github.com/chuolink/shule/core"
)

var (
	regressionReasonTag  = "regression_reason_required"
	regressionReasonText = "a reason is required for regressions"
)

func init() {
	core.Validate.RegisterStructValidation(levelChangeStructValidation, LevelChange{})
	core.RegisterCustomTranslation(regressionReasonTag, regressionReasonText)
}

// levelChangeStructValidation requires a reason whenever the regression
// path is invoked.
func levelChangeStructValidation(sl validator.StructLevel) {
	lc, ok := sl.Current().Interface().(LevelChange)
	if !ok {
		return
	}
	if lc.Regression && lc.RegressionReason == "" {
		sl.ReportError(lc.RegressionReason, "regression_reason", "RegressionReason", regressionReasonTag, "")
	}
}
