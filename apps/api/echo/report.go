package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuolink/shule/core/report"
	"github.com/chuolink/shule/core/staff"
)

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt, staffMiddleware())

	rg.GET("/levels", api.levelBreakdown)
	rg.GET("/progression", api.progression)
	rg.GET("/overview", api.overview, adminMiddleware())
	rg.GET("/integrity", api.integrity, adminMiddleware(staff.RoleIT, staff.RoleOwner))
}

// bindWindow reads and validates the `window` query param; it defaults
// to all-time when absent.
func bindWindow(ctx echo.Context) (report.Window, error) {
	return report.ParseWindow(ctx.QueryParam("window"))
}

// Handlers

func (api *reportApi) levelBreakdown(ctx echo.Context) error {
	w, err := bindWindow(ctx)
	if err != nil {
		return err
	}
	breakdown, err := api.svc.LevelBreakdown(ctx.Request().Context(), w)
	if err != nil {
		return errors.Wrap(err, "computing level breakdown")
	}
	return ctx.JSON(http.StatusOK, breakdown)
}

func (api *reportApi) progression(ctx echo.Context) error {
	w, err := bindWindow(ctx)
	if err != nil {
		return err
	}
	var filter report.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	prog, err := api.svc.ProgressionReport(ctx.Request().Context(), w, filter)
	if err != nil {
		return errors.Wrap(err, "computing progression report")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *reportApi) overview(ctx echo.Context) error {
	ov, err := api.svc.Overview(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "assembling overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *reportApi) integrity(ctx echo.Context) error {
	rep, err := api.svc.Integrity(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "assembling integrity report")
	}
	return ctx.JSON(http.StatusOK, rep)
}
