package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuolink/shule/core/staff"
	"github.com/chuolink/shule/core/student"
)

var errStudentNotFoundInCtx = errors.New("student object not found in echo.Context")

type studentApi struct {
	svc      *student.Service
	staffSvc staff.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service, staffSvc staff.Service) {
	api := studentApi{svc: svc, staffSvc: staffSvc}

	sg := g.Group("/students", jwt, staffMiddleware())

	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.DELETE("", api.destroyMultiple, adminMiddleware())

	// detail endpoints
	dg := sg.Group("/:id", ctxStudentMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.PUT("/level", api.recordLevelChange)
	dg.GET("/level-history", api.levelHistory)
	dg.POST("/remarks", api.addRemark)
	dg.GET("/remarks", api.queryRemarks)
	dg.POST("/backfill", api.backfill, adminMiddleware())
}

// actor resolves the acting staff member from the request context.
func (api *studentApi) actor(ctx echo.Context) (student.Actor, error) {
	stf, err := getContextStaff(ctx, api.staffSvc)
	if err != nil {
		return student.Actor{}, errors.Wrap(err, "getting context staff")
	}
	return student.Actor{ID: stf.ID, Label: stf.Name}, nil
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.Create(ctx.Request().Context(), data, actor)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}

	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()

	var err error
	var res []student.Student
	if filter.IsEmpty() {
		res, err = api.svc.QueryAll(ctx.Request().Context())
	} else {
		res, err = api.svc.Filter(ctx.Request().Context(), *filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if res == nil {
		res = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(st); err != nil {
		return err
	}

	st, err := api.svc.Update(ctx.Request().Context(), st.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), st.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// recordLevelChange moves the student along the admission funnel. The
// change is validated against the ledger and appended to it; it is never
// applied as a plain field update.
func (api *studentApi) recordLevelChange(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}

	var data student.LevelChange
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LevelChange")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	ev, err := api.svc.RecordLevelChange(ctx.Request().Context(), st.ID, data, actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *studentApi) levelHistory(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	history := st.LevelHistory
	if history == nil {
		history = []student.LevelEvent{}
	}
	return ctx.JSON(http.StatusOK, history)
}

func (api *studentApi) addRemark(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}

	var data student.NewRemark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRemark")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	rm, err := api.svc.AddRemark(ctx.Request().Context(), st.ID, data, actor)
	if err != nil {
		return errors.Wrap(err, "adding remark")
	}
	return ctx.JSON(http.StatusCreated, rm)
}

func (api *studentApi) queryRemarks(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	remarks, err := api.svc.Remarks(ctx.Request().Context(), st.ID)
	if err != nil {
		return errors.Wrap(err, "querying remarks")
	}
	if remarks == nil {
		remarks = []student.Remark{}
	}
	return ctx.JSON(http.StatusOK, remarks)
}

func (api *studentApi) backfill(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	events, err := api.svc.Backfill(ctx.Request().Context(), st.ID)
	if err != nil {
		return errors.Wrap(err, "backfilling ledger")
	}
	if events == nil {
		events = []student.LevelEvent{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func ctxStudentMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			st, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set("object", st)
			return next(ctx)
		}
	}
}
