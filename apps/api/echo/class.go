package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuolink/shule/core/class"
)

var errClassNotFoundInCtx = errors.New("class object not found in echo.Context")

type classApi struct {
	svc *class.Service
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *class.Service) {
	api := classApi{svc: svc}

	cg := g.Group("/classes", jwt, staffMiddleware())

	cg.POST("", api.create, adminMiddleware())
	cg.GET("", api.query)
	cg.DELETE("", api.destroyMultiple, adminMiddleware())

	// detail endpoints
	dg := cg.Group("/:id", ctxClassMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/slots", api.addSlot, adminMiddleware())
	dg.DELETE("/slots/:slotID", api.removeSlot, adminMiddleware())
}

// Handlers

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	filter := new(class.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []class.Class{})
	}
	filter.Clean()

	var err error
	var res []class.Class
	if filter.IsEmpty() {
		res, err = api.svc.QueryAll(ctx.Request().Context())
	} else {
		res, err = api.svc.Filter(ctx.Request().Context(), *filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if res == nil {
		res = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClassNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClassNotFoundInCtx, "retrieving object from context")
	}

	var data class.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(cls); err != nil {
		return err
	}

	cls, err := api.svc.Update(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClassNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting classes")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) addSlot(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClassNotFoundInCtx, "retrieving object from context")
	}

	var data class.NewSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	slot, err := api.svc.AddSlot(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *classApi) removeSlot(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClassNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.RemoveSlot(ctx.Request().Context(), cls.ID, ctx.Param("slotID")); err != nil {
		if errors.Cause(err) == class.ErrSlotNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "removing slot")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func ctxClassMiddleware(svc *class.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cls, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == class.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding class by ID")
			}
			ctx.Set("object", cls)
			return next(ctx)
		}
	}
}
