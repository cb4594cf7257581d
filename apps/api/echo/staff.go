package echoapi

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuolink/shule/core"
	"github.com/chuolink/shule/core/staff"
)

var (
	errStfNotFoundInCtx  = errors.New("staff object not found in echo.Context")
	errNoPermsToSetRoles = "not enough rights to set these roles"
)

type staffApi struct {
	svc staff.Service
}

func registerStaffAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc staff.Service) {
	api := staffApi{svc: svc}

	sg := g.Group("/staff")

	// un-authed endpoints
	// TODO: rate limit `/password-reset` & `/password-reset-confirm`
	sg.POST("/login", api.login)
	sg.POST("/password-reset", api.resetPassword)
	sg.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := sg.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("/register", api.create, adminMiddleware())
	ag.GET("", api.query, adminMiddleware())
	ag.DELETE("", api.destroyMultiple, adminMiddleware())
	ag.GET("/roles", api.queryRoles, adminMiddleware())

	// detail endpoints
	dg := ag.Group("/:id", ctxStaffOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
}

// Handlers

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	// ctxStaff cannot set a role > their own max role
	ctxStf, err := getContextStaff(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context staff")
	}
	if staff.MaxRolePriority(data.Roles) > staff.MaxRolePriority(ctxStf.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}

	stf, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff")
	}

	return ctx.JSON(http.StatusCreated, stf)
}

func (api *staffApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Username, data.Password, api.svc)
	if err != nil {
		if errors.Cause(err) == staff.ErrNotFound {
			return core.NewValidationError(errors.New("invalid credentials"))
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *staffApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == staff.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *staffApi) confirmPasswordReset(ctx echo.Context) error {
	var data staff.ResetStaffPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetStaffPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *staffApi) query(ctx echo.Context) error {
	filter := new(staff.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []staff.Staff{})
	}
	filter.Clean()

	var err error
	var res []staff.Staff
	if filter.IsEmpty() {
		res, err = api.svc.QueryAll(ctx.Request().Context())
	} else {
		res, err = api.svc.Filter(ctx.Request().Context(), *filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	if res == nil {
		res = []staff.Staff{}
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	stf, ok := ctx.Get("object").(staff.Staff)
	if !ok {
		return errors.Wrap(errStfNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, stf)
}

func (api *staffApi) update(ctx echo.Context) error {
	stf, ok := ctx.Get("object").(staff.Staff)
	if !ok {
		return errors.Wrap(errStfNotFoundInCtx, "retrieving object from context")
	}

	var data staff.UpdateStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStaff")
	}

	ctxStf, err := getContextStaff(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context staff")
	}
	if !ctxStf.IsAdmin() {
		// `IsActive` and `Roles` can only be changed by admin
		// `Username` and `Email` can only be changed by admin for now
		if data.IsActive != nil || data.Roles != nil || data.Username != "" || data.Email != "" {
			return errHttpForbidden
		}
	}

	if err := data.Validate(ctx.Request().Context(), stf, api.svc); err != nil {
		return err
	}

	// ctxStaff cannot set a role > their own max role
	if staff.MaxRolePriority(data.Roles) > staff.MaxRolePriority(ctxStf.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}

	stf, err = api.svc.Update(ctx.Request().Context(), stf.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating staff")
	}

	return ctx.JSON(http.StatusOK, stf)
}

func (api *staffApi) destroy(ctx echo.Context) error {
	stf, ok := ctx.Get("object").(staff.Staff)
	if !ok {
		return errors.Wrap(errStfNotFoundInCtx, "retrieving object from context")
	}

	// ctxStaff cannot delete themselves
	ctxStf, err := getContextStaff(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context staff")
	}
	if stf.ID == ctxStf.ID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), stf.ID); err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// ctxStaff cannot delete themselves
	ctxStf, err := getContextStaff(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context staff")
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, ctxStf.ID); i < len(query.IDs) {
		if match := query.IDs[i]; ctxStf.ID == match {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, staff.Roles)
}

func (api *staffApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func ctxStaffOrAdminMiddleware(svc staff.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxStf, err := getContextStaff(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context staff")
			}

			if ctx.Param("id") == ctxStf.ID || ctxStf.IsAdmin() {
				if stf, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", stf)
					return next(ctx)
				} else if errors.Cause(err) != staff.ErrNotFound {
					return errors.Wrap(err, "finding staff by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
