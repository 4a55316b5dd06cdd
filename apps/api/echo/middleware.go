package echoapi

import (
	"github.com/labstack/echo/v4"
)

// adminMiddleware must run after protectMiddleware.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := mustContextUser(ctx)
			if err != nil {
				return err
			}
			if !usr.IsAdmin() {
				return errNotAdmin
			}
			return next(ctx)
		}
	}
}

// selfOrAdminMiddleware lets through the user named by the `param` path parameter, and admins.
func selfOrAdminMiddleware(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := mustContextUser(ctx)
			if err != nil {
				return err
			}
			if ctx.Param(param) == usr.ID || usr.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
