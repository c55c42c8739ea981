package echoapi

import (
	"github.com/labstack/echo/v4"
)

// teacherMiddleware restricts a route to authenticated teachers and admins.
func teacherMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !(claims.IsTeacher || claims.IsAdmin) {
				return errHTTPForbidden
			}
			return next(ctx)
		}
	}
}

// adminMiddleware restricts a route to authenticated admins.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.IsAdmin {
				return errHTTPForbidden
			}
			return next(ctx)
		}
	}
}
