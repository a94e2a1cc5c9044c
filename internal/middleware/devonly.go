package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DevOnly hides a route in production by answering 404, as if it had never
// been registered.
func DevOnly(production bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if production {
				return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
			}
			return next(c)
		}
	}
}
