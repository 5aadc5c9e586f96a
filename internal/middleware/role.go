package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole rejects requests whose "role" context value (set by JWTAuth)
// is not one of roles.  Comparison ignores case.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToUpper(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if !allowed[strings.ToUpper(role)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "role not allowed"})
			}
			return next(c)
		}
	}
}
