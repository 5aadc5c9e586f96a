package middleware

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// subject returns the authenticated caller id, or "anon" for public
// traffic.  It reads the token JWTAuth stored and then the plain user_id.
func subject(c echo.Context) string {
	if tok, ok := c.Get("user").(*jwt.Token); ok {
		if sub, err := tok.Claims.GetSubject(); err == nil && sub != "" {
			return sub
		}
	}
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
