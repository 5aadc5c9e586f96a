package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AccessLog writes one "[access]" line per request.
func AccessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo's error handler set the final status before logging
				c.Error(err)
			}
			log.Info().
				Str("route", c.Path()).
				Msgf("[access] [%s] %s %s %d %v",
					c.RealIP(), c.Request().Method, c.Request().URL.Path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
