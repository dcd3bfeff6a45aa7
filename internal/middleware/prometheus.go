package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pharmacy-marketplace/internal/metrics"
)

// Metrics records request count and latency per route. /metrics itself is
// not measured.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/metrics") {
				return next(c)
			}
			done := metrics.RequestStarted()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			done(c.Request().Method, route, c.Response().Status)
			return nil
		}
	}
}
