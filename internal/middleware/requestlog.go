package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

// RequestLogger tags every request with an id (reusing a client supplied
// X-Request-ID) and logs one line per request. 5xx responses log at error
// level.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(headerRequestID)
			if id == "" || len(id) > 64 {
				id = uuid.NewString()
			}
			c.Set("request_id", id)
			c.Response().Header().Set(headerRequestID, id)

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", c.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if uid, ok := UserID(c); ok {
				fields = append(fields, zap.Uint64("user_id", uid))
			}
			switch {
			case status >= 500:
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
