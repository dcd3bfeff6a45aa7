package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports whether the service and its backing stores are
// reachable. Redis is optional and only reported.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := echo.Map{}
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			status, code = "unavailable", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}
	return c.JSON(code, echo.Map{"status": status, "checks": checks})
}
