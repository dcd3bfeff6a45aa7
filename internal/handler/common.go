package handler

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/iliyamo/pharmacy-marketplace/internal/middleware"
)

// dbTimeout bounds non-search database work per request.
const dbTimeout = 5 * time.Second

// fieldError describes one invalid input value.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type fieldErrors []fieldError

func (fe *fieldErrors) add(field, msg string) {
	*fe = append(*fe, fieldError{Field: field, Message: msg})
}

func validationFailed(c echo.Context, fe fieldErrors) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fe})
}

// serverError logs err with the request id and answers 500 with msg.
func serverError(c echo.Context, msg string, err error) error {
	zap.L().Error(msg,
		zap.Error(err),
		zap.String("request_id", requestID(c)),
		zap.String("route", c.Path()),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

func requestID(c echo.Context) string {
	id, _ := c.Get("request_id").(string)
	return id
}

// getUserID returns the authenticated caller set by the JWT middleware.
func getUserID(c echo.Context) (uint64, bool) {
	return middleware.UserID(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// decimal reports whether raw is a plain base-10 number and returns it
// without leading zeros. cast infers the base from a 0, 0x or 0b prefix, so
// only the stripped form may be handed to it.
func decimal(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if s := strings.TrimLeft(raw, "0"); s != "" {
		return s, true
	}
	return "0", true
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	raw, ok := decimal(c.Param(name))
	if !ok {
		return 0, false
	}
	id, err := cast.ToUint64E(raw)
	return id, err == nil && id > 0
}

// finite rejects NaN and infinities, which strconv happily parses.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// checkCoordinates validates an optional lat/lon pair. Both or neither
// must be present.
func checkCoordinates(fe *fieldErrors, lat, lon *float64) {
	if (lat == nil) != (lon == nil) {
		fe.add("latitude", "latitude and longitude must be given together")
		return
	}
	if lat != nil && (!finite(*lat) || *lat < -90 || *lat > 90) {
		fe.add("latitude", "latitude must be between -90 and 90")
	}
	if lon != nil && (!finite(*lon) || *lon < -180 || *lon > 180) {
		fe.add("longitude", "longitude must be between -180 and 180")
	}
}
