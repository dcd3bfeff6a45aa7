package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pharmacy-marketplace/internal/handler"
	"github.com/iliyamo/pharmacy-marketplace/internal/middleware"
	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

// RegisterPharmacyOwners registers /v1/pharmacy-owners. All routes require
// a PHARMACY_OWNER token.
func RegisterPharmacyOwners(e *echo.Echo, h *handler.PharmacyOwnerHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/pharmacy-owners",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolePharmacyOwner),
		limit,
	)
	g.GET("/me", h.GetMe)
	g.PUT("/me", h.UpdateMe)
	g.POST("/me/subscribe", h.Subscribe)
}
