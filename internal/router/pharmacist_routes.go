package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pharmacy-marketplace/internal/handler"
	"github.com/iliyamo/pharmacy-marketplace/internal/middleware"
	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

// RegisterPharmacists registers /v1/pharmacists. Pharmacists manage their
// own profile; pharmacies search and view pharmacists.
func RegisterPharmacists(e *echo.Echo, h *handler.PharmacistHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/pharmacists", middleware.JWTAuth(jwtSecret), limit)

	self := middleware.RequireRole(model.RolePharmacist)
	g.GET("/me", h.GetMe, self)
	g.PUT("/me", h.UpdateMe, self)
	g.POST("/me/cv", h.UploadCV, self)

	owner := middleware.RequireRole(model.RolePharmacyOwner)
	g.GET("/search", h.Search, owner)
	g.GET("/:id", h.GetByID, owner)
}
