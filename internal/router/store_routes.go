package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pharmacy-marketplace/internal/handler"
	"github.com/iliyamo/pharmacy-marketplace/internal/middleware"
	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

// RegisterStore registers the product catalog under /v1/store. Static
// segments (my-products, search) are matched before /products/:id by echo's
// router.
func RegisterStore(e *echo.Echo, h *handler.StoreHandler, jwtSecret string, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/store", limit)

	auth := middleware.JWTAuth(jwtSecret)
	owner := middleware.RequireRole(model.RolePharmacyOwner)

	g.POST("/products", h.CreateProduct, auth, owner)
	g.GET("/products/my-products", h.MyProducts, auth, owner)
	g.PUT("/products/:id", h.UpdateProduct, auth, owner)
	g.DELETE("/products/:id", h.DeleteProduct, auth, owner)
	g.GET("/products/:id", h.GetProduct, auth, cache)

	// results depend on the caller's plan, so search is never cached
	g.GET("/products", h.ListProducts, cache)
	g.GET("/products/search", h.SearchProducts, middleware.OptionalJWT(jwtSecret))
	g.GET("/pharmacies/:id/products", h.PharmacyProducts, middleware.OptionalJWT(jwtSecret))
}
