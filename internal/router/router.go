// Package router registers HTTP routes per audience.
package router

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/pharmacy-marketplace/internal/config"
	"github.com/iliyamo/pharmacy-marketplace/internal/handler"
	"github.com/iliyamo/pharmacy-marketplace/internal/metrics"
	"github.com/iliyamo/pharmacy-marketplace/internal/middleware"
)

// Deps is everything the routes need.
type Deps struct {
	Cfg         config.Config
	Log         *zap.Logger
	Redis       *redis.Client // nil disables caching and rate limiting
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Pharmacists *handler.PharmacistHandler
	Owners      *handler.PharmacyOwnerHandler
	Store       *handler.StoreHandler
}

// New builds the echo instance with the global middleware chain and every
// route group.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Metrics())
	e.Use(middleware.CORS(d.Cfg.CORSOrigins))

	RegisterOps(e, d.Health)
	if local := d.Cfg.Storage.Driver == "" || d.Cfg.Storage.Driver == "local"; local && strings.HasPrefix(d.Cfg.Storage.PublicBaseURL, "/") {
		e.Static(d.Cfg.Storage.PublicBaseURL, d.Cfg.Storage.LocalDir)
	}

	limit := middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis, d.Log)
	authLimit := middleware.NewTokenBucket(d.Cfg.RateLimit.WithCapacity(d.Cfg.RateLimit.AuthCapacity, "auth"), d.Redis, d.Log)
	cache := middleware.NewRedisCache(d.Cfg.Cache, d.Redis)

	RegisterAuth(e, d.Auth, d.Cfg.JWTSecret, authLimit)
	RegisterPharmacists(e, d.Pharmacists, d.Cfg.JWTSecret, limit)
	RegisterPharmacyOwners(e, d.Owners, d.Cfg.JWTSecret, limit)
	RegisterStore(e, d.Store, d.Cfg.JWTSecret, limit, cache)
	return e
}

// RegisterOps exposes health and Prometheus endpoints.
func RegisterOps(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers account endpoints. Register, login, refresh and
// logout need no session; /v1/me does.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register/pharmacist", a.RegisterPharmacist)
	g.POST("/register/pharmacy-owner", a.RegisterPharmacyOwner)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}
