package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/cors"
)

// CORS wraps rs/cors for echo. A single "*" origin allows any origin
// without credentials.
func CORS(origins []string) echo.MiddlewareFunc {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"X-Request-ID", "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         600,
	}
	if !(len(origins) == 1 && origins[0] == "*") {
		opts.AllowCredentials = true
	}
	return echo.WrapMiddleware(cors.New(opts).Handler)
}
