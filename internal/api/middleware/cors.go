package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefaultOrigin is allowed when no origins are configured
const DefaultOrigin = "http://localhost:3000"

// SecureCORS returns CORS middleware for the given origins. In production
// the wildcard origin is dropped.
func SecureCORS(origins []string, production bool) echo.MiddlewareFunc {
	filtered := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "" || (production && origin == "*") {
			continue
		}
		filtered = append(filtered, origin)
	}
	if len(filtered) == 0 {
		filtered = []string{DefaultOrigin}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     filtered,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
