package stats

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the stats routes.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	e.GET("/api/stats", h.Get, requireAuth)
}
