package activity

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the activity routes.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	e.GET("/api/activity", h.List, requireAuth)
}
