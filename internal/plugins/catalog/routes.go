package catalog

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the catalog routes. Plan listing is public;
// ownership requires a session.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/products")

	g.GET("", h.List)
	g.GET("/owned", h.Owned, requireAuth)
	g.GET("/:id", h.Get)
}
