package profile

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all profile routes. Every endpoint requires an
// authenticated session.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/profile", requireAuth)

	g.GET("", h.Get)
	g.PUT("", h.Update)
	g.POST("/avatar", h.UploadAvatar)
	g.GET("/avatar", h.Avatar)
}
