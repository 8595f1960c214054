package cart

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the cart routes. Carts are anonymous, so no
// session is required.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/cart")

	g.GET("", h.Get)
	g.DELETE("", h.Clear)
	g.POST("/items", h.AddItem)
	g.PUT("/items/:id", h.UpdateQuantity)
	g.DELETE("/items/:id", h.RemoveItem)
}
