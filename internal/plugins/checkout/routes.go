package checkout

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/middleware"
)

// RegisterRoutes sets up the checkout routes. devMode additionally
// exposes the simulate-payment shortcut.
func RegisterRoutes(e *echo.Echo, h *Handler, devMode bool) {
	g := e.Group("/api/checkout")

	g.POST("/orders", h.Create, middleware.RateLimit(10, time.Minute))
	g.GET("/orders/:id", h.Get)
	g.POST("/orders/:id/confirm", h.Confirm)

	if devMode {
		g.POST("/orders/:id/simulate-payment", h.SimulatePayment)
	}
}
