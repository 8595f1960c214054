package checkout

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/plugins/auth"
	"github.com/warningbypass/warningweb/internal/plugins/cart"
)

// Handler handles HTTP requests for checkout.
type Handler struct {
	service CheckoutService
	carts   *cart.Handler
}

// NewHandler creates a new checkout handler. The cart handler supplies
// the visitor's cart cookie.
func NewHandler(service CheckoutService, carts *cart.Handler) *Handler {
	return &Handler{service: service, carts: carts}
}

// Create turns the visitor's cart into a pending PIX order.
func (h *Handler) Create(c echo.Context) error {
	o, err := h.service.Create(c.Request().Context(), h.carts.EnsureCartID(c), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, orderResponse(o))
}

// Get returns the current state of an order, including the countdown.
func (h *Handler) Get(c echo.Context) error {
	o, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderResponse(o))
}

// Confirm marks a pending order as paid and clears the cart.
func (h *Handler) Confirm(c echo.Context) error {
	o, err := h.service.Confirm(c.Request().Context(), c.Param("id"), h.carts.EnsureCartID(c), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderResponse(o))
}

// SimulatePayment is the development-only shortcut that settles an order
// without any payment interaction. Registered only when the server runs
// in development mode.
func (h *Handler) SimulatePayment(c echo.Context) error {
	return h.Confirm(c)
}

func orderResponse(o *Order) map[string]any {
	return map[string]any{
		"order":        o,
		"seconds_left": o.SecondsLeft(time.Now()),
	}
}
