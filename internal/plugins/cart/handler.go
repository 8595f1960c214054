package cart

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/apperror"
)

// cartCookieName identifies the visitor's cart across requests. The cart
// is anonymous: it belongs to the browser, not to a user account.
const cartCookieName = "warningweb_cart"

const cartCookieMaxAge = 30 * 24 * time.Hour

// Handler handles HTTP requests for the cart.
type Handler struct {
	service CartService
	secure  bool
}

// NewHandler creates a new cart handler. secure controls the cookie's
// Secure flag and should be true outside development.
func NewHandler(service CartService, secure bool) *Handler {
	return &Handler{service: service, secure: secure}
}

// EnsureCartID returns the visitor's cart ID, issuing a new cookie when
// none is present. Also used by the checkout handler.
func (h *Handler) EnsureCartID(c echo.Context) string {
	if cookie, err := c.Cookie(cartCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     cartCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cartCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Get returns the visitor's cart with totals.
func (h *Handler) Get(c echo.Context) error {
	cart, err := h.service.Get(c.Request().Context(), h.EnsureCartID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

// AddItem adds a plan/period line to the cart.
func (h *Handler) AddItem(c echo.Context) error {
	var req AddRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if req.ProductID == "" || req.Period == "" {
		return apperror.NewValidation("product_id and period are required")
	}

	cart, err := h.service.AddItem(c.Request().Context(), h.EnsureCartID(c), req.ProductID, req.Period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

// RemoveItem deletes a cart line. Removing an absent line is a no-op.
func (h *Handler) RemoveItem(c echo.Context) error {
	cart, err := h.service.RemoveItem(c.Request().Context(), h.EnsureCartID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

// UpdateQuantity sets an absolute quantity; zero or less removes the line.
func (h *Handler) UpdateQuantity(c echo.Context) error {
	var req QuantityRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	cart, err := h.service.UpdateQuantity(c.Request().Context(), h.EnsureCartID(c), c.Param("id"), req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

// Clear empties the cart.
func (h *Handler) Clear(c echo.Context) error {
	if err := h.service.Clear(c.Request().Context(), h.EnsureCartID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
