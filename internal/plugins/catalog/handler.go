package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/plugins/auth"
)

// Handler handles HTTP requests for the product catalog.
type Handler struct {
	service CatalogService
}

// NewHandler creates a new catalog handler.
func NewHandler(service CatalogService) *Handler {
	return &Handler{service: service}
}

// List returns all storefront plans.
func (h *Handler) List(c echo.Context) error {
	products, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"products": products})
}

// Get returns a single plan by ID.
func (h *Handler) Get(c echo.Context) error {
	p, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Owned returns the authenticated user's entitlements.
func (h *Handler) Owned(c echo.Context) error {
	userID := auth.GetUserID(c)

	owned, err := h.service.ListOwned(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"products": owned})
}
