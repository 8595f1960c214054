package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/plugins/auth"
)

// Handler handles HTTP requests for user stats.
type Handler struct {
	service StatsService
}

// NewHandler creates a new stats handler.
func NewHandler(service StatsService) *Handler {
	return &Handler{service: service}
}

// Get returns the authenticated user's counters.
func (h *Handler) Get(c echo.Context) error {
	userID := auth.GetUserID(c)

	stats, err := h.service.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
