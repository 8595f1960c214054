package activity

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/plugins/auth"
)

// Handler handles HTTP requests for the activity log.
type Handler struct {
	service ActivityService
}

// NewHandler creates a new activity handler.
func NewHandler(service ActivityService) *Handler {
	return &Handler{service: service}
}

// List returns the authenticated user's recent activity. An optional
// limit query parameter controls the page size.
func (h *Handler) List(c echo.Context) error {
	userID := auth.GetUserID(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, err := h.service.ListForUser(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}
