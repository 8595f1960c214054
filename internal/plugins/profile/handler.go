package profile

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/plugins/auth"
)

// Handler handles HTTP requests for profiles.
type Handler struct {
	service ProfileService
}

// NewHandler creates a new profile handler.
func NewHandler(service ProfileService) *Handler {
	return &Handler{service: service}
}

// Get returns the authenticated user's profile, creating it on first access.
func (h *Handler) Get(c echo.Context) error {
	session := auth.GetSession(c)

	p, err := h.service.Get(c.Request().Context(), session.UserID, session.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Update modifies the authenticated user's display name and bio.
func (h *Handler) Update(c echo.Context) error {
	session := auth.GetSession(c)

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	p, err := h.service.Update(c.Request().Context(), session.UserID, UpdateInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Website:     req.Website,
		Location:    req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UploadAvatar accepts a multipart upload under the "avatar" field.
func (h *Handler) UploadAvatar(c echo.Context) error {
	userID := auth.GetUserID(c)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return apperror.NewBadRequest("avatar file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperror.NewBadRequest("could not read avatar file")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if err := h.service.UploadAvatar(c.Request().Context(), userID, file, fileHeader.Size, contentType); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Avatar streams the authenticated user's stored avatar image.
func (h *Handler) Avatar(c echo.Context) error {
	userID := auth.GetUserID(c)

	rc, contentType, err := h.service.ServeAvatar(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response(), rc)
	return err
}
