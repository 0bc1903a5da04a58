package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/yatube/internal/media"
	"github.com/labstack/echo/v4"
)

// MediaHandler serves uploaded files from the media backend.
type MediaHandler struct {
	media media.Storage
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(store media.Storage) *MediaHandler {
	return &MediaHandler{media: store}
}

// RegisterMediaRoutes registers the media route
func (h *MediaHandler) RegisterMediaRoutes(e *echo.Echo) {
	e.GET("/media/*", h.Serve)
}

// Serve streams one stored file.
func (h *MediaHandler) Serve(c echo.Context) error {
	name := strings.TrimPrefix(c.Param("*"), "/")
	if name == "" {
		return echo.ErrNotFound
	}

	rc, err := h.media.Open(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	defer rc.Close()

	header := c.Response().Header()
	header.Set("Cache-Control", "public, max-age=86400")
	header.Set(echo.HeaderXContentTypeOptions, "nosniff")
	return c.Stream(http.StatusOK, media.ContentType(name), rc)
}
