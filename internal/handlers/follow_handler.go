package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
	}
}

// RegisterFollowRoutes registers follow routes. Both accept GET so they
// work as plain links.
func (h *FollowHandler) RegisterFollowRoutes(e *echo.Echo, requireLogin echo.MiddlewareFunc) {
	methods := []string{http.MethodGet, http.MethodPost}
	e.Match(methods, "/profile/:username/follow/", h.ProfileFollow, requireLogin)
	e.Match(methods, "/profile/:username/unfollow/", h.ProfileUnfollow, requireLogin)
}

// ProfileFollow subscribes the current user to the author. Following
// yourself or following twice changes nothing.
func (h *FollowHandler) ProfileFollow(c echo.Context) error {
	ctx := c.Request().Context()
	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return lookupError(err)
	}

	viewer := middleware.CurrentUser(c)
	if viewer.ID != author.ID {
		follow := &models.Follow{UserID: viewer.ID, AuthorID: author.ID}
		if err := h.followRepository.CreateFollow(ctx, follow); err != nil {
			return err
		}
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}

// ProfileUnfollow removes the subscription if there is one.
func (h *FollowHandler) ProfileUnfollow(c echo.Context) error {
	ctx := c.Request().Context()
	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return lookupError(err)
	}

	if err := h.followRepository.DeleteFollow(ctx, middleware.CurrentUserID(c), author.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}
