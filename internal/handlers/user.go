package handlers

import (
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler serves user profiles.
type UserHandler struct {
	userRepository   repositories.UserRepository
	postRepository   repositories.PostRepository
	followRepository repositories.FollowRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, postRepo repositories.PostRepository, followRepo repositories.FollowRepository) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		postRepository:   postRepo,
		followRepository: followRepo,
	}
}

// RegisterProfileRoutes registers profile routes
func (h *UserHandler) RegisterProfileRoutes(e *echo.Echo) {
	e.GET("/profile/:username/", h.Profile)
}

// Profile renders a user's posts along with their follow counters and
// whether the viewer follows them.
func (h *UserHandler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	author, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return lookupError(err)
	}

	page, err := postPage(ctx, h.postRepository, repositories.PostFilter{AuthorID: author.ID}, c.QueryParam("page"))
	if err != nil {
		return err
	}

	viewer := middleware.CurrentUser(c)
	following := false
	if viewer != nil && viewer.ID != author.ID {
		following, err = h.followRepository.IsFollowing(ctx, viewer.ID, author.ID)
		if err != nil {
			return err
		}
	}
	followers, err := h.followRepository.GetFollowersCount(ctx, author.ID)
	if err != nil {
		return err
	}
	followings, err := h.followRepository.GetFollowingCount(ctx, author.ID)
	if err != nil {
		return err
	}

	return renderPage(c, templateProfile, echo.Map{
		"author":          author,
		"page_obj":        page,
		"posts_count":     page.Total,
		"following":       following,
		"can_follow":      viewer != nil && viewer.ID != author.ID,
		"followers_count": followers,
		"following_count": followings,
	})
}
