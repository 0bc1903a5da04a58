package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment submissions
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
	}
}

// RegisterCommentRoutes registers comment routes
func (h *CommentHandler) RegisterCommentRoutes(e *echo.Echo, requireLogin echo.MiddlewareFunc) {
	e.POST("/posts/:post_id/comment/", h.AddComment, requireLogin)
}

// AddComment stores a comment by the current user and returns to the post.
// An empty comment is dropped.
func (h *CommentHandler) AddComment(c echo.Context) error {
	postID, err := idParam(c, "post_id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return lookupError(err)
	}

	var form models.CommentForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	form.Text = strings.TrimSpace(form.Text)
	if err := c.Validate(&form); err == nil {
		comment := &models.Comment{
			PostID:   post.ID,
			AuthorID: middleware.CurrentUserID(c),
			Text:     form.Text,
		}
		if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
			return err
		}
	}
	return c.Redirect(http.StatusFound, postURL(post.ID))
}
