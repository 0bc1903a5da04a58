package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/yatube/internal/media"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	msgInvalidGroup = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgImageTooBig  = "The image is too large. The limit is 10 MB."
)

// PostHandler handles post pages: detail, create, edit and delete
type PostHandler struct {
	postRepository    repositories.PostRepository
	groupRepository   repositories.GroupRepository
	commentRepository repositories.CommentRepository
	media             media.Storage
}

// NewPostHandler creates a new PostHandler. Uploaded images go to store.
func NewPostHandler(postRepo repositories.PostRepository, groupRepo repositories.GroupRepository, commentRepo repositories.CommentRepository, store media.Storage) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		groupRepository:   groupRepo,
		commentRepository: commentRepo,
		media:             store,
	}
}

// RegisterPostRoutes registers post routes
func (h *PostHandler) RegisterPostRoutes(e *echo.Echo, requireLogin echo.MiddlewareFunc) {
	methods := []string{http.MethodGet, http.MethodPost}
	e.GET("/posts/:post_id/", h.PostDetail)
	e.Match(methods, "/create/", h.PostCreate, requireLogin)
	e.Match(methods, "/posts/:post_id/edit/", h.PostEdit, requireLogin)
	e.POST("/posts/:post_id/delete/", h.PostDelete, requireLogin)
}

// PostDetail renders a post with its comments and an empty comment form.
func (h *PostHandler) PostDetail(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comments, err := h.commentRepository.GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return err
	}
	commentsCount, err := h.commentRepository.CountComments(ctx, post.ID)
	if err != nil {
		return err
	}
	postsCount, err := h.postRepository.CountPosts(ctx, repositories.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return err
	}

	return renderPage(c, templatePostDetail, echo.Map{
		"post":           post,
		"comments":       comments,
		"comments_count": commentsCount,
		"posts_count":    postsCount,
		"form":           models.CommentForm{},
		"is_author":      middleware.CurrentUserID(c) == post.AuthorID,
	})
}

// PostCreate shows the new post form and saves it. The author lands on
// their profile afterwards.
func (h *PostHandler) PostCreate(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return h.renderForm(c, models.PostForm{}, validators.FieldErrors{}, nil)
	}

	ctx := c.Request().Context()
	form, groupID, errs, err := h.bindPostForm(c)
	if err != nil {
		return err
	}
	image, err := h.saveUpload(c, errs)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return h.renderForm(c, form, errs, nil)
	}

	author := middleware.CurrentUser(c)
	post := &models.Post{
		Text:     form.Text,
		AuthorID: author.ID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		h.removeImage(ctx, image)
		return err
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}

// PostEdit lets the author change a post. Anyone else is sent back to the
// post without a word.
func (h *PostHandler) PostEdit(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}
	if post.AuthorID != middleware.CurrentUserID(c) {
		return c.Redirect(http.StatusFound, postURL(post.ID))
	}

	if c.Request().Method != http.MethodPost {
		return h.renderForm(c, formFromPost(post), validators.FieldErrors{}, post)
	}

	ctx := c.Request().Context()
	form, groupID, errs, err := h.bindPostForm(c)
	if err != nil {
		return err
	}
	image, err := h.saveUpload(c, errs)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return h.renderForm(c, form, errs, post)
	}

	oldImage := post.Image
	switch {
	case image != "":
		post.Image = image
	case form.ClearImage == "on":
		post.Image = ""
	}
	post.Text = form.Text
	post.GroupID = groupID
	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		h.removeImage(ctx, image)
		return err
	}
	if oldImage != post.Image {
		h.removeImage(ctx, oldImage)
	}
	return c.Redirect(http.StatusFound, postURL(post.ID))
}

// PostDelete removes the post of its author together with its image and
// comments.
func (h *PostHandler) PostDelete(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}
	viewer := middleware.CurrentUser(c)
	if post.AuthorID != viewer.ID {
		return c.Redirect(http.StatusFound, postURL(post.ID))
	}

	ctx := c.Request().Context()
	if err := h.postRepository.DeletePost(ctx, post.ID); err != nil {
		return lookupError(err)
	}
	h.removeImage(ctx, post.Image)
	return c.Redirect(http.StatusFound, profileURL(viewer.Username))
}

func (h *PostHandler) loadPost(c echo.Context) (*models.Post, error) {
	id, err := idParam(c, "post_id")
	if err != nil {
		return nil, err
	}
	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return nil, lookupError(err)
	}
	return post, nil
}

// bindPostForm reads the text and group fields. Validation problems are
// returned in errs; err is reserved for failures the user cannot fix.
func (h *PostHandler) bindPostForm(c echo.Context) (form models.PostForm, groupID *uint, errs validators.FieldErrors, err error) {
	if err := c.Bind(&form); err != nil {
		return form, nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	form.Text = strings.TrimSpace(form.Text)
	form.Group = strings.TrimSpace(form.Group)

	errs = validators.Translate(c.Validate(&form))
	if errs.Has("group") || form.Group == "" {
		return form, nil, errs, nil
	}

	id, parseErr := strconv.ParseUint(form.Group, 10, 32)
	if parseErr != nil {
		errs.Add("group", msgInvalidGroup)
		return form, nil, errs, nil
	}
	group, err := h.groupRepository.GetGroupByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			errs.Add("group", msgInvalidGroup)
			return form, nil, errs, nil
		}
		return form, nil, nil, err
	}
	return form, &group.ID, errs, nil
}

// saveUpload stores the image field if one was sent and the rest of the
// form is valid. It returns the stored name, or "" when nothing was saved.
func (h *PostHandler) saveUpload(c echo.Context, errs validators.FieldErrors) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", err
	}
	if len(errs) > 0 {
		return "", nil
	}
	return h.storeImage(c.Request().Context(), fh, errs)
}

func (h *PostHandler) storeImage(ctx context.Context, fh *multipart.FileHeader, errs validators.FieldErrors) (string, error) {
	name, err := media.SaveImage(ctx, h.media, fh)
	switch {
	case errors.Is(err, media.ErrNotImage):
		errs.Add("image", msgInvalidImage)
		return "", nil
	case errors.Is(err, media.ErrTooLarge):
		errs.Add("image", msgImageTooBig)
		return "", nil
	case err != nil:
		return "", err
	}
	return name, nil
}

// removeImage deletes a stored image that nothing refers to anymore.
func (h *PostHandler) removeImage(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := h.media.Delete(ctx, name); err != nil && !errors.Is(err, media.ErrNotFound) {
		slog.WarnContext(ctx, "failed to delete image", "image", name, "error", err)
	}
}

func (h *PostHandler) renderForm(c echo.Context, form models.PostForm, errs validators.FieldErrors, post *models.Post) error {
	groups, err := h.groupRepository.GetGroups(c.Request().Context())
	if err != nil {
		return err
	}
	data := echo.Map{
		"form":    form,
		"groups":  groups,
		"errors":  errs,
		"is_edit": post != nil,
	}
	if post != nil {
		data["post"] = post
	}
	return renderPage(c, templatePostForm, data)
}

func formFromPost(post *models.Post) models.PostForm {
	form := models.PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return form
}
