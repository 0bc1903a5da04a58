package handlers

import (
	"bytes"
	"net/http"

	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the paginated post feeds: everyone's, a group's, and
// the authors the viewer follows.
type FeedHandler struct {
	postRepository  repositories.PostRepository
	groupRepository repositories.GroupRepository
	indexCache      *cache.PageCache
}

// NewFeedHandler creates a new FeedHandler. The index page is served from
// indexCache.
func NewFeedHandler(postRepo repositories.PostRepository, groupRepo repositories.GroupRepository, indexCache *cache.PageCache) *FeedHandler {
	return &FeedHandler{
		postRepository:  postRepo,
		groupRepository: groupRepo,
		indexCache:      indexCache,
	}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(e *echo.Echo, requireLogin echo.MiddlewareFunc) {
	e.GET("/", h.Index)
	e.GET("/group/:slug/", h.GroupPosts)
	e.GET("/follow/", h.FollowIndex, requireLogin)
}

// Index renders every post, newest first. A rendered page is reused for
// the cache TTL even if posts change meanwhile.
func (h *FeedHandler) Index(c echo.Context) error {
	key := h.indexCache.Key(middleware.CurrentUserID(c), c.Request().RequestURI)
	if body, ok := h.indexCache.Get(key); ok {
		return c.HTMLBlob(http.StatusOK, body)
	}

	page, err := postPage(c.Request().Context(), h.postRepository, repositories.PostFilter{}, c.QueryParam("page"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	data := viewData(c, echo.Map{"page_obj": page})
	if err := c.Echo().Renderer.Render(&buf, templateIndex, data, c); err != nil {
		return err
	}
	body := buf.Bytes()
	h.indexCache.Set(key, body)
	return c.HTMLBlob(http.StatusOK, body)
}

// GroupPosts renders the posts of one group.
func (h *FeedHandler) GroupPosts(c echo.Context) error {
	ctx := c.Request().Context()
	group, err := h.groupRepository.GetGroupBySlug(ctx, c.Param("slug"))
	if err != nil {
		return lookupError(err)
	}

	page, err := postPage(ctx, h.postRepository, repositories.PostFilter{GroupID: group.ID}, c.QueryParam("page"))
	if err != nil {
		return err
	}
	return renderPage(c, templateGroupList, echo.Map{
		"group":    group,
		"page_obj": page,
	})
}

// FollowIndex renders posts by the authors the current user follows.
func (h *FeedHandler) FollowIndex(c echo.Context) error {
	filter := repositories.PostFilter{FollowerID: middleware.CurrentUserID(c)}
	page, err := postPage(c.Request().Context(), h.postRepository, filter, c.QueryParam("page"))
	if err != nil {
		return err
	}
	return renderPage(c, templateFollow, echo.Map{"page_obj": page})
}
