package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/pagination"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Page templates.
const (
	templateIndex      = "posts/index.html"
	templateGroupList  = "posts/group_list.html"
	templateProfile    = "posts/profile.html"
	templatePostDetail = "posts/post_detail.html"
	templatePostForm   = "posts/create_post.html"
	templateFollow     = "posts/follow.html"
	templateNotFound   = "core/404.html"
	templateLogin      = "users/login.html"
	templateSignup     = "users/signup.html"
)

// viewData adds what every page needs to data.
func viewData(c echo.Context, data echo.Map) echo.Map {
	if data == nil {
		data = echo.Map{}
	}
	data["request_user"] = middleware.CurrentUser(c)
	data["path"] = c.Request().URL.Path
	if _, ok := data["errors"]; !ok {
		data["errors"] = validators.FieldErrors{}
	}
	return data
}

func renderPage(c echo.Context, name string, data echo.Map) error {
	return c.Render(http.StatusOK, name, viewData(c, data))
}

// postPage loads one page of the feed selected by filter.
func postPage(ctx context.Context, posts repositories.PostRepository, filter repositories.PostFilter, rawPage string) (*pagination.Page[models.Post], error) {
	total, err := posts.CountPosts(ctx, filter)
	if err != nil {
		return nil, err
	}
	p := pagination.New(total, pagination.PerPage, rawPage)
	items, err := posts.ListPosts(ctx, filter, p)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(p, items), nil
}

// idParam parses a numeric path parameter. Anything else cannot name a row.
func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.ErrNotFound
	}
	return uint(id), nil
}

// lookupError maps a missing row to 404 and anything else to 500.
func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.ErrNotFound
	}
	return err
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
