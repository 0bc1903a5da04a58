package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler renders 404s with the not-found page and leaves other
// errors to Echo's default handler.
func HTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusNotFound {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(http.StatusNotFound)
		} else {
			err = c.Render(http.StatusNotFound, templateNotFound, viewData(c, nil))
		}
		if err != nil {
			slog.ErrorContext(c.Request().Context(), "render not-found page", "path", c.Request().URL.Path, "error", err)
		}
	}
}
