package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/things/:id/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/missing/", func(c echo.Context) error {
		return echo.ErrNotFound
	})

	ok := httpRequests.WithLabelValues(http.MethodGet, "/things/:id/", "200")
	missing := httpRequests.WithLabelValues(http.MethodGet, "/missing/", "404")
	beforeOK, beforeMissing := testutil.ToFloat64(ok), testutil.ToFloat64(missing)

	for _, path := range []string{"/things/1/", "/things/2/", "/missing/"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, beforeOK+2, testutil.ToFloat64(ok))
	assert.Equal(t, beforeMissing+1, testutil.ToFloat64(missing))
}

func TestCacheCounters(t *testing.T) {
	hits := cacheLookups.WithLabelValues("test", "hit")
	misses := cacheLookups.WithLabelValues("test", "miss")

	CacheHit("test")
	CacheMiss("test")
	CacheMiss("test")

	assert.Equal(t, float64(1), testutil.ToFloat64(hits))
	assert.Equal(t, float64(2), testutil.ToFloat64(misses))
}

func TestHandlerServesMetrics(t *testing.T) {
	CacheHit("exposed")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "yatube_page_cache_lookups_total")
}
