package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/media"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/pagination"
	"github.com/anonto42/yatube/internal/render"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/internal/router"
	"github.com/anonto42/yatube/pkg/config"
	"github.com/anonto42/yatube/web"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00,
	0x01, 0x00, 0x00, 0x00, 0x00, 0x21, 0xf9, 0x04,
	0x01, 0x0a, 0x00, 0x01, 0x00, 0x2c, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x4c, 0x01, 0x00, 0x3b,
}

// recordingRenderer remembers the last page rendered and what it was given.
type recordingRenderer struct {
	inner echo.Renderer

	mu    sync.Mutex
	name  string
	data  echo.Map
	calls int
}

func (r *recordingRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	r.mu.Lock()
	r.name = name
	r.data, _ = data.(echo.Map)
	r.calls++
	r.mu.Unlock()
	return r.inner.Render(w, name, data, c)
}

func (r *recordingRenderer) last() (string, echo.Map) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name, r.data
}

func (r *recordingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// fakeFirebase accepts the tokens it knows.
type fakeFirebase map[string]*auth.Token

func (f fakeFirebase) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if token, ok := f[idToken]; ok {
		return token, nil
	}
	return nil, errors.New("token rejected")
}

type testApp struct {
	e        *echo.Echo
	db       *gorm.DB
	renderer *recordingRenderer
	cache    *cache.PageCache
	sessions *middleware.SessionManager
	store    *media.LocalStorage
	ctx      context.Context

	users    *repositories.PostgresUserRepository
	groups   *repositories.PostgresGroupRepository
	posts    *repositories.PostgresPostRepository
	comments *repositories.PostgresCommentRepository
	follows  *repositories.PostgresFollowRepository
}

func newTestApp(t *testing.T, firebase fakeFirebase) *testApp {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := config.OpenDatabase(config.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	inner, err := render.New(web.Templates())
	require.NoError(t, err)
	store, err := media.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	app := &testApp{
		e:        echo.New(),
		db:       db,
		renderer: &recordingRenderer{inner: inner},
		cache:    cache.NewPageCache("index_page", time.Minute),
		sessions: middleware.NewSessionManager("test-secret", false),
		store:    store,
		ctx:      context.Background(),
		users:    repositories.NewPostgresUserRepository(db),
		groups:   repositories.NewPostgresGroupRepository(db),
		posts:    repositories.NewPostgresPostRepository(db),
		comments: repositories.NewPostgresCommentRepository(db),
		follows:  repositories.NewPostgresFollowRepository(db),
	}

	deps := router.Dependencies{
		DB:         &config.DB{SQL: db},
		Media:      store,
		IndexCache: app.cache,
		Sessions:   app.sessions,
		Renderer:   app.renderer,
	}
	if firebase != nil {
		deps.Firebase = firebase
	}
	config.SetupMiddleware(app.e, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router.SetupRoutes(app.e, deps)
	return app
}

func (a *testApp) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username}
	require.NoError(t, a.users.CreateUser(a.ctx, u))
	return u
}

func (a *testApp) group(t *testing.T, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug, Description: "About " + slug}
	require.NoError(t, a.groups.CreateGroup(a.ctx, g))
	return g
}

func (a *testApp) post(t *testing.T, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, a.posts.CreatePost(a.ctx, p))
	return p
}

func (a *testApp) countPosts(t *testing.T) int64 {
	t.Helper()
	n, err := a.posts.CountPosts(a.ctx, repositories.PostFilter{})
	require.NoError(t, err)
	return n
}

func (a *testApp) serve(req *http.Request, as *models.User) *httptest.ResponseRecorder {
	if as != nil {
		token, err := a.sessions.Issue(as)
		if err != nil {
			panic(err)
		}
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(target string, as *models.User) *httptest.ResponseRecorder {
	return a.serve(httptest.NewRequest(http.MethodGet, target, nil), as)
}

func (a *testApp) postForm(target string, values url.Values, as *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return a.serve(req, as)
}

// upload is a file sent with postMultipart.
type upload struct {
	field, filename string
	content         []byte
}

func (a *testApp) postMultipart(t *testing.T, target string, values map[string]string, file *upload, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile(file.field, file.filename)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return a.serve(req, as)
}

func pageObj(t *testing.T, data echo.Map) *pagination.Page[models.Post] {
	t.Helper()
	page, ok := data["page_obj"].(*pagination.Page[models.Post])
	require.True(t, ok, "page_obj missing from context")
	return page
}

func postPath(p *models.Post) string {
	return fmt.Sprintf("/posts/%d/", p.ID)
}
