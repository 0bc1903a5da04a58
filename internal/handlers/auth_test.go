package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func sessionCookie(rec interface{ Result() *http.Response }) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSignupCreatesUserAndSignsIn(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.postForm("/auth/signup/", url.Values{
		"username":  {"leo"},
		"email":     {"leo@example.com"},
		"password1": {"correct-horse"},
		"password2": {"correct-horse"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echoLocation))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	user, err := app.users.GetUserByUsername(app.ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, "leo@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct-horse")))
}

func TestSignupValidation(t *testing.T) {
	app := newTestApp(t, nil)
	app.user(t, "taken")

	tests := []struct {
		name   string
		values url.Values
		field  string
	}{
		{"username taken", url.Values{"username": {"taken"}, "password1": {"long-enough"}, "password2": {"long-enough"}}, "username"},
		{"bad username", url.Values{"username": {"no spaces"}, "password1": {"long-enough"}, "password2": {"long-enough"}}, "username"},
		{"short password", url.Values{"username": {"new"}, "password1": {"short"}, "password2": {"short"}}, "password1"},
		{"mismatch", url.Values{"username": {"new"}, "password1": {"long-enough"}, "password2": {"different!"}}, "password2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.postForm("/auth/signup/", tt.values, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			name, data := app.renderer.last()
			assert.Equal(t, "users/signup.html", name)
			errs := data["errors"].(validators.FieldErrors)
			assert.True(t, errs.Has(tt.field), errs.Error())
			assert.Nil(t, sessionCookie(rec))
		})
	}
}

func signUp(t *testing.T, app *testApp, username, password string) *models.User {
	t.Helper()
	rec := app.postForm("/auth/signup/", url.Values{
		"username":  {username},
		"password1": {password},
		"password2": {password},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	user, err := app.users.GetUserByUsername(app.ctx, username)
	require.NoError(t, err)
	return user
}

func TestLoginRedirectsToNext(t *testing.T) {
	app := newTestApp(t, nil)
	signUp(t, app, "leo", "correct-horse")

	rec := app.get("/auth/login/?next=/create/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	name, data := app.renderer.last()
	assert.Equal(t, "users/login.html", name)
	assert.Equal(t, "/create/", data["next"])

	rec = app.postForm("/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"correct-horse"},
		"next":     {"/create/"},
	}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/create/", rec.Header().Get(echoLocation))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(cookie)
	rec = app.serve(req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t, nil)
	signUp(t, app, "leo", "correct-horse")

	for _, values := range []url.Values{
		{"username": {"leo"}, "password": {"wrong-horse"}},
		{"username": {"nobody"}, "password": {"correct-horse"}},
	} {
		rec := app.postForm("/auth/login/", values, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		_, data := app.renderer.last()
		errs := data["errors"].(validators.FieldErrors)
		assert.True(t, errs.Has(validators.NonFieldErrors))
		assert.Nil(t, sessionCookie(rec))
	}
}

func TestLoginIgnoresForeignNext(t *testing.T) {
	app := newTestApp(t, nil)
	signUp(t, app, "leo", "correct-horse")

	for _, next := range []string{"https://evil.example/", "//evil.example/", ""} {
		rec := app.postForm("/auth/login/", url.Values{
			"username": {"leo"},
			"password": {"correct-horse"},
			"next":     {next},
		}, nil)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get(echoLocation), next)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	app := newTestApp(t, nil)
	user := signUp(t, app, "leo", "correct-horse")

	rec := app.postForm("/auth/logout/", nil, user)
	require.Equal(t, http.StatusFound, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestFirebaseLogin(t *testing.T) {
	tokens := fakeFirebase{
		"new-token": {UID: "uid-new", Claims: map[string]interface{}{"email": "jane.doe@example.com"}},
		"old-token": {UID: "uid-old", Claims: map[string]interface{}{"email": "leo@example.com"}},
	}
	app := newTestApp(t, tokens)
	existing := &models.User{Username: "leo", Email: "leo@example.com"}
	require.NoError(t, app.users.CreateUser(app.ctx, existing))
	app.user(t, "jane.doe")

	rec := app.postForm("/auth/firebase/", url.Values{"id_token": {"new-token"}, "next": {"/follow/"}}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/follow/", rec.Header().Get(echoLocation))
	require.NotNil(t, sessionCookie(rec))

	created, err := app.users.GetUserByFirebaseUID(app.ctx, "uid-new")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe1", created.Username)

	rec = app.postForm("/auth/firebase/", url.Values{"id_token": {"new-token"}}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	again, err := app.users.GetUserByFirebaseUID(app.ctx, "uid-new")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	rec = app.postForm("/auth/firebase/", url.Values{"id_token": {"old-token"}}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	linked, err := app.users.GetUserByFirebaseUID(app.ctx, "uid-old")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)

	rec = app.postForm("/auth/firebase/", url.Values{"id_token": {"forged"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFirebaseLoginDisabledWithoutVerifier(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.postForm("/auth/firebase/", url.Values{"id_token": {"anything"}}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
