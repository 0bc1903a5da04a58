package handlers_test

import (
	"net/http"
	"testing"

	"github.com/anonto42/yatube/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowAndUnfollow(t *testing.T) {
	app := newTestApp(t, nil)
	author := app.user(t, "author")
	follower := app.user(t, "follower")

	rec := app.postForm("/profile/author/follow/", nil, follower)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/author/", rec.Header().Get(echoLocation))

	following, err := app.follows.IsFollowing(app.ctx, follower.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// A second follow is a no-op.
	rec = app.get("/profile/author/follow/", follower)
	require.Equal(t, http.StatusFound, rec.Code)
	var count int64
	require.NoError(t, app.db.Model(&models.Follow{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	rec = app.get("/profile/author/unfollow/", follower)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/author/", rec.Header().Get(echoLocation))
	following, err = app.follows.IsFollowing(app.ctx, follower.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, following)

	rec = app.get("/profile/author/unfollow/", follower)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestFollowingYourselfIsIgnored(t *testing.T) {
	app := newTestApp(t, nil)
	author := app.user(t, "author")

	rec := app.get("/profile/author/follow/", author)
	require.Equal(t, http.StatusFound, rec.Code)

	var count int64
	require.NoError(t, app.db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProfileContext(t *testing.T) {
	app := newTestApp(t, nil)
	author := app.user(t, "author")
	follower := app.user(t, "follower")
	app.post(t, author, nil, "hello")
	require.NoError(t, app.follows.CreateFollow(app.ctx, &models.Follow{UserID: follower.ID, AuthorID: author.ID}))

	rec := app.get("/profile/author/", follower)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data := app.renderer.last()
	got, ok := data["author"].(*models.User)
	require.True(t, ok)
	assert.Equal(t, author.ID, got.ID)
	assert.EqualValues(t, 1, data["posts_count"])
	assert.Equal(t, true, data["following"])
	assert.Equal(t, true, data["can_follow"])
	assert.EqualValues(t, 1, data["followers_count"])
	assert.EqualValues(t, 0, data["following_count"])
	assert.Contains(t, rec.Body.String(), `action="/profile/author/unfollow/"`)

	rec = app.get("/profile/author/", author)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data = app.renderer.last()
	assert.Equal(t, false, data["following"])
	assert.Equal(t, false, data["can_follow"])

	rec = app.get("/profile/author/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data = app.renderer.last()
	assert.Equal(t, false, data["following"])
	assert.NotContains(t, rec.Body.String(), "/profile/author/follow/")
}
