package render

import (
	"bytes"
	"testing"
	"testing/fstest"
	"time"

	"github.com/anonto42/yatube/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"base.html":            {Data: []byte(`<title>{{template "title" .}}</title>{{template "nav" .}}{{template "content" .}}`)},
		"includes/nav.html":    {Data: []byte(`{{define "nav"}}[nav]{{end}}`)},
		"pages/hello.html":     {Data: []byte(`{{define "title"}}Hello{{end}}{{define "content"}}<p>{{.name}}</p>{{end}}`)},
		"pages/multiline.html": {Data: []byte(`{{define "title"}}Text{{end}}{{define "content"}}{{linebreaksbr .text}}{{end}}`)},
	}
}

func TestRendererRendersThroughLayout(t *testing.T) {
	r, err := New(testFS())
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "pages/hello.html", map[string]interface{}{"name": "<leo>"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<title>Hello</title>[nav]<p>&lt;leo&gt;</p>", buf.String())
}

func TestRendererSkipsLayoutAndIncludes(t *testing.T) {
	r, err := New(testFS())
	require.NoError(t, err)

	assert.True(t, r.Has("pages/hello.html"))
	assert.False(t, r.Has("base.html"))
	assert.False(t, r.Has("includes/nav.html"))
}

func TestRendererUnknownPage(t *testing.T) {
	r, err := New(testFS())
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "pages/missing.html", nil, nil)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestRendererFailedExecutionWritesNothing(t *testing.T) {
	fsys := testFS()
	fsys["pages/broken.html"] = &fstest.MapFile{Data: []byte(`{{define "title"}}x{{end}}{{define "content"}}before{{template "missing" .}}{{end}}`)}
	r, err := New(fsys)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "pages/broken.html", nil, nil)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestLoadKeepsPreviousSetOnError(t *testing.T) {
	fsys := testFS()
	r, err := New(fsys)
	require.NoError(t, err)

	fsys["pages/bad.html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}{{if}}{{end}}`)}
	assert.Error(t, r.Load())
	assert.True(t, r.Has("pages/hello.html"))
	assert.False(t, r.Has("pages/bad.html"))
}

func TestLinebreaksbr(t *testing.T) {
	r, err := New(testFS())
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "pages/multiline.html", map[string]interface{}{"text": "a\r\n<b>"}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "a<br>&lt;b&gt;")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "/media/posts/a.gif", mediaURL("posts/a.gif"))
	assert.Equal(t, "/media/posts/a.gif", mediaURL("/posts/a.gif"))
	assert.Equal(t, "3 March 2024", formatDate(time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)))
}

func TestBundledTemplatesParse(t *testing.T) {
	r, err := New(web.Templates())
	require.NoError(t, err)

	for _, name := range []string{
		"posts/index.html",
		"posts/group_list.html",
		"posts/profile.html",
		"posts/post_detail.html",
		"posts/create_post.html",
		"posts/follow.html",
		"core/404.html",
		"users/login.html",
		"users/signup.html",
	} {
		assert.True(t, r.Has(name), name)
	}

	var buf bytes.Buffer
	err = r.Render(&buf, "core/404.html", map[string]interface{}{"path": "/nowhere/"}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Page /nowhere/ was not found.")
}
