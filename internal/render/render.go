// Package render executes the HTML page templates for Echo.
//
// Every page is parsed together with base.html and the partials under
// includes/, and rendered through base.html. Pages define the "title" and
// "content" blocks.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	layoutName      = "base.html"
	includesPattern = "includes/*.html"
)

// Renderer implements echo.Renderer. It is safe for concurrent use and can
// be reloaded while serving.
type Renderer struct {
	fsys fs.FS

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New parses every page found in fsys.
func New(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{fsys: fsys}
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reparses the template tree. On error the previous set is kept.
func (r *Renderer) Load() error {
	pages := make(map[string]*template.Template)
	err := fs.WalkDir(r.fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isPage(name) {
			return nil
		}
		tmpl, err := template.New(path.Base(name)).
			Funcs(Funcs()).
			ParseFS(r.fsys, layoutName, includesPattern, name)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
		return nil
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()
	return nil
}

// Has reports whether name is a known page.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pages[name]
	return ok
}

// Render writes page name. Output is buffered so a failing template never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	r.mu.RLock()
	tmpl, ok := r.pages[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func isPage(name string) bool {
	return strings.HasSuffix(name, ".html") &&
		name != layoutName &&
		!strings.HasPrefix(name, "includes/")
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate":   formatDate,
		"linebreaksbr": linebreaksbr,
		"mediaURL":     mediaURL,
	}
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

// linebreaksbr escapes s and turns newlines into <br>.
func linebreaksbr(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func mediaURL(name string) string {
	return "/media/" + strings.TrimPrefix(name, "/")
}
