// Package web bundles the HTML templates into the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates
var content embed.FS

// Templates is the template tree rooted at templates/.
func Templates() fs.FS {
	sub, err := fs.Sub(content, "templates")
	if err != nil {
		// The directory is embedded above; Sub only fails on a bad path.
		panic(err)
	}
	return sub
}
