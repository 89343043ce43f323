// Package views holds the page templates and the helpers they call.
//
// Every page is layout.html plus one content file defining the "content"
// block. Pages are exposed as templ components so handlers render them the
// same way regardless of where the template came from.
package views

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var embedded embed.FS

// Page names accepted by Set.Page.
const (
	PageIndex       = "index"
	PageMovies      = "movies"
	PageMusic       = "music"
	PageGames       = "games"
	PageStory       = "story"
	PageBlog        = "blog"
	PagePost        = "post"
	PageNotFound    = "not_found"
	PageServerError = "server_error"
)

const layoutFile = "layout.html"

// Pages lists every page a Set must provide.
var Pages = []string{
	PageIndex, PageMovies, PageMusic, PageGames, PageStory,
	PageBlog, PagePost, PageNotFound, PageServerError,
}

// Set is a parsed collection of page templates. It is safe for concurrent use
// once built.
type Set struct {
	pages map[string]*template.Template
}

// builtin returns the embedded templates rooted at the template directory.
func builtin() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load parses the built-in templates overlaid by layers. A file present in a
// later layer replaces the one of the same name from earlier layers.
func Load(layers ...fs.FS) (*Set, error) {
	all := append([]fs.FS{builtin()}, layers...)

	layout, err := readLayered(all, layoutFile)
	if err != nil {
		return nil, err
	}

	s := &Set{pages: make(map[string]*template.Template, len(Pages))}
	for _, name := range Pages {
		src, err := readLayered(all, name+".html")
		if err != nil {
			return nil, err
		}
		t, err := template.New(layoutFile).Funcs(funcMap).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", layoutFile, err)
		}
		if _, err := t.New(name).Parse(src); err != nil {
			return nil, fmt.Errorf("views: parse %s.html: %w", name, err)
		}
		s.pages[name] = t
	}
	return s, nil
}

func readLayered(layers []fs.FS, name string) (string, error) {
	for i := len(layers) - 1; i >= 0; i-- {
		b, err := fs.ReadFile(layers[i], name)
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("views: read %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("views: template %s: %w", name, fs.ErrNotExist)
}

// Page returns the named page bound to data.
func (s *Set) Page(name string, data Page) templ.Component {
	t, ok := s.pages[name]
	if !ok {
		return templ.ComponentFunc(func(_ context.Context, _ io.Writer) error {
			return fmt.Errorf("views: unknown page %q", name)
		})
	}
	return templ.FromGoHTML(t, data)
}
