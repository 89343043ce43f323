package posts

import (
	"fmt"
	"html/template"
	"strconv"

	"github.com/visurena/website/markdown"
)

// wordsPerMinute is the reading speed behind View.ReadingTime.
const wordsPerMinute = 200

// View is a post ready for a template: metadata as written plus the rendered
// body.
type View struct {
	Slug         string
	Title        string
	Date         string
	Introduction string
	Image        string
	Tags         []string
	Content      template.HTML
	ReadingTime  string
}

// Link returns the site-relative URL of the post.
func (v View) Link() string {
	return "/blog/" + v.Slug + "/"
}

// BodyRenderer turns markdown into HTML.
type BodyRenderer interface {
	Render(md string) (string, error)
}

// Renderer assembles Views.
type Renderer struct {
	md BodyRenderer
}

// NewRenderer returns a Renderer using md for markdown bodies. A nil md uses
// the markdown package defaults.
func NewRenderer(md BodyRenderer) *Renderer {
	if md == nil {
		md = markdown.New(markdown.Options{})
	}
	return &Renderer{md: md}
}

// Render converts the body of p to HTML. Metadata is copied unchanged and
// HTML bodies are passed through as written.
func (r *Renderer) Render(p Post) (View, error) {
	content := p.Body
	if p.Format == Markdown {
		html, err := r.md.Render(p.Body)
		if err != nil {
			return View{}, fmt.Errorf("posts: render %s: %w", p.Slug, err)
		}
		content = html
	}
	return View{
		Slug:         p.Slug,
		Title:        p.Title,
		Date:         p.Date,
		Introduction: p.Introduction,
		Image:        p.Image,
		Tags:         p.Tags,
		Content:      template.HTML(content),
		ReadingTime:  ReadingTime(content),
	}, nil
}

// RenderAll renders ps in order.
func (r *Renderer) RenderAll(ps []Post) ([]View, error) {
	views := make([]View, 0, len(ps))
	for _, p := range ps {
		v, err := r.Render(p)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// ReadingTime estimates how long the text content of html takes to read, as
// "N min read". It never reports less than one minute.
func ReadingTime(html string) string {
	words := markdown.WordCount(html)
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return strconv.Itoa(minutes) + " min read"
}
