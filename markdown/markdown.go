// Package markdown renders post bodies to HTML with goldmark.
package markdown

import (
	"bytes"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	fences "github.com/stefanfritsch/goldmark-fences"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// DefaultCodeStyle is the chroma style used when Options.CodeStyle is empty.
const DefaultCodeStyle = "github"

// Options configures a Renderer.
type Options struct {
	CodeStyle string // chroma style name (default "github")
	TabWidth  int    // tab width inside code blocks (default 4)
}

// Renderer converts markdown to HTML. It holds no per-call state, so the same
// input always produces the same output.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer with GFM tables, strikethrough, autolinks, footnotes,
// fenced divs and chroma highlighting. Raw HTML is passed through: post
// authors are trusted.
func New(opts Options) *Renderer {
	if opts.CodeStyle == "" {
		opts.CodeStyle = DefaultCodeStyle
	}
	if opts.TabWidth == 0 {
		opts.TabWidth = 4
	}
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(opts.CodeStyle),
				highlighting.WithFormatOptions(chromahtml.TabWidth(opts.TabWidth)),
			),
			&fences.Extender{},
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
		),
	)
	return &Renderer{md: md}
}

// RenderMarkdown writes the HTML representation of md to buf.
func (r *Renderer) RenderMarkdown(buf *bytes.Buffer, md string) error {
	return r.md.Convert([]byte(md), buf)
}

// Render returns the HTML representation of md.
func (r *Renderer) Render(md string) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderMarkdown(&buf, md); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PlainText drops everything between '<' and '>' and returns the remaining
// text. It is meant for word counts and feed summaries, not sanitising.
func PlainText(html string) string {
	var buf strings.Builder
	s := html
	for len(s) > 0 {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			buf.WriteString(s)
			break
		}
		buf.WriteString(s[:lt])
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			break
		}
		buf.WriteByte(' ')
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// WordCount counts whitespace-separated words in the text content of html.
func WordCount(html string) int {
	return len(strings.Fields(PlainText(html)))
}
