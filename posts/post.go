// Package posts loads blog posts from a directory of text files, orders them
// for listings and renders their bodies to HTML.
//
// The directory is the only source of truth. Nothing here caches: every call
// re-reads the files, so edits made while the site runs show up on the next
// request.
package posts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Format is the markup a post body is written in.
type Format int

const (
	Markdown Format = iota
	HTML
)

func (f Format) String() string {
	if f == HTML {
		return "html"
	}
	return "markdown"
}

// Post is one blog entry as read from its source file.
type Post struct {
	Slug         string
	Title        string
	Date         string
	Introduction string
	Image        string
	Tags         []string
	Body         string
	Format       Format
}

// Link returns the site-relative URL of the post.
func (p Post) Link() string {
	return "/blog/" + p.Slug + "/"
}

// HasTag reports whether the post carries tag, ignoring case and padding.
func (p Post) HasTag(tag string) bool {
	want := normalizeTag(tag)
	for _, t := range p.Tags {
		if normalizeTag(t) == want {
			return true
		}
	}
	return false
}

// TitleFromSlug derives a display title from a slug: underscores become
// spaces and the first letter of every word is upper-cased, so
// "my_first_post" becomes "My First Post".
func TitleFromSlug(slug string) string {
	s := strings.ReplaceAll(slug, "_", " ")
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if isWord && !inWord {
			r = unicode.ToUpper(r)
		}
		inWord = isWord
		b.WriteRune(r)
	}
	return b.String()
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// splitTags splits a comma separated tag list, dropping empty entries.
func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// validSlug reports whether slug can name a file directly inside the store.
func validSlug(slug string) bool {
	if slug == "" || strings.HasPrefix(slug, ".") {
		return false
	}
	if !utf8.ValidString(slug) {
		return false
	}
	return !strings.ContainsAny(slug, "/\\\x00")
}
