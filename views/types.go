package views

import "github.com/visurena/website/posts"

// SiteConfig holds site-wide settings shown by every template.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "ViSuReNa")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}

// Page is the data every page template receives. Static pages only use Site,
// Meta and Section.
type Page struct {
	Site    SiteConfig
	Meta    PageMeta
	Section string // nav entry to highlight: "home", "movies", "blog", ...

	Posts   []posts.View // blog listing
	Post    posts.View   // single post
	Related []posts.Post // posts sharing a tag with Post
	Tag     string       // active tag on a tag listing
	Tags    []string     // every tag, for the listing filter
}
