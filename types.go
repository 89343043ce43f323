package visurena

import "github.com/visurena/website/views"

// staticPage is a route rendered from a template with no post data.
type staticPage struct {
	Path        string
	Page        string
	Section     string
	Title       string
	Description string
}

var staticPages = []staticPage{
	{Path: "/", Page: views.PageIndex, Section: "home"},
	{Path: "/movies/", Page: views.PageMovies, Section: "movies", Title: "Movies", Description: "Short films and videos."},
	{Path: "/music/", Page: views.PageMusic, Section: "music", Title: "Music", Description: "Musical creations and soundscapes."},
	{Path: "/games/", Page: views.PageGames, Section: "games", Title: "Games", Description: "Small games made for fun."},
	{Path: "/story/", Page: views.PageStory, Section: "story", Title: "Story", Description: "Stories and longer writing."},
}

// Routes of the generated files.
const (
	blogPath    = "/blog/"
	feedPath    = "/feed.xml"
	atomPath    = "/atom.xml"
	sitemapPath = "/sitemap.xml"
	robotsPath  = "/robots.txt"
	thumbPrefix = "/thumbs/"
)
