package visurena

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/visurena/website/posts"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists every HTML page of the site: static pages, the blog
// index, each post and each tag listing.
func (a *App) renderSitemap(c echo.Context, ps []posts.Post) error {
	base := a.Config.URL
	var urls []sitemapURL
	for _, sp := range staticPages {
		urls = append(urls, sitemapURL{Loc: AbsoluteURL(base, sp.Path)})
	}
	urls = append(urls, sitemapURL{Loc: BuildURL(base, "blog")})
	for _, p := range ps {
		u := sitemapURL{Loc: BuildURL(base, "blog", p.Slug)}
		if t, ok := postTime(p.Date); ok {
			u.LastMod = t.Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	for _, tag := range posts.TagsOf(ps) {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "blog", "tag", tag)})
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	out, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}
