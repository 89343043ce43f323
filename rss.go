package visurena

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/visurena/website/posts"
)

// feedEpoch stands in for "now" in feeds whose posts carry no usable date, so
// repeated exports produce identical files.
var feedEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type rssXML struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	AtomXMLNS string     `xml:"xmlns:atom,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	AtomLink      rssLink   `xml:"atom:link"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate,omitempty"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category"`
}

// postTime parses a post's declared date. Only ISO dates are understood.
func postTime(date string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// newestPostTime is the latest parseable date among ps, or feedEpoch.
func newestPostTime(ps []posts.Post) time.Time {
	newest := feedEpoch
	for _, p := range ps {
		if t, ok := postTime(p.Date); ok && t.After(newest) {
			newest = t
		}
	}
	return newest
}

func (a *App) renderRSS(c echo.Context, ps []posts.Post) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(ps))
	for _, p := range ps {
		pubDate := ""
		if t, ok := postTime(p.Date); ok {
			pubDate = t.Format(time.RFC1123Z)
		}
		postURL := BuildURL(base, "blog", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Introduction,
			PubDate:     pubDate,
			GUID:        postURL,
			Categories:  p.Tags,
		})
	}
	feed := rssXML{
		Version:   "2.0",
		AtomXMLNS: "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        BuildURL(base),
			Description: a.Config.Description,
			AtomLink: rssLink{
				Href: AbsoluteURL(base, feedPath),
				Rel:  "self",
				Type: "application/rss+xml",
			},
			LastBuildDate: newestPostTime(ps).Format(time.RFC1123Z),
			Items:         items,
		},
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", append([]byte(xml.Header), out...))
}
