package visurena

import (
	"net/http"

	"github.com/labstack/echo/v4"
	atom "github.com/thomas11/atomgenerator"
	"go.uber.org/zap"

	"github.com/visurena/website/posts"
)

// renderAtom writes an Atom feed of the dated posts in ps. Posts without a
// parseable date have no valid Atom timestamp and are left out.
func (a *App) renderAtom(c echo.Context, ps []posts.Post) error {
	feed := atom.Feed{
		Title:   a.Config.Name,
		Link:    BuildURL(a.Config.URL),
		PubDate: newestPostTime(ps),
	}
	feed.AddAuthor(atom.Author{
		Name: a.Config.Author,
		Uri:  BuildURL(a.Config.URL),
	})

	for _, p := range ps {
		published, ok := postTime(p.Date)
		if !ok {
			continue
		}
		v, err := a.Renderer.Render(p)
		if err != nil {
			return err
		}
		e := &atom.Entry{
			Title:       p.Title,
			Description: p.Introduction,
			Link:        BuildURL(a.Config.URL, "blog", p.Slug),
			PubDate:     published,
			Content:     string(v.Content),
		}
		for _, t := range p.Tags {
			e.AddCategory(atom.Category{Term: t})
		}
		feed.AddEntry(e)
	}

	for _, err := range feed.Validate() {
		a.Logger.Warn("atom feed validation", zap.Error(err))
	}
	out, err := feed.GenXml()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", out)
}
