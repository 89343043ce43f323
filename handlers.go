package visurena

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/visurena/website/posts"
	"github.com/visurena/website/views"
)

func (a *App) page(section string, meta views.PageMeta) views.Page {
	if meta.OGType == "" {
		meta.OGType = "website"
	}
	meta.Image = AbsoluteURL(a.Config.URL, meta.Image)
	return views.Page{
		Site:    a.Config.site(),
		Meta:    meta,
		Section: section,
	}
}

func (a *App) handleStatic(sp staticPage) echo.HandlerFunc {
	return func(c echo.Context) error {
		desc := sp.Description
		if desc == "" {
			desc = a.Config.Description
		}
		data := a.page(sp.Section, views.PageMeta{
			Title:       sp.Title,
			Description: desc,
			URL:         AbsoluteURL(a.Config.URL, sp.Path),
		})
		return Render(c, a.Views.Page(sp.Page, data))
	}
}

func (a *App) handleBlog(c echo.Context) error {
	ordered, err := a.Index.OrderedPosts()
	if err != nil {
		return err
	}
	list, err := a.Renderer.RenderAll(ordered)
	if err != nil {
		return err
	}
	data := a.page("blog", views.PageMeta{
		Title:       "Blog",
		Description: "Thoughts, tutorials, and insights",
		URL:         BuildURL(a.Config.URL, "blog"),
	})
	data.Posts = list
	data.Tags = posts.TagsOf(ordered)
	return Render(c, a.Views.Page(views.PageBlog, data))
}

func (a *App) handleTag(c echo.Context) error {
	tag := strings.ToLower(strings.TrimSpace(pathParam(c, "tag")))
	if tag == "" {
		return a.notFound(c)
	}

	tagged, err := a.Index.PostsWithTag(tag)
	if err != nil {
		return err
	}
	if len(tagged) == 0 {
		return a.notFound(c)
	}
	list, err := a.Renderer.RenderAll(tagged)
	if err != nil {
		return err
	}
	tags, err := a.Index.Tags()
	if err != nil {
		return err
	}
	data := a.page("blog", views.PageMeta{
		Title:       "Posts tagged " + tag,
		Description: "Blog posts tagged " + tag,
		URL:         BuildURL(a.Config.URL, "blog", "tag", tag),
	})
	data.Posts = list
	data.Tag = tag
	data.Tags = tags
	return Render(c, a.Views.Page(views.PageBlog, data))
}

func (a *App) handlePost(c echo.Context) error {
	slug := pathParam(c, "slug")
	p, err := a.Store.Load(slug)
	if err != nil {
		if errors.Is(err, posts.ErrNotFound) {
			return a.notFound(c)
		}
		return err
	}
	v, err := a.Renderer.Render(p)
	if err != nil {
		return err
	}

	data := a.page("blog", views.PageMeta{
		Title:       v.Title,
		Description: v.Introduction,
		URL:         BuildURL(a.Config.URL, "blog", v.Slug),
		OGType:      "article",
		Image:       v.Image,
	})
	data.Post = v

	// A sibling that fails to load only costs the related list.
	if all, err := a.Index.OrderedPosts(); err != nil {
		a.Logger.Warn("related posts unavailable", zap.String("slug", slug), zap.Error(err))
	} else {
		data.Related = FilterRelatedPosts(p, all)
	}
	return Render(c, a.Views.Page(views.PagePost, data))
}

// pathParam returns the decoded route parameter. Echo matches on URL.Path,
// which is already decoded, unless the request carried a RawPath.
func pathParam(c echo.Context, name string) string {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (a *App) handleSitemap(c echo.Context) error {
	ordered, err := a.Index.OrderedPosts()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, ordered)
}

func (a *App) handleFeed(c echo.Context) error {
	ordered, err := a.Index.OrderedPosts()
	if err != nil {
		return err
	}
	return a.renderRSS(c, ordered)
}

func (a *App) handleAtom(c echo.Context) error {
	ordered, err := a.Index.OrderedPosts()
	if err != nil {
		return err
	}
	return a.renderAtom(c, ordered)
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: " + AbsoluteURL(a.Config.URL, sitemapPath) + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) notFound(c echo.Context) error {
	data := a.page("", views.PageMeta{Title: "Not Found"})
	return RenderStatus(c, http.StatusNotFound, a.Views.Page(views.PageNotFound, data))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, posts.ErrNotFound) {
		_ = a.notFound(c)
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = a.notFound(c)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err),
		)
		data := a.page("", views.PageMeta{Title: "Server Error"})
		if rerr := RenderStatus(c, code, a.Views.Page(views.PageServerError, data)); rerr != nil {
			_ = c.String(code, http.StatusText(code))
		}
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
