package visurena

import (
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"
	"go.uber.org/zap"

	"github.com/visurena/website/posts"
)

// Freeze writes the whole site as static files under Config.OutDir. The
// directory is deleted first, so files of removed posts never linger. Every
// route must answer 200; the first one that does not aborts the export.
func (a *App) Freeze() error {
	out := a.Config.OutDir
	if err := a.checkOutDir(out); err != nil {
		return err
	}

	routes, err := a.FreezeRoutes()
	if err != nil {
		return err
	}

	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("visurena: clear %s: %w", out, err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("visurena: create %s: %w", out, err)
	}

	for _, route := range routes {
		body, err := a.fetch(route)
		if err != nil {
			return err
		}
		dst, err := outputPath(out, route)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("visurena: freeze %s: %w", route, err)
		}
		if err := os.WriteFile(dst, body, 0o644); err != nil {
			return fmt.Errorf("visurena: freeze %s: %w", route, err)
		}
	}

	if err := a.copyAssets(filepath.Join(out, "public")); err != nil {
		return err
	}
	a.Logger.Info("site frozen", zap.String("dir", out), zap.Int("routes", len(routes)))
	return nil
}

// checkOutDir refuses output directories whose deletion would destroy the
// site's own sources.
func (a *App) checkOutDir(out string) error {
	if strings.TrimSpace(out) == "" {
		return fmt.Errorf("visurena: output directory is not set")
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("visurena: output directory: %w", err)
	}
	if abs == filepath.Dir(abs) {
		return fmt.Errorf("visurena: refusing to use %s as output directory", out)
	}
	if wd, err := os.Getwd(); err == nil && abs == wd {
		return fmt.Errorf("visurena: refusing to use the working directory as output directory")
	}
	for _, src := range []string{a.Store.Dir(), a.Config.StaticDir, a.Config.TemplateDir} {
		if src == "" {
			continue
		}
		srcAbs, err := filepath.Abs(src)
		if err != nil {
			continue
		}
		if srcAbs == abs || strings.HasPrefix(srcAbs, abs+string(filepath.Separator)) {
			return fmt.Errorf("visurena: output directory %s contains source directory %s", out, src)
		}
	}
	return nil
}

// FreezeRoutes lists every route Freeze writes, in a fixed order: static
// pages, the blog index, posts, tag listings, feeds and post thumbnails.
func (a *App) FreezeRoutes() ([]string, error) {
	var routes []string
	for _, sp := range staticPages {
		routes = append(routes, sp.Path)
	}
	routes = append(routes, blogPath)

	slugs, err := a.Store.ListSlugs()
	if err != nil {
		return nil, fmt.Errorf("visurena: list posts: %w", err)
	}
	for _, slug := range slugs {
		routes = append(routes, blogPath+url.PathEscape(slug)+"/")
	}

	ordered, err := a.Index.OrderedPosts()
	if err != nil {
		return nil, err
	}
	for _, tag := range posts.TagsOf(ordered) {
		if !safeSegment(tag) {
			a.Logger.Warn("tag cannot be exported", zap.String("tag", tag))
			continue
		}
		routes = append(routes, blogPath+"tag/"+url.PathEscape(tag)+"/")
	}

	routes = append(routes, feedPath, atomPath, sitemapPath, robotsPath)

	images := make([]string, 0, len(ordered))
	for _, p := range ordered {
		images = append(images, p.Image)
	}
	routes = append(routes, a.thumbRoutes(images)...)
	return routes, nil
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// fetch runs route through the router in-process.
func (a *App) fetch(route string) ([]byte, error) {
	req := httptest.NewRequest(http.MethodGet, route, nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return nil, fmt.Errorf("visurena: freeze %s: status %d", route, rec.Code)
	}
	return rec.Body.Bytes(), nil
}

// outputPath maps a route to its file: slash routes become index.html files.
func outputPath(out, route string) (string, error) {
	p, err := url.PathUnescape(route)
	if err != nil {
		return "", fmt.Errorf("visurena: freeze %s: %w", route, err)
	}
	clean := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") {
		clean = path.Join(clean, "index.html")
	}
	dst := filepath.Join(out, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if rel, err := filepath.Rel(out, dst); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("visurena: freeze %s: path escapes output directory", route)
	}
	return dst, nil
}

// copyAssets writes the embedded assets to dst, then copies the static dir
// over them.
func (a *App) copyAssets(dst string) error {
	assets := embeddedPublic()
	err := fs.WalkDir(assets, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(name))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(assets, name)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		return fmt.Errorf("visurena: write embedded assets: %w", err)
	}

	info, err := os.Stat(a.Config.StaticDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("visurena: static dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("visurena: static dir %s is not a directory", a.Config.StaticDir)
	}
	if err := copy.Copy(a.Config.StaticDir, dst); err != nil {
		return fmt.Errorf("visurena: copy static assets: %w", err)
	}
	return nil
}
