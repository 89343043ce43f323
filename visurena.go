// Package visurena serves a small personal website: a few static pages and a
// blog whose posts are markdown or HTML files in a directory.
//
// Every request re-reads the posts directory, so the source files are always
// the authority. Freeze drives the same handlers to write a static copy of
// the site.
package visurena

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/visurena/website/analytics"
	"github.com/visurena/website/markdown"
	"github.com/visurena/website/posts"
	"github.com/visurena/website/views"
)

// App is the site. Everything it holds is built once by New and never
// mutated by requests.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *posts.Store
	Index    *posts.Index
	Renderer *posts.Renderer
	Views    *views.Set
	Logger   *zap.Logger

	analyticsStore *analytics.Store
	tracker        *analytics.Tracker
	stopCleanup    func()
}

// New creates an App with middleware and routes registered.
func New(cfg SiteConfig, opts ...Option) (*App, error) {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}

	set, err := loadViews(a.Config.TemplateDir)
	if err != nil {
		return nil, err
	}
	a.Views = set
	a.Store = posts.NewStore(a.Config.PostsDir)
	a.Index = posts.NewIndex(a.Store, a.Config.PostOrder)
	a.Renderer = posts.NewRenderer(markdown.New(markdown.Options{CodeStyle: a.Config.CodeStyle}))

	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

func loadViews(dir string) (*views.Set, error) {
	if dir == "" {
		return views.Load()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("visurena: template dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("visurena: template dir %s is not a directory", dir)
	}
	return views.Load(os.DirFS(dir))
}

// Start serves the site on Config.Addr until ctx is cancelled, then shuts
// down gracefully. Analytics, when enabled, is only active here.
func (a *App) Start(ctx context.Context) error {
	if err := a.enableAnalytics(); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
		errc <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("shutting down")
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("visurena: shutdown: %w", err)
	}
	return nil
}

func (a *App) enableAnalytics() error {
	if !a.Config.AnalyticsEnabled || a.tracker != nil {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("visurena: SessionSecret is required when analytics is enabled")
	}
	if err := os.MkdirAll(filepath.Dir(a.Config.AnalyticsDatabasePath), 0o755); err != nil {
		return fmt.Errorf("visurena: analytics dir: %w", err)
	}
	store, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
	if err != nil {
		return fmt.Errorf("visurena: init analytics: %w", err)
	}
	a.analyticsStore = store
	a.stopCleanup = store.StartCleanupScheduler(a.Config.AnalyticsRetentionDays, 24*time.Hour, a.Logger)
	a.tracker = analytics.NewTracker(store, a.Logger)

	a.Echo.Use(session.Middleware(a.newSessionStore()))
	a.Echo.Use(a.tracker.Middleware())
	analytics.NewHandler(store, a.Logger).RegisterRoutes(a.Echo)
	return nil
}

// Close releases the analytics resources, if any.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
		a.stopCleanup = nil
	}
	if a.tracker != nil {
		a.tracker.Close()
		a.tracker = nil
	}
	if a.analyticsStore != nil {
		err := a.analyticsStore.Close()
		a.analyticsStore = nil
		return err
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or an error
// naming it when it is unset.
func MustEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("visurena: required environment variable %s is not set", key)
	}
	return v, nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Static assets: the user's static dir first, then the embedded defaults.
	e.GET("/public/*", a.handlePublic)
	e.GET(thumbPrefix+":file", a.handleThumb)

	e.GET(robotsPath, a.handleRobots)
	e.GET(sitemapPath, a.handleSitemap)
	e.GET(feedPath, a.handleFeed)
	e.GET(atomPath, a.handleAtom)

	for _, sp := range staticPages {
		e.GET(sp.Path, a.handleStatic(sp))
	}
	e.GET(blogPath, a.handleBlog)
	e.GET("/blog/tag/:tag/", a.handleTag)
	e.GET("/blog/:slug/", a.handlePost)
}
