package visurena

import (
	"go.uber.org/zap"

	"github.com/visurena/website/posts"
	"github.com/visurena/website/views"
)

// SiteConfig holds all configuration for a visurena site.
type SiteConfig struct {
	Name        string // Site name (default "ViSuReNa")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for feeds and meta tags
	Author      string // Author for feeds and JSON-LD (default Name)

	Addr        string // Listen address (default ":3000")
	PostsDir    string // Post source directory (default "posts")
	TemplateDir string // Optional directory of template overrides
	StaticDir   string // User static assets served under /public/ (default "static")
	OutDir      string // Freeze output directory (default "build")

	PostOrder  posts.Order // Listing order (default by date)
	CodeStyle  string      // Chroma style for code blocks (default "github")
	ThumbWidth int         // Thumbnail width in pixels (default 480)

	AnalyticsEnabled       bool   // Record page views while serving (default false)
	AnalyticsDatabasePath  string // Analytics SQLite path (default "data/analytics.db")
	AnalyticsRetentionDays int    // Visits older than this are deleted (default 365)
	SessionSecret          string // Required with analytics: session cookie secret
	CookieSecure           bool   // Set true for HTTPS
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "ViSuReNa"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Author == "" {
		c.Author = c.Name
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.PostsDir == "" {
		c.PostsDir = "posts"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.OutDir == "" {
		c.OutDir = "build"
	}
	if c.ThumbWidth <= 0 {
		c.ThumbWidth = 480
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.AnalyticsRetentionDays <= 0 {
		c.AnalyticsRetentionDays = 365
	}
}

// site is the part of the config templates see.
func (c SiteConfig) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Author:      c.Author,
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger used for requests and errors (default no-op).
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithTemplateDir overrides the config's template directory.
func WithTemplateDir(dir string) Option {
	return func(a *App) {
		a.Config.TemplateDir = dir
	}
}

// WithStaticDir overrides the config's static directory.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}
