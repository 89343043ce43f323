package main

import (
	"flag"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/visurena/website"
	"github.com/visurena/website/posts"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SITE_NAME", "Test Site")
	t.Setenv("POSTS_DIR", "content")
	t.Setenv("POST_ORDER", "slug")
	t.Setenv("THUMB_WIDTH", "320")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ANALYTICS_ENABLED", "")

	cfg, err := configFromEnv()
	if err != nil {
		t.Fatalf("configFromEnv failed: %v", err)
	}
	if cfg.Name != "Test Site" || cfg.PostsDir != "content" {
		t.Errorf("Name/PostsDir = %q/%q", cfg.Name, cfg.PostsDir)
	}
	if cfg.PostOrder != posts.OrderBySlug {
		t.Errorf("PostOrder = %v, want OrderBySlug", cfg.PostOrder)
	}
	if cfg.ThumbWidth != 320 || !cfg.CookieSecure || cfg.AnalyticsEnabled {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestConfigFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad order", map[string]string{"POST_ORDER": "random"}},
		{"bad width", map[string]string{"THUMB_WIDTH": "wide"}},
		{"analytics without secret", map[string]string{"ANALYTICS_ENABLED": "1", "SESSION_SECRET": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := configFromEnv(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestDirFlags(t *testing.T) {
	static, templates := t.TempDir(), t.TempDir()

	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	options := dirFlags(fset)
	if err := fset.Parse([]string{"-static", static, "-templates", templates}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg := visurena.SiteConfig{StaticDir: "ignored", PostsDir: t.TempDir()}
	app, err := visurena.New(cfg, options(zaptest.NewLogger(t))...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()
	if app.Config.StaticDir != static || app.Config.TemplateDir != templates {
		t.Errorf("dirs = %q/%q, want %q/%q", app.Config.StaticDir, app.Config.TemplateDir, static, templates)
	}

	fset = flag.NewFlagSet("freeze", flag.ContinueOnError)
	options = dirFlags(fset)
	if err := fset.Parse(nil); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := len(options(zaptest.NewLogger(t))); got != 1 {
		t.Errorf("without flags got %d options, want only the logger", got)
	}
}
