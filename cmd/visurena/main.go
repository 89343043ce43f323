package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/visurena/website"
	"github.com/visurena/website/posts"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "freeze":
		err = runFreeze(os.Args[2:])
	case "new":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: visurena new <dir>")
			os.Exit(1)
		}
		err = runNew(os.Args[2])
	case "version":
		fmt.Printf("visurena %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`visurena - a small personal website with a directory-backed blog

Usage:
  visurena <command> [arguments]

Commands:
  serve [-static] [-templates]
        Serve the site on SITE_ADDR
  freeze [-static] [-templates] [-watch] [-interval]
        Write a static copy of the site to OUT_DIR
  new <dir>                   Create a starter site
  version                     Print the visurena version
  help                        Show this help message

Configuration is read from the environment; see .env.example in a new site.`)
}

// dirFlags registers the directory overrides shared by serve and freeze.
// Flags win over STATIC_DIR and TEMPLATE_DIR.
func dirFlags(fset *flag.FlagSet) func(logger *zap.Logger) []visurena.Option {
	static := fset.String("static", "", "static asset directory (overrides STATIC_DIR)")
	templates := fset.String("templates", "", "template override directory (overrides TEMPLATE_DIR)")
	return func(logger *zap.Logger) []visurena.Option {
		opts := []visurena.Option{visurena.WithLogger(logger)}
		if *static != "" {
			opts = append(opts, visurena.WithStaticDir(*static))
		}
		if *templates != "" {
			opts = append(opts, visurena.WithTemplateDir(*templates))
		}
		return opts
	}
}

func runServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	options := dirFlags(fset)
	if err := fset.Parse(args); err != nil {
		return err
	}

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := visurena.New(cfg, options(logger)...)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Start(ctx)
}

func runFreeze(args []string) error {
	fset := flag.NewFlagSet("freeze", flag.ContinueOnError)
	options := dirFlags(fset)
	watch := fset.Bool("watch", false, "rebuild whenever posts, templates or static files change")
	interval := fset.Duration("interval", visurena.DefaultWatchInterval, "polling interval for -watch")
	if err := fset.Parse(args); err != nil {
		return err
	}

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if *watch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return visurena.Watch(ctx, cfg, *interval, options(logger)...)
	}

	app, err := visurena.New(cfg, options(logger)...)
	if err != nil {
		return err
	}
	defer app.Close()

	start := time.Now()
	if err := app.Freeze(); err != nil {
		return err
	}
	logger.Info("site frozen", zap.String("out", app.Config.OutDir), zap.Duration("took", time.Since(start)))
	return nil
}

// configFromEnv builds the site config from environment variables. Unset
// variables fall back to the SiteConfig defaults.
func configFromEnv() (visurena.SiteConfig, error) {
	order, err := posts.ParseOrder(os.Getenv("POST_ORDER"))
	if err != nil {
		return visurena.SiteConfig{}, err
	}
	thumbWidth, err := envInt("THUMB_WIDTH")
	if err != nil {
		return visurena.SiteConfig{}, err
	}

	cfg := visurena.SiteConfig{
		Name:                  os.Getenv("SITE_NAME"),
		URL:                   os.Getenv("SITE_URL"),
		Description:           os.Getenv("SITE_DESCRIPTION"),
		Author:                os.Getenv("SITE_AUTHOR"),
		Addr:                  os.Getenv("SITE_ADDR"),
		PostsDir:              os.Getenv("POSTS_DIR"),
		TemplateDir:           os.Getenv("TEMPLATE_DIR"),
		StaticDir:             os.Getenv("STATIC_DIR"),
		OutDir:                os.Getenv("OUT_DIR"),
		PostOrder:             order,
		CodeStyle:             os.Getenv("CODE_STYLE"),
		ThumbWidth:            thumbWidth,
		AnalyticsEnabled:      envBool("ANALYTICS_ENABLED"),
		AnalyticsDatabasePath: os.Getenv("ANALYTICS_DB"),
		CookieSecure:          envBool("COOKIE_SECURE"),
	}
	if cfg.AnalyticsEnabled {
		if cfg.SessionSecret, err = visurena.MustEnv("SESSION_SECRET"); err != nil {
			return visurena.SiteConfig{}, err
		}
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if envBool("LOG_DEV") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(visurena.EnvOr(key, "false"))
	return b
}

func envInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
