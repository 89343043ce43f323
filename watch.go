package visurena

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/radovskyb/watcher"
	"go.uber.org/zap"
)

// DefaultWatchInterval is how often Watch polls for changes.
const DefaultWatchInterval = 500 * time.Millisecond

// Watch freezes the site, then freezes it again after every change under the
// posts, template or static directories, until ctx is done. Each rebuild
// starts from a fresh App so template edits are picked up. A failed rebuild
// is logged and the previous output stays as it was left.
func Watch(ctx context.Context, cfg SiteConfig, interval time.Duration, opts ...Option) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	first, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	logger := first.Logger
	conf := first.Config
	err = first.Freeze()
	first.Close()
	if err != nil {
		return err
	}

	rebuild := func() error {
		a, err := New(cfg, opts...)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Freeze()
	}

	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write, watcher.Create, watcher.Remove, watcher.Rename, watcher.Move)

	watched := 0
	for _, dir := range []string{conf.PostsDir, conf.TemplateDir, conf.StaticDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.AddRecursive(dir); err != nil {
			return fmt.Errorf("visurena: watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("visurena: nothing to watch")
	}
	if err := w.Ignore(conf.OutDir); err != nil {
		logger.Debug("out dir not ignored", zap.Error(err))
	}

	errc := make(chan error, 1)
	go func() {
		errc <- w.Start(interval)
	}()
	defer w.Close()

	logger.Info("watching for changes", zap.String("posts", conf.PostsDir), zap.Duration("interval", interval))
	for {
		select {
		case ev := <-w.Event:
			logger.Info("change detected", zap.String("path", ev.Path), zap.String("op", ev.Op.String()))
			if err := rebuild(); err != nil {
				logger.Error("rebuild failed", zap.Error(err))
			}
		case err := <-w.Error:
			logger.Warn("watcher error", zap.Error(err))
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("visurena: watcher: %w", err)
			}
			return nil
		case <-w.Closed:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
