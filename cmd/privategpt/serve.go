package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/privategpt-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/privategpt-go/internal/infrastructure/http"
	"github.com/0xcro3dile/privategpt-go/internal/infrastructure/watch"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchDir != "" {
		cfg.Watch.Dir = watchDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.GetLogger().WithError(err).Warn("closing session")
		}
	}()
	a.checkParser(ctx)

	if cfg.Watch.Dir != "" {
		if err := startWatcher(ctx, a, cfg.Watch.Dir, cfg.Watch.Quiet); err != nil {
			return err
		}
	}

	return http.NewServer(a.session, cfg.Server.Addr).Start(ctx)
}

func startWatcher(ctx context.Context, a *app, dir, quiet string) error {
	quietPeriod, err := time.ParseDuration(quiet)
	if err != nil {
		return fmt.Errorf("parsing watch.quiet: %w", err)
	}
	w, err := filewatcher.NewFSNotifyWatcher(a.loader.SupportedExtensions(), quietPeriod)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	a.closers = append(a.closers, w.Stop)

	ingestor := watch.NewIngestor(w, a.session)
	go func() {
		if err := ingestor.Run(ctx, dir); err != nil {
			logger.GetLogger().WithError(err).WithField("dir", dir).Error("watch directory stopped")
		}
	}()
	return nil
}
