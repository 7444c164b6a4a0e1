package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kforge/keyforge/internal/loader"
	"github.com/kforge/keyforge/internal/log"
	"github.com/kforge/keyforge/internal/watch"
)

type Watch struct {
	Generate `embed:""`
	Debounce time.Duration `help:"Quiet period after a change before regenerating" default:"300ms" env:"KEYFORGE_WATCH_DEBOUNCE"`
}

// Run is called by Kong when the watch command is executed.
func (w *Watch) Run(logger *slog.Logger, dump log.DumpLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.Execute(ctx, logger, dump)
}

// Execute generates once, then again after every change to the
// configuration files until ctx is done. Failed runs are logged and the
// watch goes on.
func (w *Watch) Execute(ctx context.Context, logger *slog.Logger, dump log.DumpLogger) error {
	regenerate := func(ctx context.Context) []string {
		if _, err := w.Generate.Execute(ctx, logger, dump); err != nil {
			logger.Error("Generation failed", "error", err)
		}
		cfg, _ := w.load(slog.New(slog.DiscardHandler))
		return loader.Sources(w.ConfigDir, cfg)
	}

	paths := regenerate(ctx)
	wt, err := watch.New(paths, w.Debounce, logger)
	if err != nil {
		return err
	}
	defer wt.Close()
	logger.Info("Watching configuration", "dir", w.ConfigDir, "files", len(paths))
	return wt.Run(ctx, regenerate)
}
