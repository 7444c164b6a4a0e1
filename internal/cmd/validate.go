package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kforge/keyforge/internal/compiler"
	"github.com/kforge/keyforge/internal/emit"
	"github.com/kforge/keyforge/internal/log"
)

type Validate struct {
	Source `embed:""`
}

// Run is called by Kong when the validate command is executed.
func (v *Validate) Run(logger *slog.Logger, dump log.DumpLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	_, err := v.Execute(ctx, logger, dump)
	return err
}

// Execute compiles and renders every board without writing files.
func (v *Validate) Execute(ctx context.Context, logger *slog.Logger, dump log.DumpLogger) (*compiler.Report, error) {
	cfg, err := v.load(logger)
	if err != nil {
		return nil, err
	}
	p := v.pipeline(logger, dump)
	p.Sink = func(_ context.Context, res *compiler.BoardResult) error {
		_, err := emit.Render(res)
		return err
	}
	rep, err := p.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(rep.Failures) == 0 {
		logger.Info("Configuration is valid", "boards", len(rep.Results))
	}
	return rep, rep.Err()
}
