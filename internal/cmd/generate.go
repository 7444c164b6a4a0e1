package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kforge/keyforge/internal/compiler"
	"github.com/kforge/keyforge/internal/emit"
	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/loader"
	"github.com/kforge/keyforge/internal/log"
)

// Source selects the keymap configuration and the boards compiled from it.
type Source struct {
	ConfigDir       string   `help:"Directory holding keymap.yaml and boards.yaml" default:"config" type:"path" env:"KEYFORGE_CONFIG_DIR"`
	Boards          []string `help:"Only compile these board ids" env:"KEYFORGE_BOARDS"`
	Parallel        int      `help:"Boards compiled at once" default:"4" env:"KEYFORGE_PARALLEL"`
	NoMagicTraining bool     `help:"Leave magic training guards out of the keymaps" env:"KEYFORGE_NO_MAGIC_TRAINING"`
}

func (s *Source) pipeline(logger *slog.Logger, dump log.DumpLogger) *compiler.Pipeline {
	return &compiler.Pipeline{
		Options: compiler.Options{
			Training: !s.NoMagicTraining,
			Parallel: s.Parallel,
			Boards:   s.Boards,
		},
		Logger: logger,
		Dump:   dump,
	}
}

func (s *Source) load(logger *slog.Logger) (*keymap.Config, error) {
	return loader.Load(s.ConfigDir, logger)
}

type Generate struct {
	Source    `embed:""`
	OutputDir string `help:"Root of the generated firmware trees" default:"out" type:"path" env:"KEYFORGE_OUTPUT_DIR"`
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger, dump log.DumpLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	_, err := g.Execute(ctx, logger, dump)
	return err
}

// Execute loads the configuration and writes every board's keymap. The
// error joins the board failures; the report lists what succeeded.
func (g *Generate) Execute(ctx context.Context, logger *slog.Logger, dump log.DumpLogger) (*compiler.Report, error) {
	logger.Info("Generating keymaps", "config", g.ConfigDir, "output", g.OutputDir)
	cfg, err := g.load(logger)
	if err != nil {
		return nil, err
	}
	p := g.pipeline(logger, dump)
	p.Sink = emit.New(g.OutputDir, logger).Emit
	rep, err := p.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Generation finished", "boards", len(rep.Results), "failed", len(rep.Failures))
	return rep, rep.Err()
}
