package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/log"
	"github.com/kforge/keyforge/internal/shadow"
)

// Failure records a board that could not be generated.
type Failure struct {
	Board string
	Err   error
}

// Report is the outcome of a pipeline run. Results and Failures follow the
// board declaration order.
type Report struct {
	Results  []*BoardResult
	Failures []Failure
}

// Err joins every board failure.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = fmt.Errorf("board %s: %w", f.Board, f.Err)
	}
	return errors.Join(errs...)
}

// Pipeline compiles every board of a configuration.
type Pipeline struct {
	Options Options
	Logger  *slog.Logger
	Dump    log.DumpLogger
	// Sink consumes each compiled board, typically emitting and writing
	// its files. A sink error fails that board only.
	Sink func(ctx context.Context, res *BoardResult) error
}

// Run synthesizes shadow layers once and compiles the selected boards. A
// shadow failure on the shared configuration aborts the run; board failures
// are collected in the report.
func (p *Pipeline) Run(ctx context.Context, cfg *keymap.Config) (*Report, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dump := p.Dump
	if dump == nil {
		dump = log.NewDump(nil)
	}

	base, err := shadow.Synthesize(cfg)
	if err != nil {
		return nil, fmt.Errorf("shadow layers: %w", err)
	}
	boards, err := p.selectBoards(cfg)
	if err != nil {
		return nil, err
	}

	results := make([]*BoardResult, len(boards))
	errs := make([]error, len(boards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.Options.Parallel))
	for i, b := range boards {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			res, err := p.board(gctx, cfg, base, b, logger)
			if err != nil {
				logger.Error("Board failed", "board", b.ID, "error", err)
				errs[i] = err
				return nil
			}
			for _, l := range res.Layers {
				dump.Layer(b.ID, l.Name, l.Keycodes)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	rep := &Report{}
	for i, b := range boards {
		if errs[i] != nil {
			rep.Failures = append(rep.Failures, Failure{Board: b.ID, Err: errs[i]})
			continue
		}
		rep.Results = append(rep.Results, results[i])
	}
	return rep, nil
}

func (p *Pipeline) selectBoards(cfg *keymap.Config) ([]keymap.Board, error) {
	if len(p.Options.Boards) == 0 {
		return cfg.Boards, nil
	}
	var out []keymap.Board
	for _, id := range p.Options.Boards {
		b, ok := cfg.Board(id)
		if !ok {
			return nil, fmt.Errorf("unknown board %q", id)
		}
		out = append(out, *b)
	}
	return out, nil
}

// board resolves the board's configuration variant and compiles it. Boards
// with an overlay get their own shadow synthesis, whose failure is theirs.
func (p *Pipeline) board(ctx context.Context, raw, base *keymap.Config, b keymap.Board, logger *slog.Logger) (*BoardResult, error) {
	cfg := base
	if overlay, ok := raw.Overlays[b.ID]; ok {
		var err error
		if cfg, err = shadow.Synthesize(raw.WithOverlay(overlay)); err != nil {
			return nil, fmt.Errorf("shadow layers: %w", err)
		}
	}
	c, err := New(cfg, b.Firmware, p.Options, logger)
	if err != nil {
		return nil, err
	}
	res, err := c.CompileBoard(b)
	if err != nil {
		return nil, err
	}
	logger.Info("Compiled board",
		"board", b.ID,
		"firmware", b.Firmware,
		"layout", b.LayoutSize,
		"layers", len(res.Layers),
		"skipped", len(res.Skipped),
		"combos", len(res.Combos),
	)
	if p.Sink != nil {
		if err := p.Sink(ctx, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Failed lists the ids of failed boards.
func (r *Report) Failed() []string {
	out := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f.Board
	}
	return out
}
