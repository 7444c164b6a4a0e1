// Package emit renders compiled boards into firmware source files and
// writes them below an output directory.
package emit

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/kforge/keyforge/internal/compiler"
	"github.com/kforge/keyforge/internal/emit/qmk"
	"github.com/kforge/keyforge/internal/emit/zmk"
	"github.com/kforge/keyforge/internal/keymap"
)

// Renderer turns one compiled board into file name -> content pairs.
type Renderer func(res *compiler.BoardResult) (map[string][]byte, error)

var renderers = map[keymap.Firmware]Renderer{
	keymap.QMK: qmk.Render,
	keymap.ZMK: zmk.Render,
}

// KeymapName is the QMK keymap directory generated files go to.
const KeymapName = "keyforge"

type Emitter struct {
	outputDir string
	logger    *slog.Logger
}

func New(outputDir string, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Emitter{
		outputDir: outputDir,
		logger:    logger,
	}
}

// Dir is where a board's files go: its output_dir, relative to the output
// directory unless absolute, or the firmware's conventional location.
func (e *Emitter) Dir(b keymap.Board) string {
	if b.OutputDir != "" {
		if filepath.IsAbs(b.OutputDir) {
			return b.OutputDir
		}
		return filepath.Join(e.outputDir, b.OutputDir)
	}
	switch b.Firmware {
	case keymap.QMK:
		kb := b.QMKKeyboard
		if kb == "" {
			kb = b.ID
		}
		return filepath.Join(e.outputDir, "qmk", "keyboards", filepath.FromSlash(kb), "keymaps", KeymapName)
	default:
		return filepath.Join(e.outputDir, string(b.Firmware), "config")
	}
}

// Render produces a board's files without writing them.
func Render(res *compiler.BoardResult) (map[string][]byte, error) {
	r, ok := renderers[res.Board.Firmware]
	if !ok {
		var supported []string
		for f := range renderers {
			supported = append(supported, string(f))
		}
		slices.Sort(supported)
		return nil, fmt.Errorf("unsupported firmware '%s' (supported: %v)", res.Board.Firmware, supported)
	}
	return r(res)
}

// Emit renders a board and writes every file that changed. It is meant as
// the compiler pipeline's sink.
func (e *Emitter) Emit(ctx context.Context, res *compiler.BoardResult) error {
	files, err := Render(res)
	if err != nil {
		return err
	}
	dir := e.Dir(res.Board)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := filepath.Join(dir, name)
		written, sum, err := WriteFile(out, files[name])
		if err != nil {
			return err
		}
		if !written {
			e.logger.Debug("Unchanged", "board", res.Board.ID, "file", out, "blake2b", sum)
			continue
		}
		e.logger.Info("Generated "+string(res.Board.Firmware)+" keymap", "board", res.Board.ID, "file", out, "blake2b", sum)
	}
	return nil
}
