// Package compiler lowers logical layers onto physical boards.
package compiler

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/kforge/keyforge/internal/combo"
	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
	"github.com/kforge/keyforge/internal/magic"
	"github.com/kforge/keyforge/internal/translate"
)

// Options tune a compilation run.
type Options struct {
	// Training adds magic training guards.
	Training bool
	// Parallel is the number of boards compiled at once.
	Parallel int
	// Boards restricts the run to the listed board ids.
	Boards []string
}

// Combo is a combo ready for emission on one board.
type Combo struct {
	keymap.TranslatedCombo
	Binding string
	// LayerIndices are the compiled layer indices the combo is limited to.
	LayerIndices []int
	Macro        *magic.Macro
}

// BoardResult is everything an emitter needs for one board.
type BoardResult struct {
	Board  keymap.Board
	Layout *layout.Spec
	Layers []keymap.CompiledLayer
	Combos []Combo
	Magic  *magic.Plan
	Usage  *translate.Accumulator
	// Translator renders keys for the board's firmware.
	Translator translate.Translator
	// HoldTaps are the configured hold-tap timings.
	HoldTaps map[string]keymap.HoldTapTiming
	Skipped  []string
}

// LayerNames lists the compiled layers in index order.
func (r *BoardResult) LayerNames() []string {
	out := make([]string, len(r.Layers))
	for i, l := range r.Layers {
		out[i] = l.Name
	}
	return out
}

// Compiler compiles a configuration for boards of one firmware.
type Compiler struct {
	cfg    *keymap.Config
	tr     translate.Translator
	opts   Options
	logger *slog.Logger
}

func New(cfg *keymap.Config, fw keymap.Firmware, opts Options, logger *slog.Logger) (*Compiler, error) {
	tr, err := translate.New(fw, translate.NewTables(cfg))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{cfg: cfg, tr: tr, opts: opts, logger: logger}, nil
}

// Translator returns the firmware translator in use.
func (c *Compiler) Translator() translate.Translator { return c.tr }

// CompileLayer lowers one layer for a board. The boolean is false when the
// layer does not apply to the board.
func (c *Compiler) CompileLayer(l *keymap.Layer, b *keymap.Board, spec *layout.Spec, acc *translate.Accumulator) (keymap.CompiledLayer, bool, error) {
	origin := l.Name
	if l.IsShadow() {
		origin = l.ShadowOf
	}
	listed := b.Whitelists(l.Name) || b.Whitelists(origin)
	wanted := listed || b.HasOverlay()

	var seq []keymap.Token
	switch {
	case l.FullLayout != nil:
		if !wanted {
			return keymap.CompiledLayer{}, false, nil
		}
		var err error
		if seq, err = resolveFullLayout(l); err != nil {
			return keymap.CompiledLayer{}, false, err
		}
		if spec.Custom {
			spec = spec.Sized(len(seq))
		} else if len(seq) != spec.Keys() {
			return keymap.CompiledLayer{}, false, keymap.LayerError(keymap.ErrKeyCount, l.Name,
				fmt.Sprintf("full layout has %d keys, %s needs %d", len(seq), spec.Name, spec.Keys()))
		}
	case l.Core != nil:
		if spec.Custom {
			if !listed {
				return keymap.CompiledLayer{}, false, nil
			}
			return keymap.CompiledLayer{}, false, keymap.LayerError(keymap.ErrUnresolvedExtension, l.Name,
				fmt.Sprintf("custom layout %s needs a full layout", spec.Name))
		}
		logical, ok, err := extend(l, spec, wanted)
		if err != nil || !ok {
			return keymap.CompiledLayer{}, false, err
		}
		seq = make([]keymap.Token, spec.Keys())
		for i, sl := range spec.Slots {
			seq[i] = logical[sl.Logical]
		}
	default:
		return keymap.CompiledLayer{}, false, keymap.LayerError(keymap.ErrKeyCount, l.Name, "layer needs core or full_layout")
	}

	out := keymap.CompiledLayer{
		Name:     l.Name,
		Board:    b.ID,
		Firmware: b.Firmware,
		Keycodes: make([]string, len(seq)),
		Tokens:   make([]string, len(seq)),
	}
	for pos, tok := range seq {
		ctx := translate.Context{Layer: l.Name, Position: pos, Layout: spec}
		kc, err := c.tr.Translate(tok.Key, ctx, acc)
		if err != nil {
			return keymap.CompiledLayer{}, false, keymap.Locate(err, b.ID, l.Name, pos)
		}
		out.Tokens[pos] = tok.Key
		out.Keycodes[pos] = kc
	}
	return out, true, nil
}

// resolveFullLayout substitutes canonical references with core tokens.
func resolveFullLayout(l *keymap.Layer) ([]keymap.Token, error) {
	flat := l.FullLayout.Flatten()
	core := l.Core.Flatten()
	out := make([]keymap.Token, len(flat))
	for i, t := range flat {
		if !t.IsRef {
			out[i] = t
			continue
		}
		if core == nil {
			return nil, &keymap.Error{Layer: l.Name, Position: i, Token: t.String(), Err: keymap.ErrUnresolvedReference,
				Detail: "layer has no core"}
		}
		if t.Ref < 0 || t.Ref >= len(core) {
			return nil, &keymap.Error{Layer: l.Name, Position: i, Token: t.String(), Err: keymap.ErrOutOfRangePosition,
				Detail: fmt.Sprintf("canonical references must lie in [0,%d]", len(core)-1)}
		}
		out[i] = core[t.Ref]
	}
	return out, nil
}

// extend appends the extension lists a layout requires to the core.
func extend(l *keymap.Layer, spec *layout.Spec, wanted bool) ([]keymap.Token, bool, error) {
	if err := l.Core.ValidateCore(); err != nil {
		return nil, false, keymap.Locate(err, "", l.Name, -1)
	}
	logical := l.Core.Flatten()
	for _, ext := range spec.Extensions {
		le, ok := l.Extensions[ext.Name]
		if !ok {
			if wanted {
				return nil, false, keymap.LayerError(keymap.ErrUnresolvedExtension, l.Name,
					fmt.Sprintf("%s requires extension %s", spec.Name, ext.Name))
			}
			return nil, false, nil
		}
		for _, list := range ext.Lists {
			toks := le.Keys[list.Name]
			if len(toks) != list.Keys {
				return nil, false, keymap.LayerError(keymap.ErrUnresolvedExtension, l.Name,
					fmt.Sprintf("extension %s list %s has %d keys, want %d", ext.Name, list.Name, len(toks), list.Keys))
			}
			for i, t := range toks {
				if t.IsRef {
					return nil, false, &keymap.Error{Layer: l.Name, Position: -1, Token: t.String(), Err: keymap.ErrUnresolvedReference,
						Detail: fmt.Sprintf("extension %s list %s key %d", ext.Name, list.Name, i)}
				}
			}
			logical = append(logical, toks...)
		}
	}
	return logical, true, nil
}

// warnDanglingLayers logs rendered layer references to layers that were
// declared but not compiled for the board.
func (c *Compiler) warnDanglingLayers(res *BoardResult) {
	compiled := map[string]bool{}
	for _, name := range res.LayerNames() {
		compiled[name] = true
	}
	aliases := c.tr.Tables().Aliases
	for _, l := range res.Layers {
		for i, tok := range l.Tokens {
			if i < len(l.Keycodes) && l.Keycodes[i] == c.tr.Inert() {
				continue
			}
			e, err := translate.Parse(tok, aliases)
			if err != nil {
				continue
			}
			for _, ref := range translate.LayerRefs(e) {
				if !compiled[ref] {
					c.logger.Warn("Layer reference not compiled for board",
						"board", res.Board.ID, "layer", l.Name, "position", i, "target", ref)
				}
			}
		}
	}
}

// CompileBoard compiles every applicable layer of cfg for one board, then
// its combos and magic keys. Side effects are pooled per board.
func (c *Compiler) CompileBoard(b keymap.Board) (*BoardResult, error) {
	spec, err := layout.Lookup(b.LayoutSize)
	if err != nil {
		return nil, keymap.Locate(err, b.ID, "", -1)
	}
	res := &BoardResult{
		Board:      b,
		Layout:     spec,
		Usage:      translate.NewAccumulator(),
		Translator: c.tr,
		HoldTaps:   c.cfg.HoldTaps,
	}
	res.Usage.Reset()

	for i := range c.cfg.Layers {
		l := &c.cfg.Layers[i]
		cl, ok, err := c.CompileLayer(l, &b, spec, res.Usage)
		if err != nil {
			return nil, keymap.Locate(err, b.ID, l.Name, -1)
		}
		if !ok {
			c.logger.Debug("Skipping layer", "board", b.ID, "layer", l.Name)
			res.Skipped = append(res.Skipped, l.Name)
			continue
		}
		if spec.Custom && len(res.Layers) > 0 && len(cl.Keycodes) != len(res.Layers[0].Keycodes) {
			return nil, &keymap.Error{Board: b.ID, Layer: l.Name, Position: -1, Err: keymap.ErrKeyCount,
				Detail: fmt.Sprintf("has %d keys, %s has %d", len(cl.Keycodes), res.Layers[0].Name, len(res.Layers[0].Keycodes))}
		}
		res.Layers = append(res.Layers, cl)
	}
	if spec.Custom && len(res.Layers) > 0 {
		res.Layout = spec.Sized(len(res.Layers[0].Keycodes))
	}
	c.warnDanglingLayers(res)

	ns := magic.NewNamespace()
	if res.Combos, err = c.combos(res, ns); err != nil {
		return nil, keymap.Locate(err, b.ID, "", -1)
	}

	res.Magic, err = magic.Generate(magic.Input{
		Translator: c.tr,
		Mappings:   c.cfg.Magic,
		Layers:     res.Layers,
		Layout:     res.Layout,
		Usage:      res.Usage,
		Training:   c.opts.Training,
		Namespace:  ns,
	})
	if err != nil {
		return nil, keymap.Locate(err, b.ID, "", -1)
	}
	if c.opts.Training {
		res.Layers = res.Magic.Rewrite(res.Layers)
	}
	return res, nil
}

// ComboMacroName names the macro typed by a text combo.
func ComboMacroName(f keymap.Firmware, combo string) string {
	if f == keymap.QMK {
		return "MACRO_" + strings.ToUpper(combo)
	}
	return strings.ToLower(combo)
}

func (c *Compiler) combos(res *BoardResult, ns *magic.Namespace) ([]Combo, error) {
	translated, err := combo.TranslateAll(c.cfg.Combos, res.Layout)
	if err != nil {
		return nil, err
	}
	names := res.LayerNames()
	fw := c.tr.Firmware()
	out := make([]Combo, 0, len(translated))
	for _, tc := range translated {
		for _, p := range tc.Physical {
			if n := res.Layout.Keys(); n > 0 && p >= n {
				return nil, &keymap.Error{Position: p, Token: tc.Name, Err: keymap.ErrOutOfRangePosition,
					Detail: fmt.Sprintf("board has %d keys", n)}
			}
		}
		cb := Combo{TranslatedCombo: tc}
		for _, ln := range tc.Layers {
			if c.cfg.LayerIndex(ln) < 0 {
				return nil, &keymap.Error{Position: -1, Token: tc.Name, Err: keymap.ErrUnknownLayer,
					Detail: fmt.Sprintf("combo layer %q is not declared", ln)}
			}
			if i := slices.Index(names, ln); i >= 0 {
				cb.LayerIndices = append(cb.LayerIndices, i)
			}
		}
		if len(tc.Layers) > 0 && len(cb.LayerIndices) == 0 {
			c.logger.Debug("Dropping combo without layers on board", "board", res.Board.ID, "combo", tc.Name)
			continue
		}
		switch {
		case tc.IsMacro():
			name := ComboMacroName(fw, tc.Name)
			if err := ns.Claim(name, "combo "+tc.Name); err != nil {
				return nil, err
			}
			mac, err := magic.NewMacro(c.tr, name, *tc.MacroText)
			if err != nil {
				return nil, fmt.Errorf("combo %s: %w", tc.Name, err)
			}
			cb.Macro = &mac
			cb.Binding = magic.MacroRef(fw, name)
		default:
			action := tc.Action
			if strings.EqualFold(action, "DFU") {
				action = "BOOT"
			}
			ctx := translate.Context{Position: -1, Layout: res.Layout}
			if cb.Binding, err = c.tr.Translate(action, ctx, res.Usage); err != nil {
				return nil, fmt.Errorf("combo %s: %w", tc.Name, err)
			}
		}
		out = append(out, cb)
	}
	return out, nil
}
