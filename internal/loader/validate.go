package loader

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
	"github.com/kforge/keyforge/internal/translate"
)

// Validate checks the structural rules a configuration must satisfy before
// compilation. Every problem found is reported.
func Validate(cfg *keymap.Config) error {
	var errs []error
	seen := map[string]bool{}
	for i := range cfg.Layers {
		l := &cfg.Layers[i]
		if seen[l.Name] {
			errs = append(errs, keymap.LayerError(keymap.ErrNameCollision, l.Name, "layer declared twice"))
		}
		seen[l.Name] = true
		if err := l.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, layers := range cfg.Overlays {
		for i := range layers {
			if err := layers[i].Validate(); err != nil && !errors.Is(err, keymap.ErrKeyCount) {
				errs = append(errs, err)
			}
		}
	}

	ids := map[string]bool{}
	for _, b := range cfg.Boards {
		if ids[b.ID] {
			errs = append(errs, fmt.Errorf("board %s: %w: declared twice", b.ID, keymap.ErrNameCollision))
		}
		ids[b.ID] = true
		if _, err := keymap.ParseFirmware(string(b.Firmware)); err != nil {
			errs = append(errs, fmt.Errorf("board %s: %w", b.ID, err))
		}
		if _, err := layout.Lookup(b.LayoutSize); err != nil {
			errs = append(errs, fmt.Errorf("board %s: %w", b.ID, err))
		}
		for _, name := range b.ExtraLayers {
			if cfg.LayerIndex(name) < 0 {
				errs = append(errs, fmt.Errorf("board %s: extra layer %q: %w", b.ID, name, keymap.ErrUnknownLayer))
			}
		}
	}

	combos := map[string]bool{}
	for _, c := range cfg.Combos {
		switch {
		case c.Name == "":
			errs = append(errs, fmt.Errorf("combo without name: %w", keymap.ErrUnknownKeycode))
		case combos[c.Name]:
			errs = append(errs, fmt.Errorf("combo %s: %w: declared twice", c.Name, keymap.ErrNameCollision))
		case len(c.Positions) == 0:
			errs = append(errs, fmt.Errorf("combo %s: %w: no key positions", c.Name, keymap.ErrOutOfRangePosition))
		case (c.Action == "") == !c.IsMacro():
			errs = append(errs, fmt.Errorf("combo %s: %w: needs exactly one of action or macro_text", c.Name, keymap.ErrUnknownKeycode))
		}
		combos[c.Name] = true
	}

	builtin := translate.DefaultAliases()
	for _, name := range slices.Sorted(maps.Keys(cfg.Aliases)) {
		if _, ok := translate.BuiltinArity(name); !ok {
			continue
		}
		if want := builtin[name].Params; !slices.Equal(cfg.Aliases[name].Params, want) {
			errs = append(errs, fmt.Errorf("alias %s: %w: built-in parameters are %v", name, keymap.ErrInvalidAliasArity, want))
		}
	}

	for _, m := range cfg.Magic {
		if cfg.LayerIndex(m.BaseLayer) < 0 {
			errs = append(errs, fmt.Errorf("magic_keys %s: %w", m.BaseLayer, keymap.ErrUnknownLayer))
		}
	}
	return errors.Join(errs...)
}
