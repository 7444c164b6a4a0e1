// Package combo remaps combos authored against the canonical 36-key core
// into each board's physical numbering.
package combo

import (
	"fmt"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
)

// Translate maps canonical positions to physical positions for a layout.
// Custom layouts keep combos in their authored numbering.
func Translate(positions []int, spec *layout.Spec) ([]int, error) {
	out := make([]int, len(positions))
	for i, p := range positions {
		// Combos on custom layouts are authored in native numbering.
		if p < 0 || (p >= keymap.CoreKeys && !spec.Custom) {
			return nil, &keymap.Error{
				Position: p,
				Detail:   fmt.Sprintf("canonical combo positions must lie in [0,%d]", keymap.CoreKeys-1),
				Err:      keymap.ErrOutOfRangePosition,
			}
		}
		out[i] = p
		if spec.Custom {
			continue
		}
		for _, b := range spec.Combos {
			if p >= b.From && p <= b.To {
				out[i] = p + b.Offset
				break
			}
		}
	}
	return out, nil
}

// TranslateAll maps every combo for one board.
func TranslateAll(combos []keymap.Combo, spec *layout.Spec) ([]keymap.TranslatedCombo, error) {
	out := make([]keymap.TranslatedCombo, 0, len(combos))
	for _, c := range combos {
		phys, err := Translate(c.Positions, spec)
		if err != nil {
			return nil, fmt.Errorf("combo %s: %w", c.Name, err)
		}
		out = append(out, keymap.TranslatedCombo{Combo: c, Physical: phys})
	}
	return out, nil
}
