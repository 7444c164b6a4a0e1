package translate

import (
	"strings"

	"github.com/kforge/keyforge/internal/keymap"
)

// Modifier is a normalized modifier: a family (SFT, CTL, ALT, GUI) and a hand.
type Modifier struct {
	Family string
	Right  bool
}

var modFamilies = map[string]string{
	"SFT": "SFT", "SHFT": "SFT", "SHIFT": "SFT",
	"CTL": "CTL", "CTRL": "CTL", "CONTROL": "CTL",
	"ALT": "ALT", "OPT": "ALT",
	"GUI": "GUI", "CMD": "GUI", "WIN": "GUI", "META": "GUI",
}

// ParseModifier accepts LSFT, RCTRL, LSHIFT, GUI and similar spellings.
func ParseModifier(s string) (Modifier, error) {
	u := strings.ToUpper(s)
	var m Modifier
	switch {
	case strings.HasPrefix(u, "LEFT_"):
		u = u[5:]
	case strings.HasPrefix(u, "RIGHT_"):
		u, m.Right = u[6:], true
	case len(u) > 1 && u[0] == 'L':
		if _, ok := modFamilies[u[1:]]; ok {
			u = u[1:]
		}
	case len(u) > 1 && u[0] == 'R':
		if _, ok := modFamilies[u[1:]]; ok {
			u, m.Right = u[1:], true
		}
	}
	fam, ok := modFamilies[u]
	if !ok {
		return Modifier{}, keymap.TokenError(keymap.ErrInvalidModifier, s, "")
	}
	m.Family = fam
	return m, nil
}

// IsShift reports whether the modifier is a shift.
func (m Modifier) IsShift() bool { return m.Family == "SFT" }

func (m Modifier) prefix() string {
	if m.Right {
		return "R"
	}
	return "L"
}

// QMK returns the QMK spelling used by mod-tap macros, e.g. LSFT.
func (m Modifier) QMK() string { return m.prefix() + m.Family }

// ZMK returns the devicetree modifier keycode, e.g. LSHFT.
func (m Modifier) ZMK() string {
	switch m.Family {
	case "SFT":
		return m.prefix() + "SHFT"
	case "CTL":
		return m.prefix() + "CTRL"
	}
	return m.prefix() + m.Family
}
