package translate

import (
	"fmt"
	"strings"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
)

type qmkBackend struct{}

func (qmkBackend) firmware() keymap.Firmware { return keymap.QMK }
func (qmkBackend) inert() string             { return "KC_NO" }

func (qmkBackend) keyParam(binding string) (string, bool) { return binding, true }

func (qmkBackend) modParam(m Modifier) string { return m.QMK() }

// magic is the alternate repeat key; the family is picked at runtime from
// the current base layer.
func (qmkBackend) magic(string) string { return "QK_AREP" }

// magicHold names a custom hold-tap keycode whose tap invokes the alternate
// repeat key. The emitter defines the name.
func (qmkBackend) magicHold(hold HoldKind, arg, _ string) string {
	switch hold {
	case HoldLT:
		return "MAGIC_LT_" + arg
	case HoldMT:
		return "MAGIC_MT_" + arg
	default:
		return "MAGIC_HRM_" + arg
	}
}

// HomeRowMacro names the per-hand home-row mod macro. The emitter defines
// both as the plain mod-tap of the authored modifier.
func HomeRowMacro(side layout.Side) string {
	if side == layout.Right {
		return "HMR"
	}
	return "HML"
}

func (qmkBackend) homeRowMod(side layout.Side, m Modifier, key string) string {
	return fmt.Sprintf("%s(%s, %s)", HomeRowMacro(side), m.QMK(), key)
}

func (qmkBackend) layerTap(layer, key string) string {
	return fmt.Sprintf("LT(%s, %s)", layer, key)
}

func (qmkBackend) modTap(m Modifier, key string) string {
	return fmt.Sprintf("%s_T(%s)", m.QMK(), key)
}

func (qmkBackend) shiftMorphName(base, shifted string) string {
	return "SM_" + strings.ToUpper(base) + "_" + strings.ToUpper(shifted)
}

func (qmkBackend) shiftMorphRef(name string) string { return name }

func (qmkBackend) defaultLayer(layer string) string { return "DF(" + layer + ")" }

func (qmkBackend) oneShotLayer(layer string) string { return "OSL(" + layer + ")" }

func (qmkBackend) bluetoothAction(action string) string { return action }

// MagicHoldDefinition returns the plain QMK hold-tap a magic hold keycode
// stands for, e.g. LT(NAV, KC_NO) for MAGIC_LT_NAV.
func MagicHoldDefinition(u MagicUse) string {
	switch u.Hold {
	case HoldLT:
		return fmt.Sprintf("LT(%s, KC_NO)", u.Arg)
	default:
		return fmt.Sprintf("%s_T(KC_NO)", u.Arg)
	}
}
