package translate

import (
	"fmt"
	"strings"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
)

type zmkBackend struct{}

func (zmkBackend) firmware() keymap.Firmware { return keymap.ZMK }
func (zmkBackend) inert() string             { return "&none" }

// keyParam strips &kp; other behaviors cannot be passed as a tap key.
func (zmkBackend) keyParam(binding string) (string, bool) {
	p, ok := strings.CutPrefix(binding, "&kp ")
	return p, ok
}

func (zmkBackend) modParam(m Modifier) string { return m.ZMK() }

func (zmkBackend) magic(suffix string) string { return "&ak_" + suffix }

// magicHold references a generated hold-tap whose tap side is the family's
// adaptive key; the tap parameter is unused.
func (zmkBackend) magicHold(hold HoldKind, arg, suffix string) string {
	return fmt.Sprintf("&%s_ak_%s %s 0", hold, suffix, arg)
}

func (zmkBackend) homeRowMod(side layout.Side, m Modifier, key string) string {
	name := "hml"
	if side == layout.Right {
		name = "hmr"
	}
	return fmt.Sprintf("&%s %s %s", name, m.ZMK(), key)
}

func (zmkBackend) layerTap(layer, key string) string {
	return fmt.Sprintf("&lt %s %s", layer, key)
}

func (zmkBackend) modTap(m Modifier, key string) string {
	return fmt.Sprintf("&mt %s %s", m.ZMK(), key)
}

func (zmkBackend) shiftMorphName(base, shifted string) string {
	return "sm_" + strings.ToLower(base) + "_" + strings.ToLower(shifted)
}

func (zmkBackend) shiftMorphRef(name string) string { return "&" + name }

func (zmkBackend) defaultLayer(layer string) string { return "&to " + layer }

func (zmkBackend) oneShotLayer(layer string) string { return "&sl " + layer }

// bluetoothAction maps NXT, PRV, CLR and SEL_N onto the bt.h names.
func (zmkBackend) bluetoothAction(action string) string {
	a := strings.TrimPrefix(strings.ToUpper(action), "BT_")
	if n, ok := strings.CutPrefix(a, "SEL_"); ok {
		return "BT_SEL " + n
	}
	if n, ok := strings.CutPrefix(a, "DISC_"); ok {
		return "BT_DISC " + n
	}
	return "BT_" + a
}
