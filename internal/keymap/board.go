package keymap

import (
	"fmt"
	"slices"
)

// Firmware identifies a target firmware ecosystem.
type Firmware string

const (
	QMK Firmware = "qmk"
	ZMK Firmware = "zmk"
)

var Firmwares = []Firmware{QMK, ZMK}

func ParseFirmware(s string) (Firmware, error) {
	switch f := Firmware(s); f {
	case QMK, ZMK:
		return f, nil
	}
	return "", fmt.Errorf("unknown firmware %q", s)
}

// Board describes one physical keyboard target.
type Board struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Firmware    Firmware `yaml:"firmware"`
	LayoutSize  string   `yaml:"layout_size"`
	ExtraLayers []string `yaml:"extra_layers,omitempty"`
	// KeymapFile names a board overlay keymap merged over the shared one.
	KeymapFile string `yaml:"keymap_file,omitempty"`

	QMKKeyboard string `yaml:"qmk_keyboard,omitempty"`
	QMKLayout   string `yaml:"qmk_layout,omitempty"`
	ZMKShield   string `yaml:"zmk_shield,omitempty"`
	ZMKBoard    string `yaml:"zmk_board,omitempty"`
	OutputDir   string `yaml:"output_dir,omitempty"`
}

// HasOverlay reports whether the board carries a custom keymap overlay.
func (b *Board) HasOverlay() bool { return b.KeymapFile != "" }

// Whitelists reports whether the board explicitly asks for a layer.
func (b *Board) Whitelists(layer string) bool {
	return slices.Contains(b.ExtraLayers, layer)
}

// Target returns the firmware-specific identifier of the board.
func (b *Board) Target() string {
	switch b.Firmware {
	case QMK:
		return b.QMKKeyboard
	case ZMK:
		if b.ZMKShield != "" {
			return b.ZMKShield
		}
		return b.ZMKBoard
	}
	return ""
}
