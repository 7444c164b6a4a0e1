// Package testing holds keymap fixtures shared by package tests.
package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/translate"
)

// Override places a token at a canonical position.
type Override struct {
	Pos   int
	Token string
}

func At(pos int, token string) Override { return Override{Pos: pos, Token: token} }

// Core returns a 36-key core filled with fill, with overrides applied.
func Core(fill string, overrides ...Override) *keymap.KeyGrid {
	flat := make([]string, keymap.CoreKeys)
	for i := range flat {
		flat[i] = fill
	}
	for _, o := range overrides {
		flat[o.Pos] = o.Token
	}
	return keymap.Grid(flat[0:10], flat[10:20], flat[20:30], flat[30:36])
}

// CoreLayer returns a core-only layer.
func CoreLayer(name, fill string, overrides ...Override) keymap.Layer {
	return keymap.Layer{Name: name, Core: Core(fill, overrides...)}
}

// Pinky returns a 3x6_3 extension with every outer pinky key set to key.
func Pinky(left, right string) map[string]keymap.LayerExtension {
	return map[string]keymap.LayerExtension{
		"3x6_3": {Keys: map[string][]keymap.Token{
			"outer_pinky_left":  {keymap.Key(left), keymap.Key(left), keymap.Key(left)},
			"outer_pinky_right": {keymap.Key(right), keymap.Key(right), keymap.Key(right)},
		}},
	}
}

// Config wraps layers with the built-in keycodes and aliases.
func Config(layers ...keymap.Layer) *keymap.Config {
	return &keymap.Config{
		Layers:   layers,
		Aliases:  translate.DefaultAliases(),
		Keycodes: keymap.NewKeycodeTable(translate.DefaultKeycodes()),
	}
}

// Board returns a board descriptor for a layout size.
func Board(id string, fw keymap.Firmware, layoutSize string) keymap.Board {
	return keymap.Board{
		ID:          id,
		Name:        id,
		Firmware:    fw,
		LayoutSize:  layoutSize,
		QMKKeyboard: "test/" + id,
		QMKLayout:   "LAYOUT_split_3x5_3",
		ZMKShield:   id,
	}
}

// WriteFiles writes name -> content pairs below a fresh temp dir.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
