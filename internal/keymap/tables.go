package keymap

import (
	"maps"
	"slices"
)

// Keycode is one primitive key name with its per-firmware rendering.
// An empty rendering means the firmware has no such key.
type Keycode struct {
	Name    string `yaml:"-"`
	QMK     string `yaml:"qmk"`
	ZMK     string `yaml:"zmk"`
	Char    string `yaml:"char,omitempty"`
	Display string `yaml:"display_name,omitempty"`
}

// For returns the rendering for f.
func (k Keycode) For(f Firmware) string {
	if f == QMK {
		return k.QMK
	}
	return k.ZMK
}

// KeycodeTable indexes primitive keycodes by name and by produced character.
type KeycodeTable struct {
	byName map[string]Keycode
	byChar map[string]string
}

func NewKeycodeTable(codes map[string]Keycode) *KeycodeTable {
	t := &KeycodeTable{
		byName: make(map[string]Keycode, len(codes)),
		byChar: map[string]string{},
	}
	for _, name := range slices.Sorted(maps.Keys(codes)) {
		t.Add(name, codes[name])
	}
	return t
}

// Add registers (or replaces) a keycode. The first name registered for a
// character wins the character lookup.
func (t *KeycodeTable) Add(name string, k Keycode) {
	k.Name = name
	t.byName[name] = k
	ch := k.Char
	if ch == "" && len([]rune(k.Display)) == 1 {
		ch = k.Display
	}
	if ch != "" {
		if _, ok := t.byChar[ch]; !ok {
			t.byChar[ch] = name
		}
	}
}

func (t *KeycodeTable) Lookup(name string) (Keycode, bool) {
	k, ok := t.byName[name]
	return k, ok
}

// ByChar returns the keycode producing ch.
func (t *KeycodeTable) ByChar(ch string) (Keycode, bool) {
	name, ok := t.byChar[ch]
	if !ok {
		return Keycode{}, false
	}
	return t.byName[name], true
}

func (t *KeycodeTable) Len() int { return len(t.byName) }

// Clone returns an independent copy of the table.
func (t *KeycodeTable) Clone() *KeycodeTable {
	if t == nil {
		return nil
	}
	return &KeycodeTable{byName: maps.Clone(t.byName), byChar: maps.Clone(t.byChar)}
}

// AliasTarget is the rendering of an alias for one firmware.
type AliasTarget struct {
	Supported bool   `yaml:"supported"`
	Template  string `yaml:"template"`
}

// BehaviorAlias is a parameterized key expression `name:p1:p2`.
type BehaviorAlias struct {
	Name     string                   `yaml:"-"`
	Params   []string                 `yaml:"params"`
	Firmware map[Firmware]AliasTarget `yaml:"firmware"`
}

func (a BehaviorAlias) Arity() int { return len(a.Params) }

// Target returns the firmware rendering; unsupported when absent.
func (a BehaviorAlias) Target(f Firmware) AliasTarget {
	return a.Firmware[f]
}
