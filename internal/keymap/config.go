package keymap

import (
	"maps"
	"slices"
)

// Combo is a chord of canonical positions triggering an action.
type Combo struct {
	Name               string   `yaml:"name"`
	Positions          []int    `yaml:"key_positions"`
	Action             string   `yaml:"action,omitempty"`
	MacroText          *string  `yaml:"macro_text,omitempty"`
	Layers             []string `yaml:"layers,omitempty"`
	TimeoutMs          int      `yaml:"timeout_ms,omitempty"`
	RequirePriorIdleMs int      `yaml:"require_prior_idle_ms,omitempty"`
	SlowRelease        bool     `yaml:"slow_release,omitempty"`
}

// IsMacro reports whether the combo types text instead of a key.
func (c Combo) IsMacro() bool { return c.MacroText != nil }

// TranslatedCombo is a combo with positions in a board's physical numbering.
type TranslatedCombo struct {
	Combo
	Physical []int
}

// Alternate is the output of a magic trigger: a key or literal text.
type Alternate struct {
	Key  string
	Text string
}

func (a Alternate) IsText() bool { return a.Text != "" }

func (a Alternate) String() string {
	if a.IsText() {
		return a.Text
	}
	return a.Key
}

// MagicEntry is one predecessor -> alternate rule.
type MagicEntry struct {
	Predecessor string
	Alternate   Alternate
}

// MagicKeyMapping is the adaptive-key configuration of one base layer.
type MagicKeyMapping struct {
	BaseLayer string
	Entries   []MagicEntry
	Default   string
	TimeoutMs int
}

// HoldTapTiming tunes one hold-tap behavior.
type HoldTapTiming struct {
	TappingTermMs      int    `yaml:"tapping_term_ms"`
	QuickTapMs         int    `yaml:"quick_tap_ms"`
	RequirePriorIdleMs int    `yaml:"require_prior_idle_ms"`
	Flavor             string `yaml:"flavor"`
}

// Config is the whole in-memory keymap configuration.
type Config struct {
	Layers   []Layer
	Boards   []Board
	Aliases  map[string]BehaviorAlias
	Keycodes *KeycodeTable
	Combos   []Combo
	Magic    []MagicKeyMapping
	HoldTaps map[string]HoldTapTiming
	// Overlays holds per-board overlay layers keyed by board id.
	Overlays map[string][]Layer
}

// Layer returns the named layer.
func (c *Config) Layer(name string) (*Layer, bool) {
	i := c.LayerIndex(name)
	if i < 0 {
		return nil, false
	}
	return &c.Layers[i], true
}

// LayerIndex returns the declared position of a layer, or -1.
func (c *Config) LayerIndex(name string) int {
	return slices.IndexFunc(c.Layers, func(l Layer) bool { return l.Name == name })
}

func (c *Config) LayerNames() []string {
	out := make([]string, len(c.Layers))
	for i, l := range c.Layers {
		out[i] = l.Name
	}
	return out
}

// Board returns the board with the given id.
func (c *Config) Board(id string) (*Board, bool) {
	for i := range c.Boards {
		if c.Boards[i].ID == id {
			return &c.Boards[i], true
		}
	}
	return nil, false
}

// MagicFor returns the mapping owned by a base layer.
func (c *Config) MagicFor(base string) (*MagicKeyMapping, bool) {
	for i := range c.Magic {
		if c.Magic[i].BaseLayer == base {
			return &c.Magic[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := &Config{
		Layers:   make([]Layer, len(c.Layers)),
		Boards:   make([]Board, len(c.Boards)),
		Aliases:  make(map[string]BehaviorAlias, len(c.Aliases)),
		Keycodes: c.Keycodes.Clone(),
		Combos:   make([]Combo, len(c.Combos)),
		Magic:    make([]MagicKeyMapping, len(c.Magic)),
		HoldTaps: maps.Clone(c.HoldTaps),
	}
	for i, l := range c.Layers {
		out.Layers[i] = l.Clone()
	}
	for i, b := range c.Boards {
		b.ExtraLayers = slices.Clone(b.ExtraLayers)
		out.Boards[i] = b
	}
	for k, a := range c.Aliases {
		a.Params = slices.Clone(a.Params)
		a.Firmware = maps.Clone(a.Firmware)
		out.Aliases[k] = a
	}
	for i, cb := range c.Combos {
		cb.Positions = slices.Clone(cb.Positions)
		cb.Layers = slices.Clone(cb.Layers)
		if cb.MacroText != nil {
			txt := *cb.MacroText
			cb.MacroText = &txt
		}
		out.Combos[i] = cb
	}
	for i, m := range c.Magic {
		m.Entries = slices.Clone(m.Entries)
		out.Magic[i] = m
	}
	if c.Overlays != nil {
		out.Overlays = make(map[string][]Layer, len(c.Overlays))
		for id, layers := range c.Overlays {
			cl := make([]Layer, len(layers))
			for i, l := range layers {
				cl[i] = l.Clone()
			}
			out.Overlays[id] = cl
		}
	}
	return out
}

// CompiledLayer is a layer lowered for one board. Keycodes and Tokens are in
// the board's physical order.
type CompiledLayer struct {
	Name     string
	Board    string
	Firmware Firmware
	Keycodes []string
	// Tokens holds the source expressions after reference resolution.
	Tokens []string
}

// WithKeycodes returns a copy with replaced keycodes.
func (c CompiledLayer) WithKeycodes(kc []string) CompiledLayer {
	c.Keycodes = kc
	c.Tokens = slices.Clone(c.Tokens)
	return c
}
