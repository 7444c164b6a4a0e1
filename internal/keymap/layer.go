package keymap

import (
	"fmt"
	"maps"
	"slices"
)

// LayerExtension holds the named key lists of one extension type, e.g.
// outer_pinky_left and outer_pinky_right for the 3x6_3 extension.
type LayerExtension struct {
	Keys map[string][]Token `yaml:"keys"`
}

func (e LayerExtension) Clone() LayerExtension {
	out := LayerExtension{Keys: make(map[string][]Token, len(e.Keys))}
	for k, v := range e.Keys {
		out.Keys[k] = append([]Token(nil), v...)
	}
	return out
}

// Layer is one logical layer of the keymap.
//
// A layer is authored either as a 36-key core or as a full physical layout.
// A full layout may also carry a core, in which case the core only serves its
// canonical references.
type Layer struct {
	Name       string                    `yaml:"name"`
	Core       *KeyGrid                  `yaml:"core,omitempty"`
	FullLayout *KeyGrid                  `yaml:"full_layout,omitempty"`
	Extensions map[string]LayerExtension `yaml:"extensions,omitempty"`
	// Family names the base layer whose magic-key configuration applies to
	// this layer.
	Family string `yaml:"family,omitempty"`
	// ShadowOf is set on synthesized one-shot shadow layers.
	ShadowOf string `yaml:"-"`
}

// IsShadow reports whether the layer was synthesized as a one-shot shadow.
func (l *Layer) IsShadow() bool { return l.ShadowOf != "" }

// Validate checks the structural invariants of an authored layer.
func (l *Layer) Validate() error {
	if l.Name == "" {
		return LayerError(ErrUnknownLayer, "", "layer without name")
	}
	if l.Core == nil && l.FullLayout == nil {
		return LayerError(ErrKeyCount, l.Name, "layer needs core or full_layout")
	}
	if l.Core != nil {
		if err := l.Core.ValidateCore(); err != nil {
			return Locate(err, "", l.Name, -1)
		}
	}
	return nil
}

// Tokens calls fn for every token of the layer: core, full layout, and every
// extension list in sorted list order.
func (l *Layer) Tokens(fn func(Token)) {
	for _, t := range l.Core.Flatten() {
		fn(t)
	}
	for _, t := range l.FullLayout.Flatten() {
		fn(t)
	}
	for _, ext := range sortedKeys(l.Extensions) {
		e := l.Extensions[ext]
		for _, list := range sortedKeys(e.Keys) {
			for _, t := range e.Keys[list] {
				fn(t)
			}
		}
	}
}

// MapTokens returns a copy of the layer with fn applied to every token.
func (l Layer) MapTokens(fn func(Token) Token) Layer {
	out := l.Clone()
	out.Core = l.Core.Map(fn)
	out.FullLayout = l.FullLayout.Map(fn)
	for ext, e := range out.Extensions {
		for list, toks := range e.Keys {
			for i := range toks {
				toks[i] = fn(toks[i])
			}
			e.Keys[list] = toks
		}
		out.Extensions[ext] = e
	}
	return out
}

// Clone returns a copy that shares no mutable state with l.
func (l Layer) Clone() Layer {
	out := l
	out.Core = l.Core.Clone()
	out.FullLayout = l.FullLayout.Clone()
	if l.Extensions != nil {
		out.Extensions = make(map[string]LayerExtension, len(l.Extensions))
		for k, v := range l.Extensions {
			out.Extensions[k] = v.Clone()
		}
	}
	return out
}

// Renamed returns a clone under a new name.
func (l Layer) Renamed(name string) Layer {
	out := l.Clone()
	out.Name = name
	return out
}

func (l Layer) String() string {
	src := "core"
	if l.FullLayout != nil {
		src = "full_layout"
	}
	return fmt.Sprintf("%s(%s)", l.Name, src)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
