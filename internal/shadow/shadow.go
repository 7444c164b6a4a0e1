// Package shadow synthesizes one-shot shadow layers.
//
// A one-shot layer switch into a layer declared at or before the source
// layer cannot work on layer-stack firmwares: the lower-priority target is
// masked by the active source. For every such target a clone named
// TARGET_SHADOW is appended after all layers and the offending references
// are redirected to it.
package shadow

import (
	"fmt"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/translate"
)

// Suffix is appended to a target name to form its shadow.
const Suffix = "_SHADOW"

// Synthesize returns a new configuration with shadow layers added and
// one-shot references rewritten. The input is never modified. Layers that
// are already shadows are neither scanned nor rewritten, so running it on
// its own output adds nothing.
func Synthesize(cfg *keymap.Config) (*keymap.Config, error) {
	out := cfg.Clone()

	priority := map[string]int{}
	for i, l := range out.Layers {
		if !l.IsShadow() {
			priority[l.Name] = i
		}
	}
	declared := func(name string) bool { return out.LayerIndex(name) >= 0 }

	needs := map[string]bool{}
	for _, l := range out.Layers {
		if l.IsShadow() {
			continue
		}
		var scanErr error
		l.Tokens(func(t keymap.Token) {
			if scanErr != nil || t.IsRef || !translate.IsOneShot(t.Key) {
				return
			}
			target, ok := translate.OneShotTarget(t.Key)
			if !ok {
				scanErr = keymap.LayerError(keymap.ErrInvalidAliasArity, l.Name, fmt.Sprintf("malformed one-shot %q", t.Key))
				return
			}
			if !declared(target) {
				scanErr = &keymap.Error{Layer: l.Name, Position: -1, Token: t.Key, Err: keymap.ErrUnknownLayer}
				return
			}
			if p, ok := priority[target]; ok && p <= priority[l.Name] {
				needs[target] = true
			}
		})
		if scanErr != nil {
			return nil, scanErr
		}
	}
	if len(needs) == 0 {
		return out, nil
	}

	originals := len(out.Layers)
	for i := 0; i < originals; i++ {
		target := out.Layers[i]
		if !needs[target.Name] {
			continue
		}
		name := target.Name + Suffix
		if declared(name) {
			return nil, &keymap.Error{
				Layer:    target.Name,
				Position: -1,
				Detail:   fmt.Sprintf("shadow layer %s already declared", name),
				Err:      keymap.ErrNameCollision,
			}
		}
		sh := target.Renamed(name)
		sh.ShadowOf = target.Name
		out.Layers = append(out.Layers, sh)
	}

	for i := 0; i < originals; i++ {
		src := out.Layers[i]
		if src.IsShadow() {
			continue
		}
		out.Layers[i] = src.MapTokens(func(t keymap.Token) keymap.Token {
			if t.IsRef {
				return t
			}
			target, ok := translate.OneShotTarget(t.Key)
			if !ok || !needs[target] {
				return t
			}
			if p, ok := priority[target]; ok && p <= priority[src.Name] {
				return keymap.Key(translate.AliasOneShotLayer + ":" + target + Suffix)
			}
			return t
		})
	}
	return out, nil
}
