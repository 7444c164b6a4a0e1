package translate

import (
	"fmt"
	"strings"

	"github.com/kforge/keyforge/internal/keymap"
)

// MagicToken is the adaptive-repeat sentinel.
const MagicToken = "MAGIC"

// Expr is a parsed key expression. The set of implementations is closed.
type Expr interface{ expr() }

type (
	// Primitive is a plain keycode name looked up in the keycode table.
	Primitive struct{ Name string }
	// Magic is the adaptive-repeat key of the layer's family.
	Magic struct{}
	// HomeRowMod is hrm:MOD:KEY, rendered per hand.
	HomeRowMod struct{ Mod, Key string }
	// LayerTap is lt:LAYER:KEY.
	LayerTap struct{ Layer, Key string }
	// ModTap is mt:MOD:KEY.
	ModTap struct{ Mod, Key string }
	// ShiftMorph is sm:BASE:SHIFTED.
	ShiftMorph struct{ Base, Shifted string }
	// DefaultLayer is df:LAYER.
	DefaultLayer struct{ Layer string }
	// OneShotLayer is osl:LAYER.
	OneShotLayer struct{ Layer string }
	// Bluetooth is bt:ACTION.
	Bluetooth struct {
		Alias  keymap.BehaviorAlias
		Action string
	}
	// Generic is any other declared alias, rendered from its template.
	Generic struct {
		Alias keymap.BehaviorAlias
		Args  []string
	}
)

func (Primitive) expr()    {}
func (Magic) expr()        {}
func (HomeRowMod) expr()   {}
func (LayerTap) expr()     {}
func (ModTap) expr()       {}
func (ShiftMorph) expr()   {}
func (DefaultLayer) expr() {}
func (OneShotLayer) expr() {}
func (Bluetooth) expr()    {}
func (Generic) expr()      {}

// Alias names with dedicated rendering.
const (
	AliasHomeRowMod   = "hrm"
	AliasLayerTap     = "lt"
	AliasModTap       = "mt"
	AliasShiftMorph   = "sm"
	AliasDefaultLayer = "df"
	AliasOneShotLayer = "osl"
	AliasBluetooth    = "bt"
)

// builtinArity is the fixed parameter count of the aliases Parse decodes
// into dedicated expressions.
var builtinArity = map[string]int{
	AliasHomeRowMod:   2,
	AliasLayerTap:     2,
	AliasModTap:       2,
	AliasShiftMorph:   2,
	AliasDefaultLayer: 1,
	AliasOneShotLayer: 1,
	AliasBluetooth:    1,
}

// BuiltinArity reports the fixed arity of an alias with dedicated rendering.
func BuiltinArity(name string) (int, bool) {
	n, ok := builtinArity[name]
	return n, ok
}

// Parse splits a token into its expression. Alias names must be declared and
// called with their declared arity.
func Parse(token string, aliases map[string]keymap.BehaviorAlias) (Expr, error) {
	if token == "" {
		return nil, keymap.TokenError(keymap.ErrUnknownKeycode, token, "empty token")
	}
	name, rest, isAlias := strings.Cut(token, ":")
	if !isAlias {
		if token == MagicToken {
			return Magic{}, nil
		}
		return Primitive{Name: token}, nil
	}
	alias, ok := aliases[name]
	if !ok {
		return nil, keymap.TokenError(keymap.ErrUnknownKeycode, token, fmt.Sprintf("undeclared alias %q", name))
	}
	if n, ok := builtinArity[name]; ok && alias.Arity() != n {
		return nil, keymap.TokenError(keymap.ErrInvalidAliasArity, token,
			fmt.Sprintf("built-in alias %s takes %d parameters, redeclared with %d", name, n, alias.Arity()))
	}
	args := strings.Split(rest, ":")
	if len(args) != alias.Arity() {
		return nil, keymap.TokenError(keymap.ErrInvalidAliasArity, token,
			fmt.Sprintf("%s takes %d parameters (%s), got %d", name, alias.Arity(), strings.Join(alias.Params, ", "), len(args)))
	}
	for _, a := range args {
		if a == "" {
			return nil, keymap.TokenError(keymap.ErrInvalidAliasArity, token, "empty parameter")
		}
	}
	switch name {
	case AliasHomeRowMod:
		return HomeRowMod{Mod: args[0], Key: args[1]}, nil
	case AliasLayerTap:
		return LayerTap{Layer: args[0], Key: args[1]}, nil
	case AliasModTap:
		return ModTap{Mod: args[0], Key: args[1]}, nil
	case AliasShiftMorph:
		return ShiftMorph{Base: args[0], Shifted: args[1]}, nil
	case AliasDefaultLayer:
		return DefaultLayer{Layer: args[0]}, nil
	case AliasOneShotLayer:
		return OneShotLayer{Layer: args[0]}, nil
	case AliasBluetooth:
		return Bluetooth{Alias: alias, Action: args[0]}, nil
	}
	return Generic{Alias: alias, Args: args}, nil
}

// LayerRefs returns the layers an expression switches to or holds.
func LayerRefs(e Expr) []string {
	switch e := e.(type) {
	case LayerTap:
		return []string{e.Layer}
	case DefaultLayer:
		return []string{e.Layer}
	case OneShotLayer:
		return []string{e.Layer}
	case Generic:
		var out []string
		for i, p := range e.Alias.Params {
			if strings.EqualFold(p, "layer") && i < len(e.Args) {
				out = append(out, e.Args[i])
			}
		}
		return out
	}
	return nil
}

// OneShotTarget returns the target layer of an osl:LAYER token.
func OneShotTarget(token string) (string, bool) {
	target, ok := strings.CutPrefix(token, AliasOneShotLayer+":")
	if !ok || target == "" || strings.Contains(target, ":") {
		return "", false
	}
	return target, true
}

// IsOneShot reports whether the token uses the osl alias, well-formed or not.
func IsOneShot(token string) bool {
	return strings.HasPrefix(token, AliasOneShotLayer+":")
}
