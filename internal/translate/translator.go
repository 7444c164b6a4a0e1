// Package translate lowers key expressions into QMK or ZMK bindings.
//
// A Translator is stateless: everything a board's emitter later needs to
// declare (home-row mod sides, shift-morph pairs, magic hold-taps) is
// recorded into the Accumulator passed to each call.
package translate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
)

// Context locates a token on a board.
type Context struct {
	Layer    string
	Position int
	Layout   *layout.Spec
}

// Tables is the read-only data a translator consults.
type Tables struct {
	Keycodes *keymap.KeycodeTable
	Aliases  map[string]keymap.BehaviorAlias
	Layers   map[string]bool
	// Families maps a layer to its declared base-layer family.
	Families map[string]string
	// Magic holds the base layers owning a magic-key mapping.
	Magic map[string]bool
}

// NewTables indexes a configuration for translation.
func NewTables(cfg *keymap.Config) *Tables {
	t := &Tables{
		Keycodes: cfg.Keycodes,
		Aliases:  cfg.Aliases,
		Layers:   map[string]bool{},
		Families: map[string]string{},
		Magic:    map[string]bool{},
	}
	if t.Keycodes == nil {
		t.Keycodes = keymap.NewKeycodeTable(DefaultKeycodes())
	}
	if t.Aliases == nil {
		t.Aliases = DefaultAliases()
	}
	for _, l := range cfg.Layers {
		t.Layers[l.Name] = true
		if l.Family != "" {
			t.Families[l.Name] = l.Family
		}
	}
	for _, m := range cfg.Magic {
		t.Magic[m.BaseLayer] = true
	}
	return t
}

// Family resolves the base-layer family of a layer: the layer itself when it
// owns a magic mapping, otherwise its declared family when that family owns
// one. Empty when nothing resolves.
func (t *Tables) Family(layer string) string {
	if t.Magic[layer] {
		return layer
	}
	if f := t.Families[layer]; f != "" && t.Magic[f] {
		return f
	}
	return ""
}

// FamilySuffix derives the behavior-name suffix of a family: BASE_NIGHT
// becomes night.
func FamilySuffix(family string) string {
	return strings.TrimPrefix(strings.ToLower(family), "base_")
}

// Translator renders tokens for one firmware.
type Translator interface {
	Firmware() keymap.Firmware
	// Translate renders a layer token at a board position.
	Translate(token string, ctx Context, acc *Accumulator) (string, error)
	// Resolve finds a keycode by name, KC_ name, or produced character.
	Resolve(key string) (keymap.Keycode, error)
	// Binding renders a key (name or character) as a full binding.
	Binding(key string) (string, error)
	// KeyParam renders a key as a behavior parameter.
	KeyParam(key string) (string, error)
	// Inert is the firmware's no-op binding.
	Inert() string
	Tables() *Tables
}

type backend interface {
	firmware() keymap.Firmware
	inert() string
	keyParam(binding string) (string, bool)
	modParam(m Modifier) string
	magic(suffix string) string
	magicHold(hold HoldKind, arg, suffix string) string
	homeRowMod(side layout.Side, m Modifier, key string) string
	layerTap(layer, key string) string
	modTap(m Modifier, key string) string
	shiftMorphName(base, shifted string) string
	shiftMorphRef(name string) string
	defaultLayer(layer string) string
	oneShotLayer(layer string) string
	bluetoothAction(action string) string
}

type translator struct {
	t  *Tables
	be backend
}

// New returns the translator for a firmware.
func New(f keymap.Firmware, t *Tables) (Translator, error) {
	switch f {
	case keymap.QMK:
		return NewQMK(t), nil
	case keymap.ZMK:
		return NewZMK(t), nil
	}
	return nil, fmt.Errorf("no translator for firmware %q", f)
}

func NewQMK(t *Tables) Translator { return &translator{t: t, be: qmkBackend{}} }

func NewZMK(t *Tables) Translator { return &translator{t: t, be: zmkBackend{}} }

func (tr *translator) Firmware() keymap.Firmware { return tr.be.firmware() }
func (tr *translator) Inert() string             { return tr.be.inert() }
func (tr *translator) Tables() *Tables           { return tr.t }

func (tr *translator) Translate(token string, ctx Context, acc *Accumulator) (string, error) {
	e, err := Parse(token, tr.t.Aliases)
	if err != nil {
		return "", err
	}
	switch e := e.(type) {
	case Primitive:
		return tr.primitive(e.Name)
	case Magic:
		return tr.magic(ctx, HoldNone, "", acc), nil
	case HomeRowMod:
		mod, err := ParseModifier(e.Mod)
		if err != nil {
			return "", withToken(err, token)
		}
		side := ctx.Layout.Side(ctx.Position)
		acc.side(side)
		if e.Key == MagicToken {
			hold := HoldHML
			if side == layout.Right {
				hold = HoldHMR
			}
			return tr.magic(ctx, hold, tr.be.modParam(mod), acc), nil
		}
		key, err := tr.keyParam(e.Key)
		if err != nil {
			return "", withToken(err, token)
		}
		return tr.be.homeRowMod(side, mod, key), nil
	case LayerTap:
		if err := tr.layer(e.Layer, token); err != nil {
			return "", err
		}
		if e.Key == MagicToken {
			return tr.magic(ctx, HoldLT, e.Layer, acc), nil
		}
		key, err := tr.keyParam(e.Key)
		if err != nil {
			return "", withToken(err, token)
		}
		return tr.be.layerTap(e.Layer, key), nil
	case ModTap:
		mod, err := ParseModifier(e.Mod)
		if err != nil {
			return "", withToken(err, token)
		}
		if e.Key == MagicToken {
			return tr.magic(ctx, HoldMT, tr.be.modParam(mod), acc), nil
		}
		key, err := tr.keyParam(e.Key)
		if err != nil {
			return "", withToken(err, token)
		}
		return tr.be.modTap(mod, key), nil
	case ShiftMorph:
		for _, k := range []string{e.Base, e.Shifted} {
			if _, ok := tr.t.Keycodes.Lookup(k); !ok {
				return "", keymap.TokenError(keymap.ErrUnknownKeycode, token, fmt.Sprintf("shift-morph key %q", k))
			}
		}
		name := tr.be.shiftMorphName(e.Base, e.Shifted)
		acc.shiftMorph(ShiftMorphUse{Base: e.Base, Shifted: e.Shifted, Name: name})
		return tr.be.shiftMorphRef(name), nil
	case DefaultLayer:
		if err := tr.layer(e.Layer, token); err != nil {
			return "", err
		}
		return tr.be.defaultLayer(e.Layer), nil
	case OneShotLayer:
		if err := tr.layer(e.Layer, token); err != nil {
			return "", err
		}
		return tr.be.oneShotLayer(e.Layer), nil
	case Bluetooth:
		target := e.Alias.Target(tr.Firmware())
		if !target.Supported {
			return tr.Inert(), nil
		}
		return tr.render(e.Alias, target.Template, []string{tr.be.bluetoothAction(e.Action)}, token)
	case Generic:
		for i, p := range e.Alias.Params {
			if strings.EqualFold(p, "layer") {
				if err := tr.layer(e.Args[i], token); err != nil {
					return "", err
				}
			}
		}
		target := e.Alias.Target(tr.Firmware())
		if !target.Supported {
			return tr.Inert(), nil
		}
		return tr.render(e.Alias, target.Template, e.Args, token)
	}
	return "", keymap.TokenError(keymap.ErrUnknownKeycode, token, "unhandled expression")
}

// render fills an alias template. Parameters named key and mod are rendered
// for the firmware; everything else is substituted verbatim.
func (tr *translator) render(alias keymap.BehaviorAlias, tmpl string, args []string, token string) (string, error) {
	pairs := make([]string, 0, 2*len(args))
	for i, p := range alias.Params {
		v := args[i]
		switch strings.ToLower(p) {
		case "key":
			k, err := tr.keyParam(v)
			if err != nil {
				return "", withToken(err, token)
			}
			v = k
		case "mod":
			m, err := ParseModifier(v)
			if err != nil {
				return "", withToken(err, token)
			}
			v = tr.be.modParam(m)
		}
		pairs = append(pairs, "{"+p+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

func (tr *translator) layer(name, token string) error {
	if !tr.t.Layers[name] {
		return keymap.TokenError(keymap.ErrUnknownLayer, token, fmt.Sprintf("layer %q is not declared", name))
	}
	return nil
}

func (tr *translator) magic(ctx Context, hold HoldKind, arg string, acc *Accumulator) string {
	fam := tr.t.Family(ctx.Layer)
	if fam == "" {
		return tr.Inert()
	}
	suffix := FamilySuffix(fam)
	var ref string
	if hold == HoldNone {
		ref = tr.be.magic(suffix)
	} else {
		ref = tr.be.magicHold(hold, arg, suffix)
	}
	acc.magic(MagicUse{Family: fam, Suffix: suffix, Hold: hold, Arg: arg, Ref: ref})
	return ref
}

func (tr *translator) primitive(name string) (string, error) {
	k, ok := tr.t.Keycodes.Lookup(name)
	if !ok {
		return "", keymap.TokenError(keymap.ErrUnknownKeycode, name, "")
	}
	if b := k.For(tr.Firmware()); b != "" {
		return b, nil
	}
	return tr.Inert(), nil
}

func (tr *translator) keyParam(name string) (string, error) {
	b, err := tr.primitive(name)
	if err != nil {
		return "", err
	}
	p, ok := tr.be.keyParam(b)
	if !ok {
		return "", keymap.TokenError(keymap.ErrUnknownKeycode, name, fmt.Sprintf("%s cannot be a tap key", b))
	}
	return p, nil
}

func (tr *translator) Resolve(key string) (keymap.Keycode, error) {
	kt := tr.t.Keycodes
	if k, ok := kt.Lookup(key); ok {
		return k, nil
	}
	if s, ok := strings.CutPrefix(key, "KC_"); ok {
		if k, ok := kt.Lookup(s); ok {
			return k, nil
		}
	}
	if len([]rune(key)) == 1 {
		if k, ok := kt.ByChar(key); ok {
			return k, nil
		}
		if k, ok := kt.Lookup(strings.ToUpper(key)); ok {
			return k, nil
		}
	}
	return keymap.Keycode{}, keymap.TokenError(keymap.ErrUnknownKeycode, key, "")
}

func (tr *translator) Binding(key string) (string, error) {
	k, err := tr.Resolve(key)
	if err != nil {
		return "", err
	}
	if b := k.For(tr.Firmware()); b != "" {
		return b, nil
	}
	return tr.Inert(), nil
}

func (tr *translator) KeyParam(key string) (string, error) {
	k, err := tr.Resolve(key)
	if err != nil {
		return "", err
	}
	return tr.keyParam(k.Name)
}

// withToken names the whole token on an error raised for one of its parameters.
func withToken(err error, token string) error {
	var ke *keymap.Error
	if !errors.As(err, &ke) {
		return keymap.TokenError(keymap.ErrUnknownKeycode, token, err.Error())
	}
	out := *ke
	if out.Token != "" && out.Token != token {
		inner := fmt.Sprintf("parameter %q", out.Token)
		if out.Detail != "" {
			inner += ": " + out.Detail
		}
		out.Detail = inner
	}
	out.Token = token
	return &out
}
