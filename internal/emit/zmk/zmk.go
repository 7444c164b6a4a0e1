// Package zmk renders a compiled board as a ZMK devicetree keymap.
//
// Every auxiliary behavior a board's layers reference is declared exactly
// once: home-row mods per hand, shift-morphs, adaptive keys, training
// guards, magic hold-taps and text macros.
package zmk

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/kforge/keyforge/internal/compiler"
	"github.com/kforge/keyforge/internal/emit/common"
	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
	"github.com/kforge/keyforge/internal/magic"
	"github.com/kforge/keyforge/internal/translate"
)

// Extension is the suffix of the generated file.
const Extension = ".keymap"

// macroKeysPerLine bounds the &macro_tap groups of a text macro.
const macroKeysPerLine = 10

var funcs = template.FuncMap{
	"join": strings.Join,
}

var keymapT = template.Must(template.New("keymap").Funcs(funcs).Parse(keymapTmpl))

// defaultTimings apply where hold_taps leaves a field unset.
var defaultTimings = map[translate.HoldKind]keymap.HoldTapTiming{
	translate.HoldHML: {TappingTermMs: 280, QuickTapMs: 175, RequirePriorIdleMs: 150, Flavor: "balanced"},
	translate.HoldHMR: {TappingTermMs: 280, QuickTapMs: 175, RequirePriorIdleMs: 150, Flavor: "balanced"},
	translate.HoldLT:  {TappingTermMs: 200, Flavor: "balanced"},
	translate.HoldMT:  {TappingTermMs: 200, Flavor: "hold-preferred"},
}

type defineView struct {
	Name  string
	Index int
}

type overrideView struct {
	Name  string
	Props []string
}

type comboView struct {
	Name               string
	TimeoutMs          int
	Positions          string
	Binding            string
	Layers             string
	RequirePriorIdleMs int
	SlowRelease        bool
}

type macroView struct {
	Name  string
	Lines []string
}

type holdTapView struct {
	Name     string
	Props    []string
	Bindings string
}

type morphView struct {
	Name, Base, Shifted string
}

type triggerView struct {
	Node    string
	Keys    string
	Binding string
	Strict  bool
	IdleMs  int
}

type adaptiveView struct {
	Name     string
	Default  string
	Triggers []triggerView
}

type layerView struct {
	Node string
	Name string
	Rows []string
}

type view struct {
	Banner        string
	Board         keymap.Board
	Defines       []defineView
	Overrides     []overrideView
	Combos        []comboView
	Macros        []macroView
	HomeRowMods   []holdTapView
	ModMorphs     []morphView
	Adaptive      []adaptiveView
	Guards        []adaptiveView
	Helpers       []holdTapView
	TrainingHolds []holdTapView
	HasBehaviors  bool
	Layers        []layerView
}

// FileName is the keymap file of a board: its shield, or its board when it
// has no shield, or its id.
func FileName(b keymap.Board) string {
	name := b.Target()
	if name == "" {
		name = b.ID
	}
	return name + Extension
}

// Render produces the .keymap file of a ZMK board.
func Render(res *compiler.BoardResult) (map[string][]byte, error) {
	if res.Board.Firmware != keymap.ZMK {
		return nil, fmt.Errorf("board %s: zmk renderer cannot emit %s", res.Board.ID, res.Board.Firmware)
	}
	v, err := build(res)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", res.Board.ID, err)
	}
	var buf bytes.Buffer
	if err := keymapT.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("exec keymap tmpl: %w", err)
	}
	return map[string][]byte{FileName(res.Board): buf.Bytes()}, nil
}

func build(res *compiler.BoardResult) (*view, error) {
	v := &view{Banner: common.Banner(), Board: res.Board}
	for i, l := range res.Layers {
		v.Defines = append(v.Defines, defineView{Name: l.Name, Index: i})
		v.Layers = append(v.Layers, layerView{
			Node: common.Ident(l.Name) + "_layer",
			Name: l.Name,
			Rows: common.Align(res.Layout.Rows(l.Keycodes), "  "),
		})
	}
	for _, kind := range []translate.HoldKind{translate.HoldLT, translate.HoldMT} {
		if t, ok := res.HoldTaps[string(kind)]; ok {
			if props := timingProps(t); len(props) > 0 {
				v.Overrides = append(v.Overrides, overrideView{Name: string(kind), Props: props})
			}
		}
	}

	names := res.LayerNames()
	for _, c := range res.Combos {
		cv := comboView{
			Name:               common.Ident(c.Name),
			TimeoutMs:          c.TimeoutMs,
			Positions:          ints(c.Physical),
			Binding:            c.Binding,
			RequirePriorIdleMs: c.RequirePriorIdleMs,
			SlowRelease:        c.SlowRelease,
		}
		var layers []string
		for _, i := range c.LayerIndices {
			layers = append(layers, names[i])
		}
		cv.Layers = strings.Join(layers, " ")
		v.Combos = append(v.Combos, cv)
		if c.Macro != nil {
			v.Macros = append(v.Macros, macroOf(*c.Macro))
		}
	}

	if res.Usage != nil {
		for _, side := range []layout.Side{layout.Left, layout.Right} {
			if !res.Usage.Sides[side] {
				continue
			}
			kind := translate.HoldHML
			if side == layout.Right {
				kind = translate.HoldHMR
			}
			v.HomeRowMods = append(v.HomeRowMods, holdTapView{
				Name:     string(kind),
				Props:    holdProps(res, kind),
				Bindings: "<&kp>, <&kp>",
			})
		}
		for _, u := range res.Usage.ShiftMorphs {
			base, err := res.Translator.Binding(u.Base)
			if err != nil {
				return nil, err
			}
			shifted, err := res.Translator.Binding(u.Shifted)
			if err != nil {
				return nil, err
			}
			v.ModMorphs = append(v.ModMorphs, morphView{Name: u.Name, Base: base, Shifted: shifted})
		}
	}

	v.magic(res)
	v.HasBehaviors = len(v.HomeRowMods) > 0 || len(v.ModMorphs) > 0 || len(v.Adaptive) > 0 ||
		len(v.Guards) > 0 || len(v.Helpers) > 0 || len(v.TrainingHolds) > 0
	return v, nil
}

func (v *view) magic(res *compiler.BoardResult) {
	p := res.Magic
	if p.Empty() {
		return
	}
	for _, a := range p.Adaptive {
		av := adaptiveView{Name: a.Name, Default: a.Default}
		for _, t := range a.Triggers {
			av.Triggers = append(av.Triggers, triggerView{
				Node:    t.Name + "_trigger",
				Keys:    t.Key,
				Binding: t.Binding,
				Strict:  t.Strict,
				IdleMs:  a.TimeoutMs,
			})
		}
		v.Adaptive = append(v.Adaptive, av)
	}
	for _, m := range p.Macros {
		v.Macros = append(v.Macros, macroOf(m))
	}
	for _, g := range p.Guards {
		gv := adaptiveView{Name: g.Name, Default: g.Binding}
		if len(g.Loose) > 0 {
			gv.Triggers = append(gv.Triggers, triggerView{
				Node: "guard", Keys: strings.Join(g.Loose, " "), Binding: g.Punish, IdleMs: g.TimeoutMs,
			})
		}
		if len(g.Strict) > 0 {
			gv.Triggers = append(gv.Triggers, triggerView{
				Node: "guard_strict", Keys: strings.Join(g.Strict, " "), Binding: g.Punish, Strict: true, IdleMs: g.TimeoutMs,
			})
		}
		v.Guards = append(v.Guards, gv)
	}

	seen := map[string]bool{}
	for _, u := range p.Holds {
		name := fmt.Sprintf("%s_ak_%s", u.Hold, u.Suffix)
		if seen[name] {
			continue
		}
		seen[name] = true
		hold := "&kp"
		if u.Hold == translate.HoldLT {
			hold = "&mo"
		}
		v.Helpers = append(v.Helpers, holdTapView{
			Name:     name,
			Props:    holdProps(res, u.Hold),
			Bindings: fmt.Sprintf("<%s>, <&ak_%s>", hold, u.Suffix),
		})
	}
	for _, h := range p.HoldTapGuards {
		v.TrainingHolds = append(v.TrainingHolds, holdTapView{
			Name:     h.Name,
			Props:    holdProps(res, h.Hold),
			Bindings: "<&kp>, <&" + h.Guard + ">",
		})
	}
}

// holdProps renders the timing of a hold-tap kind. Home-row mods only
// resolve as holds when the next key is on the other hand or a thumb.
func holdProps(res *compiler.BoardResult, kind translate.HoldKind) []string {
	t := defaultTimings[kind]
	if c, ok := res.HoldTaps[string(kind)]; ok {
		if c.TappingTermMs > 0 {
			t.TappingTermMs = c.TappingTermMs
		}
		if c.QuickTapMs > 0 {
			t.QuickTapMs = c.QuickTapMs
		}
		if c.RequirePriorIdleMs > 0 {
			t.RequirePriorIdleMs = c.RequirePriorIdleMs
		}
		if c.Flavor != "" {
			t.Flavor = c.Flavor
		}
	}
	props := timingProps(t)
	switch kind {
	case translate.HoldHML:
		props = append(props, triggerProps(res.Layout, layout.Left)...)
	case translate.HoldHMR:
		props = append(props, triggerProps(res.Layout, layout.Right)...)
	}
	return props
}

func timingProps(t keymap.HoldTapTiming) []string {
	var props []string
	if t.Flavor != "" {
		props = append(props, "flavor = "+strconv.Quote(t.Flavor))
	}
	if t.TappingTermMs > 0 {
		props = append(props, fmt.Sprintf("tapping-term-ms = <%d>", t.TappingTermMs))
	}
	if t.QuickTapMs > 0 {
		props = append(props, fmt.Sprintf("quick-tap-ms = <%d>", t.QuickTapMs))
	}
	if t.RequirePriorIdleMs > 0 {
		props = append(props, fmt.Sprintf("require-prior-idle-ms = <%d>", t.RequirePriorIdleMs))
	}
	return props
}

func triggerProps(spec *layout.Spec, side layout.Side) []string {
	var pos []int
	for i, sl := range spec.Slots {
		if sl.Thumb || spec.Side(i) != side {
			pos = append(pos, i)
		}
	}
	if len(pos) == 0 {
		return nil
	}
	return []string{
		fmt.Sprintf("hold-trigger-key-positions = <%s>", ints(pos)),
		"hold-trigger-on-release",
	}
}

// macroOf splits a macro's keys into &macro_tap groups.
func macroOf(m magic.Macro) macroView {
	mv := macroView{Name: m.Name}
	for i := 0; i < len(m.Keys); i += macroKeysPerLine {
		var keys []string
		for _, k := range m.Keys[i:min(i+macroKeysPerLine, len(m.Keys))] {
			if k.Shift {
				keys = append(keys, "&kp LS("+k.Key+")")
			} else {
				keys = append(keys, "&kp "+k.Key)
			}
		}
		mv.Lines = append(mv.Lines, "<&macro_tap "+strings.Join(keys, " ")+">")
	}
	return mv
}

func ints(xs []int) string {
	s := make([]string, len(xs))
	for i, x := range xs {
		s[i] = strconv.Itoa(x)
	}
	return strings.Join(s, " ")
}
