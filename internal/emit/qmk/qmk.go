// Package qmk renders a compiled board as a QMK userspace keymap: keymap.c
// with its combos, magic keys and macros, plus the matching config.h and
// rules.mk.
package qmk

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/kforge/keyforge/internal/compiler"
	"github.com/kforge/keyforge/internal/emit/common"
	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
	"github.com/kforge/keyforge/internal/translate"
)

const (
	KeymapFile = "keymap.c"
	ConfigFile = "config.h"
	RulesFile  = "rules.mk"
)

// DefaultLayout is the LAYOUT macro used when a board names none.
const DefaultLayout = "LAYOUT"

var funcs = template.FuncMap{
	"cstring":   strconv.Quote,
	"layerTest": layerTest,
}

var (
	keymapT = template.Must(template.New(KeymapFile).Funcs(funcs).Parse(keymapTmpl))
	configT = template.Must(template.New(ConfigFile).Funcs(funcs).Parse(configTmpl))
	rulesT  = template.Must(template.New(RulesFile).Funcs(funcs).Parse(rulesTmpl))
)

type layerView struct {
	Name string
	Rows []string
}

type comboView struct {
	ID        string
	Array     string
	Keys      string
	Binding   string
	Layers    []string
	TimeoutMs int
}

type holdView struct {
	Name       string
	Definition string
	// Case is false for names whose definition an earlier hold already
	// handles; C forbids duplicate case values.
	Case bool
}

type macroView struct {
	Name string
	Text string
}

type morphView struct {
	Name, Base, Shifted string
}

type triggerView struct {
	Key     string
	Binding string
	Strict  bool
}

type repeatView struct {
	Family   string
	Default  string
	Triggers []triggerView
}

type guardView struct {
	Key       string
	Condition string
}

type trainingView struct {
	Family string
	Guards []guardView
}

type view struct {
	Banner      string
	Board       keymap.Board
	Layout      string
	LayerNames  []string
	Custom      []string
	HomeRowMods []string
	Holds       []holdView
	Layers      []layerView
	Chordal     []string
	Combos      []comboView
	ComboLayers bool
	ComboTerms  bool
	Repeat      []repeatView
	RepeatKey   bool
	Training    []trainingView
	Punish      string
	Macros      []macroView
	ShiftMorphs []morphView
	HasHandlers bool
	Timing      *keymap.HoldTapTiming
}

// Render produces keymap.c, config.h and rules.mk for a QMK board.
func Render(res *compiler.BoardResult) (map[string][]byte, error) {
	if res.Board.Firmware != keymap.QMK {
		return nil, fmt.Errorf("board %s: qmk renderer cannot emit %s", res.Board.ID, res.Board.Firmware)
	}
	v, err := build(res)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", res.Board.ID, err)
	}
	out := map[string][]byte{}
	for name, t := range map[string]*template.Template{KeymapFile: keymapT, ConfigFile: configT, RulesFile: rulesT} {
		var buf bytes.Buffer
		if err := t.Execute(&buf, v); err != nil {
			return nil, fmt.Errorf("exec %s tmpl: %w", name, err)
		}
		out[name] = buf.Bytes()
	}
	return out, nil
}

func build(res *compiler.BoardResult) (*view, error) {
	v := &view{
		Banner:     common.Banner(),
		Board:      res.Board,
		Layout:     res.Board.QMKLayout,
		LayerNames: res.LayerNames(),
	}
	if v.Layout == "" {
		v.Layout = DefaultLayout
	}
	for _, l := range res.Layers {
		v.Layers = append(v.Layers, layerView{Name: l.Name, Rows: cells(res.Layout, l.Keycodes)})
	}
	if res.Usage != nil && res.Usage.UsesHomeRowMods() {
		v.Chordal = cells(res.Layout, handedness(res.Layout))
		for _, side := range []layout.Side{layout.Left, layout.Right} {
			if res.Usage.Sides[side] {
				v.HomeRowMods = append(v.HomeRowMods, translate.HomeRowMacro(side))
			}
		}
	}

	if err := v.combos(res); err != nil {
		return nil, err
	}
	start := len(v.Custom)
	v.magic(res)
	slices.Sort(v.Custom[start:])
	if err := v.shiftMorphs(res); err != nil {
		return nil, err
	}

	v.HasHandlers = len(v.Macros) > 0 || len(v.ShiftMorphs) > 0 || len(v.Holds) > 0
	v.Timing = timing(res.HoldTaps)
	return v, nil
}

// cells splits a physical sequence into layout rows with a comma after
// every key but the last.
func cells(spec *layout.Spec, seq []string) []string {
	withCommas := make([]string, len(seq))
	for i, k := range seq {
		if i < len(seq)-1 {
			k += ","
		}
		withCommas[i] = k
	}
	return common.Align(spec.Rows(withCommas), " ")
}

// handedness fills a chordal hold layout: thumbs are exempt.
func handedness(spec *layout.Spec) []string {
	out := make([]string, spec.Keys())
	for i := range out {
		switch {
		case spec.Slots[i].Thumb:
			out[i] = "'*'"
		case spec.Side(i) == layout.Left:
			out[i] = "'L'"
		default:
			out[i] = "'R'"
		}
	}
	return out
}

// combos resolves each combo's keys from the first layer it is limited to,
// or the first compiled layer. QMK matches combos by keycode.
func (v *view) combos(res *compiler.BoardResult) error {
	for _, c := range res.Combos {
		if len(res.Layers) == 0 {
			return fmt.Errorf("combo %s: board has no layers", c.Name)
		}
		ref := 0
		if len(c.LayerIndices) > 0 {
			ref = c.LayerIndices[0]
		}
		l := res.Layers[ref]
		keys := make([]string, len(c.Physical))
		for i, p := range c.Physical {
			if p >= len(l.Keycodes) {
				return &keymap.Error{Layer: l.Name, Position: p, Token: c.Name, Err: keymap.ErrOutOfRangePosition,
					Detail: "combo position outside the layer"}
			}
			kc := l.Keycodes[p]
			if kc == "KC_NO" || kc == "KC_TRNS" || kc == "_______" || kc == "XXXXXXX" {
				return &keymap.Error{Layer: l.Name, Position: p, Token: c.Name, Err: keymap.ErrUnknownKeycode,
					Detail: fmt.Sprintf("combo key is %s", kc)}
			}
			keys[i] = kc
		}
		id := common.Ident(c.Name)
		cv := comboView{
			ID:        "COMBO_" + strings.ToUpper(id),
			Array:     id + "_combo",
			Keys:      strings.Join(keys, ", "),
			Binding:   c.Binding,
			TimeoutMs: c.TimeoutMs,
		}
		for _, i := range c.LayerIndices {
			cv.Layers = append(cv.Layers, res.Layers[i].Name)
		}
		v.ComboLayers = v.ComboLayers || len(cv.Layers) > 0
		v.ComboTerms = v.ComboTerms || cv.TimeoutMs > 0
		if c.Macro != nil {
			v.Custom = append(v.Custom, c.Macro.Name)
			v.Macros = append(v.Macros, macroView{Name: c.Macro.Name, Text: c.Macro.Text})
		}
		v.Combos = append(v.Combos, cv)
	}
	return nil
}

func (v *view) shiftMorphs(res *compiler.BoardResult) error {
	if res.Usage == nil {
		return nil
	}
	for _, u := range res.Usage.ShiftMorphs {
		base, err := res.Translator.Binding(u.Base)
		if err != nil {
			return err
		}
		shifted, err := res.Translator.Binding(u.Shifted)
		if err != nil {
			return err
		}
		v.Custom = append(v.Custom, u.Name)
		v.ShiftMorphs = append(v.ShiftMorphs, morphView{Name: u.Name, Base: base, Shifted: shifted})
	}
	return nil
}

// magic renders the alternate repeat table, the magic hold keycodes, text
// alternates and, with training, the runtime guards. Families whose base
// layer is not compiled on the board have no layer to switch on and are
// left out.
func (v *view) magic(res *compiler.BoardResult) {
	p := res.Magic
	if p.Empty() {
		return
	}
	onBoard := map[string]bool{}
	for _, n := range v.LayerNames {
		onBoard[n] = true
	}

	for _, a := range p.Adaptive {
		if !onBoard[a.Family] {
			continue
		}
		rv := repeatView{Family: a.Family, Default: a.Default}
		for _, t := range a.Triggers {
			rv.Triggers = append(rv.Triggers, triggerView{Key: t.Key, Binding: t.Binding, Strict: t.Strict})
		}
		v.Repeat = append(v.Repeat, rv)
	}
	for _, m := range p.Macros {
		v.Custom = append(v.Custom, m.Name)
		v.Macros = append(v.Macros, macroView{Name: m.Name, Text: m.Text})
	}

	defined := map[string]bool{}
	handled := map[string]bool{}
	for _, u := range p.Holds {
		if defined[u.Ref] {
			continue
		}
		defined[u.Ref] = true
		def := translate.MagicHoldDefinition(u)
		v.Holds = append(v.Holds, holdView{Name: u.Ref, Definition: def, Case: !handled[def]})
		handled[def] = true
	}
	v.RepeatKey = len(v.Repeat) > 0 || len(v.Holds) > 0

	byFamily := map[string]int{}
	for _, g := range p.Guards {
		if !onBoard[g.Family] || g.Key == "" {
			continue
		}
		i, ok := byFamily[g.Family]
		if !ok {
			i = len(v.Training)
			byFamily[g.Family] = i
			v.Training = append(v.Training, trainingView{Family: g.Family})
		}
		v.Training[i].Guards = append(v.Training[i].Guards, guardView{Key: g.Key, Condition: condition(g.Loose, g.Strict)})
		v.Punish = g.Punish
	}
}

// condition tests the previous key against a guard's predecessors. Strict
// predecessors only count when typed without modifiers.
func condition(loose, strict []string) string {
	var terms []string
	for _, k := range loose {
		terms = append(terms, "magic_prev_keycode == "+k)
	}
	for _, k := range strict {
		terms = append(terms, fmt.Sprintf("(magic_prev_keycode == %s && !magic_prev_mods)", k))
	}
	if len(terms) == 0 {
		return "false"
	}
	return strings.Join(terms, " || ")
}

func layerTest(layers []string) string {
	terms := make([]string, len(layers))
	for i, l := range layers {
		terms[i] = "layer == " + l
	}
	return strings.Join(terms, " || ")
}

// timing picks the global tapping term: QMK has one for every hold-tap,
// so home-row mod timings win over mod-tap and layer-tap ones.
func timing(holdTaps map[string]keymap.HoldTapTiming) *keymap.HoldTapTiming {
	for _, k := range []string{"hml", "hmr", "mt", "lt"} {
		if t, ok := holdTaps[k]; ok {
			return &t
		}
	}
	return nil
}
