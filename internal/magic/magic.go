// Package magic plans the adaptive "magic" key behaviors of one board.
//
// Every base layer owning a mapping gets one adaptive behavior: a default
// fallback plus one trigger per predecessor. With training on, every
// distinct key alternate also gets a guard that types the plain alternate
// unless the previous key was one of its predecessors, in which case it
// types a punishment symbol instead.
package magic

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
	"github.com/kforge/keyforge/internal/translate"
)

// PunishKey is typed by a guard when a magic bigram was typed directly.
const PunishKey = "HASH"

// Trigger maps one predecessor to its alternate.
type Trigger struct {
	Name        string
	Predecessor string
	// Key is the predecessor as a behavior parameter (U, KC_U).
	Key string
	// AltKey is the alternate as a behavior parameter; empty for macros.
	AltKey  string
	Binding string
	Macro   string
	// Strict ignores the predecessor when it was typed with modifiers.
	Strict bool
}

// Adaptive is the primary magic behavior of a base layer.
type Adaptive struct {
	Family    string
	Suffix    string
	Name      string
	Default   string
	TimeoutMs int
	Triggers  []Trigger
}

// MacroKey is one character of a macro's text.
type MacroKey struct {
	Key   string
	Shift bool
}

// Macro types a text alternate.
type Macro struct {
	Name   string
	Family string
	Text   string
	Keys   []MacroKey
}

// Guard is a training behavior wrapping one key alternate.
type Guard struct {
	Family string
	Suffix string
	Name   string
	// Alternate is the keycode name the guard stands for.
	Alternate string
	Key       string
	Binding   string
	Punish    string
	// Loose predecessors punish in any modifier state; Strict ones only
	// when typed without modifiers.
	Loose     []string
	Strict    []string
	TimeoutMs int
}

// HoldTapGuard is a home-row mod variant whose tap side is a guard.
type HoldTapGuard struct {
	Name  string
	Hold  translate.HoldKind
	Guard string
}

// Plan is everything the emitter declares for magic keys on one board.
type Plan struct {
	Adaptive      []Adaptive
	Macros        []Macro
	Guards        []Guard
	HoldTapGuards []HoldTapGuard
	// Holds are the magic hold-taps referenced by the board's layers.
	Holds []translate.MagicUse

	families     []string
	layerFamily  map[string]string
	replacements map[string]map[string]string
}

// Empty reports whether nothing needs declaring.
func (p *Plan) Empty() bool {
	return p == nil || (len(p.Adaptive) == 0 && len(p.Holds) == 0)
}

// Input is what Generate needs for one board.
type Input struct {
	Translator translate.Translator
	Mappings   []keymap.MagicKeyMapping
	// Layers are the board's compiled layers in declared order.
	Layers    []keymap.CompiledLayer
	Layout    *layout.Spec
	Usage     *translate.Accumulator
	Training  bool
	Namespace *Namespace
}

// Generate builds the magic plan of a board.
func Generate(in Input) (*Plan, error) {
	tr := in.Translator
	tables := tr.Tables()
	plan := &Plan{
		layerFamily:  map[string]string{},
		replacements: map[string]map[string]string{},
	}
	if in.Usage != nil {
		plan.Holds = in.Usage.MagicHolds()
	}
	ns := in.Namespace
	if ns == nil {
		ns = NewNamespace()
	}

	compiled := map[string]keymap.CompiledLayer{}
	for _, l := range in.Layers {
		compiled[l.Name] = l
		plan.layerFamily[l.Name] = tables.Family(l.Name)
	}
	used := map[string]bool{}
	if in.Usage != nil {
		for _, u := range in.Usage.Magic {
			used[u.Family] = true
		}
	}

	for _, m := range in.Mappings {
		base, onBoard := compiled[m.BaseLayer]
		if !onBoard && !used[m.BaseLayer] {
			continue
		}
		a, macros, err := adaptive(tr, m, ns)
		if err != nil {
			return nil, err
		}
		plan.Adaptive = append(plan.Adaptive, a)
		plan.Macros = append(plan.Macros, macros...)
		plan.families = append(plan.families, m.BaseLayer)

		if !in.Training {
			continue
		}
		var strict func(pred keymap.Keycode) bool
		if onBoard {
			strict = strictness(tr, base, in.Layout)
		} else {
			strict = func(pred keymap.Keycode) bool { return !isAlpha(pred) }
		}
		guards, err := guardsFor(tr, m, a, strict)
		if err != nil {
			return nil, err
		}
		plan.Guards = append(plan.Guards, guards...)
		repl := map[string]string{}
		for _, g := range guards {
			repl[g.Binding] = "&" + g.Name
		}
		plan.replacements[m.BaseLayer] = repl
	}

	if in.Training && tr.Firmware() == keymap.ZMK {
		if err := plan.holdTapGuards(tr, in.Layers, in.Layout); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func adaptive(tr translate.Translator, m keymap.MagicKeyMapping, ns *Namespace) (Adaptive, []Macro, error) {
	suffix := translate.FamilySuffix(m.BaseLayer)
	a := Adaptive{
		Family:    m.BaseLayer,
		Suffix:    suffix,
		Name:      "ak_" + suffix,
		TimeoutMs: m.TimeoutMs,
	}
	def := m.Default
	if def == "" {
		def = "REPEAT"
	}
	b, err := tr.Binding(def)
	if err != nil {
		return a, nil, located(err, m.BaseLayer)
	}
	a.Default = b

	var macros []Macro
	seen := map[string]string{}
	for _, e := range m.Entries {
		pred, err := tr.Resolve(e.Predecessor)
		if err != nil {
			return a, nil, located(err, m.BaseLayer)
		}
		if prev, dup := seen[pred.Name]; dup {
			return a, nil, &keymap.Error{
				Layer:    m.BaseLayer,
				Position: -1,
				Token:    e.Predecessor,
				Detail:   fmt.Sprintf("same key as predecessor %q", prev),
				Err:      keymap.ErrNameCollision,
			}
		}
		seen[pred.Name] = e.Predecessor
		key, err := tr.KeyParam(pred.Name)
		if err != nil {
			return a, nil, located(err, m.BaseLayer)
		}
		t := Trigger{
			Name:        sanitize(pred.Name),
			Predecessor: e.Predecessor,
			Key:         key,
			Strict:      !isAlpha(pred),
		}
		if e.Alternate.IsText() {
			mac, err := macro(tr, m.BaseLayer, e.Predecessor, e.Alternate.Text)
			if err != nil {
				return a, nil, err
			}
			if err := ns.Claim(mac.Name, fmt.Sprintf("magic %s %q", m.BaseLayer, e.Predecessor)); err != nil {
				return a, nil, err
			}
			macros = append(macros, mac)
			t.Macro = mac.Name
			t.Binding = MacroRef(tr.Firmware(), mac.Name)
		} else {
			t.Binding, err = tr.Binding(e.Alternate.Key)
			if err != nil {
				return a, nil, located(err, m.BaseLayer)
			}
			// Alternates such as REPEAT have no key parameter form.
			t.AltKey, _ = tr.KeyParam(e.Alternate.Key)
		}
		a.Triggers = append(a.Triggers, t)
	}
	return a, macros, nil
}

func macro(tr translate.Translator, base, pred, text string) (Macro, error) {
	mac, err := NewMacro(tr, MacroName(tr.Firmware(), base, pred), text)
	if err != nil {
		return mac, located(err, base)
	}
	mac.Family = base
	return mac, nil
}

// NewMacro resolves every character of text into a key parameter.
// Upper-case letters are typed as their shifted lower-case key.
func NewMacro(tr translate.Translator, name, text string) (Macro, error) {
	mac := Macro{Name: name, Text: text}
	for _, r := range text {
		ch := string(r)
		shift := unicode.IsUpper(r)
		if shift {
			ch = string(unicode.ToLower(r))
		}
		key, err := tr.KeyParam(ch)
		if err != nil {
			return mac, err
		}
		mac.Keys = append(mac.Keys, MacroKey{Key: key, Shift: shift})
	}
	return mac, nil
}

// MacroRef renders a reference to a generated macro.
func MacroRef(f keymap.Firmware, name string) string {
	if f == keymap.ZMK {
		return "&" + name
	}
	return name
}

// MacroName derives the macro of a text alternate from its base layer and
// predecessor: magic_night_t on ZMK, MAGIC_NIGHT_T on QMK.
func MacroName(f keymap.Firmware, base, pred string) string {
	name := "magic_" + translate.FamilySuffix(base) + "_" + predName(pred)
	if f == keymap.QMK {
		return strings.ToUpper(name)
	}
	return name
}

func predName(pred string) string {
	s := sanitize(pred)
	if s != "key" {
		return s
	}
	codes := make([]string, 0, len(pred))
	for _, r := range pred {
		codes = append(codes, strconv.Itoa(int(r)))
	}
	return "chr_" + strings.Join(codes, "_")
}

// sanitize lowercases a name and folds anything but letters and digits
// into underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "key"
	}
	return out
}

func isAlpha(k keymap.Keycode) bool {
	return len(k.Name) == 1 && k.Name[0] >= 'A' && k.Name[0] <= 'Z'
}

func located(err error, layer string) error {
	return keymap.Locate(err, "", layer, -1)
}

func guardsFor(tr translate.Translator, m keymap.MagicKeyMapping, a Adaptive, strict func(keymap.Keycode) bool) ([]Guard, error) {
	var (
		guards []Guard
		index  = map[string]int{}
	)
	punish, err := tr.Binding(PunishKey)
	if err != nil {
		return nil, err
	}
	for i, e := range m.Entries {
		if e.Alternate.IsText() {
			continue
		}
		alt, err := tr.Resolve(e.Alternate.Key)
		if err != nil {
			return nil, located(err, m.BaseLayer)
		}
		pred, err := tr.Resolve(e.Predecessor)
		if err != nil {
			return nil, located(err, m.BaseLayer)
		}
		gi, ok := index[alt.Name]
		if !ok {
			gi = len(guards)
			index[alt.Name] = gi
			guards = append(guards, Guard{
				Family:    m.BaseLayer,
				Suffix:    a.Suffix,
				Name:      "ak_train_" + a.Suffix + "_" + sanitize(alt.Name),
				Alternate: alt.Name,
				Key:       a.Triggers[i].AltKey,
				Binding:   a.Triggers[i].Binding,
				Punish:    punish,
				TimeoutMs: m.TimeoutMs,
			})
		}
		g := &guards[gi]
		if strict(pred) {
			g.Strict = append(g.Strict, a.Triggers[i].Key)
		} else {
			g.Loose = append(g.Loose, a.Triggers[i].Key)
		}
	}
	return guards, nil
}

// strictness decides per predecessor whether a guard ignores its shifted
// form. Holding shift and tapping magic with the same thumb is a
// same-finger bigram, so a shifted alpha typed on the hand opposite a
// cluster hosting both is not punished. Non-alpha predecessors are always
// strict so an unshifted key never matches a shifted symbol.
func strictness(tr translate.Translator, base keymap.CompiledLayer, spec *layout.Spec) func(keymap.Keycode) bool {
	coloc := map[layout.Side]bool{}
	for _, side := range []layout.Side{layout.Left, layout.Right} {
		var magic, shift bool
		for _, pos := range spec.Thumbs(side) {
			if pos >= len(base.Tokens) {
				continue
			}
			tok := base.Tokens[pos]
			magic = magic || hostsMagic(tok)
			shift = shift || hostsShift(tok, tr.Tables())
		}
		coloc[side] = magic && shift
	}
	return func(pred keymap.Keycode) bool {
		if !isAlpha(pred) {
			return true
		}
		if coloc[layout.Left] && coloc[layout.Right] {
			return true
		}
		hand, ok := handOf(pred.Name, base, spec, tr.Tables())
		if !ok {
			return false
		}
		return coloc[hand.Opposite()]
	}
}

func hostsMagic(token string) bool {
	return token == translate.MagicToken || strings.HasSuffix(token, ":"+translate.MagicToken)
}

func hostsShift(token string, t *translate.Tables) bool {
	e, err := translate.Parse(token, t.Aliases)
	if err != nil {
		return false
	}
	isShift := func(mod string) bool {
		m, err := translate.ParseModifier(mod)
		return err == nil && m.IsShift()
	}
	switch e := e.(type) {
	case translate.Primitive:
		return isShift(e.Name)
	case translate.HomeRowMod:
		return isShift(e.Mod)
	case translate.ModTap:
		return isShift(e.Mod)
	case translate.Generic:
		for i, p := range e.Alias.Params {
			if strings.EqualFold(p, "mod") && isShift(e.Args[i]) {
				return true
			}
		}
	}
	return false
}

// tapKey returns the key a token types when tapped.
func tapKey(token string, t *translate.Tables) string {
	e, err := translate.Parse(token, t.Aliases)
	if err != nil {
		return ""
	}
	switch e := e.(type) {
	case translate.Primitive:
		return e.Name
	case translate.HomeRowMod:
		return e.Key
	case translate.LayerTap:
		return e.Key
	case translate.ModTap:
		return e.Key
	}
	return ""
}

func handOf(key string, base keymap.CompiledLayer, spec *layout.Spec, t *translate.Tables) (layout.Side, bool) {
	for _, side := range []layout.Side{layout.Left, layout.Right} {
		for _, pos := range spec.Fingers(side) {
			if pos < len(base.Tokens) && tapKey(base.Tokens[pos], t) == key {
				return side, true
			}
		}
	}
	return layout.Left, false
}

// holdTapGuards wraps home-row mods tapping a guarded alternate.
func (p *Plan) holdTapGuards(tr translate.Translator, layers []keymap.CompiledLayer, spec *layout.Spec) error {
	guards := map[string]map[string]*Guard{}
	for i := range p.Guards {
		g := &p.Guards[i]
		if guards[g.Family] == nil {
			guards[g.Family] = map[string]*Guard{}
		}
		guards[g.Family][g.Alternate] = g
	}
	seen := map[string]bool{}
	for _, l := range layers {
		for pos, tok := range l.Tokens {
			e, err := translate.Parse(tok, tr.Tables().Aliases)
			if err != nil {
				continue
			}
			hrm, ok := e.(translate.HomeRowMod)
			if !ok {
				continue
			}
			alt, err := tr.Resolve(hrm.Key)
			if err != nil {
				continue
			}
			mod, err := translate.ParseModifier(hrm.Mod)
			if err != nil {
				return keymap.Locate(err, l.Board, l.Name, pos)
			}
			for _, fam := range p.familiesFor(l.Name) {
				g := guards[fam][alt.Name]
				if g == nil {
					continue
				}
				hold := translate.HoldHML
				if spec.Side(pos) == layout.Right {
					hold = translate.HoldHMR
				}
				name := fmt.Sprintf("%s_train_%s_%s", hold, g.Suffix, sanitize(alt.Name))
				if !seen[name] {
					seen[name] = true
					p.HoldTapGuards = append(p.HoldTapGuards, HoldTapGuard{Name: name, Hold: hold, Guard: g.Name})
				}
				binding := l.Keycodes[pos]
				if _, done := p.replacements[fam][binding]; !done {
					p.replacements[fam][binding] = fmt.Sprintf("&%s %s 0", name, mod.ZMK())
				}
				break
			}
		}
	}
	return nil
}

// familiesFor lists the families whose guards apply to a layer: its own
// family, or every family in mapping order for layers without one.
func (p *Plan) familiesFor(layer string) []string {
	if f := p.layerFamily[layer]; f != "" {
		if _, ok := p.replacements[f]; ok {
			return []string{f}
		}
		return nil
	}
	var out []string
	for _, f := range p.families {
		if _, ok := p.replacements[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Rewrite returns the layers with guarded bindings replaced. Layers are
// never modified in place. Only ZMK plans carry replacements; QMK guards
// run at key-press time.
func (p *Plan) Rewrite(layers []keymap.CompiledLayer) []keymap.CompiledLayer {
	out := make([]keymap.CompiledLayer, len(layers))
	for i, l := range layers {
		fams := p.familiesFor(l.Name)
		if len(fams) == 0 || l.Firmware != keymap.ZMK {
			out[i] = l
			continue
		}
		kc := slices.Clone(l.Keycodes)
		for j, b := range kc {
			for _, f := range fams {
				if r, ok := p.replacements[f][b]; ok {
					kc[j] = r
					break
				}
			}
		}
		out[i] = l.WithKeycodes(kc)
	}
	return out
}
