package translate

import (
	"github.com/kforge/keyforge/internal/layout"
)

// HoldKind is the hold side of a hold-tap whose tap side is the magic key.
type HoldKind string

const (
	HoldNone HoldKind = ""
	HoldLT   HoldKind = "lt"
	HoldMT   HoldKind = "mt"
	HoldHML  HoldKind = "hml"
	HoldHMR  HoldKind = "hmr"
)

// MagicUse records one rendered reference to a family's magic key.
type MagicUse struct {
	Family string
	Suffix string
	Hold   HoldKind
	// Arg is the hold parameter (layer name or firmware modifier).
	Arg string
	// Ref is the rendered binding.
	Ref string
}

// ShiftMorphUse records a shift-morph pair rendered on this board.
type ShiftMorphUse struct {
	Base, Shifted string
	Name          string
}

// Accumulator collects the side effects of translating one board's layers.
// Emitters read it to declare auxiliary behaviors exactly once.
type Accumulator struct {
	Sides       map[layout.Side]bool
	ShiftMorphs []ShiftMorphUse
	Magic       []MagicUse

	seen map[string]bool
}

func NewAccumulator() *Accumulator {
	a := &Accumulator{}
	a.Reset()
	return a
}

// Reset clears everything collected so far.
func (a *Accumulator) Reset() {
	a.Sides = map[layout.Side]bool{}
	a.ShiftMorphs = nil
	a.Magic = nil
	a.seen = map[string]bool{}
}

// UsesHomeRowMods reports whether any home-row mod was rendered.
func (a *Accumulator) UsesHomeRowMods() bool {
	return a.Sides[layout.Left] || a.Sides[layout.Right]
}

func (a *Accumulator) side(s layout.Side) {
	a.Sides[s] = true
}

func (a *Accumulator) shiftMorph(u ShiftMorphUse) {
	if a.seen["sm/"+u.Name] {
		return
	}
	a.seen["sm/"+u.Name] = true
	a.ShiftMorphs = append(a.ShiftMorphs, u)
}

func (a *Accumulator) magic(u MagicUse) {
	key := "magic/" + u.Family + "/" + string(u.Hold) + "/" + u.Arg
	if a.seen[key] {
		return
	}
	a.seen[key] = true
	a.Magic = append(a.Magic, u)
}

// MagicHolds returns the distinct hold-tap magic uses.
func (a *Accumulator) MagicHolds() []MagicUse {
	var out []MagicUse
	for _, u := range a.Magic {
		if u.Hold != HoldNone {
			out = append(out, u)
		}
	}
	return out
}
