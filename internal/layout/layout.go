// Package layout holds the fixed table of supported physical layout sizes:
// how the canonical 36-key core plus extension key lists are placed on each
// board, which hand every physical position belongs to, where the thumb
// clusters sit, and how canonical combo positions shift.
package layout

import (
	"fmt"
	"strings"

	"github.com/kforge/keyforge/internal/keymap"
)

// Side is the hand a physical position belongs to.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Opposite returns the other hand.
func (s Side) Opposite() Side { return 1 - s }

// List is one named key list of an extension.
type List struct {
	Name string
	Keys int
}

// Extension is an extension type with its key lists in consumption order.
type Extension struct {
	Name  string
	Lists []List
}

// Keys is the number of keys the extension adds.
func (e Extension) Keys() int {
	n := 0
	for _, l := range e.Lists {
		n += l.Keys
	}
	return n
}

// Slot describes one physical position.
type Slot struct {
	// Logical is the index into the logical sequence: the 36 core tokens
	// followed by the extension lists in declared order.
	Logical int
	Side    Side
	Thumb   bool
}

// ComboBlock shifts canonical positions in [From, To] by Offset.
type ComboBlock struct {
	From, To int
	Offset   int
}

// Spec is one supported layout size.
type Spec struct {
	Name       string
	Extensions []Extension
	Custom     bool
	Slots      []Slot
	// RowSizes splits the physical order into display rows.
	RowSizes []int
	Combos   []ComboBlock
}

const customPrefix = "custom_"

var (
	extPinky = Extension{Name: "3x6_3", Lists: []List{
		{Name: "outer_pinky_left", Keys: 3},
		{Name: "outer_pinky_right", Keys: 3},
	}}
	extTotem = Extension{Name: "totem", Lists: []List{
		{Name: "outer_pinky_left", Keys: 1},
		{Name: "outer_pinky_right", Keys: 1},
	}}
	ext58 = Extension{Name: "58key", Lists: []List{
		{Name: "number_row", Keys: 12},
		{Name: "thumb_outer_left", Keys: 1},
		{Name: "thumb_outer_right", Keys: 3},
	}}
)

var specs = map[string]*Spec{
	"3x5_3":              split36(),
	"3x6_3":              split42(),
	"totem_38":           totem38(),
	"custom_58_from_3x6": lily58(),
}

// Names lists the fixed layout sizes.
func Names() []string {
	return []string{"3x5_3", "3x6_3", "totem_38", "custom_58_from_3x6"}
}

// Lookup returns the spec of a layout size. Unlisted custom_* layouts are
// accepted with an unknown key count; size them with Sized once the layer
// length is known.
func Lookup(name string) (*Spec, error) {
	if s, ok := specs[name]; ok {
		return s, nil
	}
	if strings.HasPrefix(name, customPrefix) {
		return &Spec{Name: name, Custom: true}, nil
	}
	return nil, fmt.Errorf("%w: %q", keymap.ErrUnknownLayout, name)
}

// MustLookup is Lookup for known layout names.
func MustLookup(name string) *Spec {
	s, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Keys is the number of physical positions.
func (s *Spec) Keys() int { return len(s.Slots) }

// Sized returns a spec for a custom layout with n positions: identity
// placement, the first half on the left hand, no known thumbs.
func (s *Spec) Sized(n int) *Spec {
	if !s.Custom || len(s.Slots) == n {
		return s
	}
	out := &Spec{Name: s.Name, Custom: true, Slots: make([]Slot, n)}
	for i := range out.Slots {
		side := Left
		if i >= n/2 {
			side = Right
		}
		out.Slots[i] = Slot{Logical: i, Side: side}
	}
	for rest := n; rest > 0; rest -= 12 {
		out.RowSizes = append(out.RowSizes, min(rest, 12))
	}
	return out
}

// Side returns the hand of a physical position.
func (s *Spec) Side(pos int) Side {
	if s == nil {
		return Left
	}
	if pos >= 0 && pos < len(s.Slots) {
		return s.Slots[pos].Side
	}
	if pos < len(s.Slots)/2 {
		return Left
	}
	return Right
}

// Thumbs returns the physical thumb positions of one hand.
func (s *Spec) Thumbs(side Side) []int {
	var out []int
	for i, sl := range s.Slots {
		if sl.Thumb && sl.Side == side {
			out = append(out, i)
		}
	}
	return out
}

// Fingers returns the physical non-thumb positions of one hand.
func (s *Spec) Fingers(side Side) []int {
	var out []int
	for i, sl := range s.Slots {
		if !sl.Thumb && sl.Side == side {
			out = append(out, i)
		}
	}
	return out
}

// PhysicalOf returns the physical position holding a logical index, or -1.
func (s *Spec) PhysicalOf(logical int) int {
	for i, sl := range s.Slots {
		if sl.Logical == logical {
			return i
		}
	}
	return -1
}

// Extension returns the named extension if the layout requires it.
func (s *Spec) Extension(name string) (Extension, bool) {
	for _, e := range s.Extensions {
		if e.Name == name {
			return e, true
		}
	}
	return Extension{}, false
}

// ExtensionKeys is the total number of keys the required extensions add.
func (s *Spec) ExtensionKeys() int {
	n := 0
	for _, e := range s.Extensions {
		n += e.Keys()
	}
	return n
}

// Rows splits a physical sequence into display rows.
func (s *Spec) Rows(seq []string) [][]string {
	var out [][]string
	i := 0
	for _, n := range s.RowSizes {
		if i+n > len(seq) {
			break
		}
		out = append(out, seq[i:i+n])
		i += n
	}
	if i < len(seq) {
		out = append(out, seq[i:])
	}
	return out
}

// builder lays out physical slots row by row.
type builder struct {
	slots []Slot
	rows  []int
}

func (b *builder) row(left, right []int, thumb bool) {
	for _, l := range left {
		b.slots = append(b.slots, Slot{Logical: l, Side: Left, Thumb: thumb})
	}
	for _, r := range right {
		b.slots = append(b.slots, Slot{Logical: r, Side: Right, Thumb: thumb})
	}
	b.rows = append(b.rows, len(left)+len(right))
}

func span(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func prepend(x int, s []int) []int { return append([]int{x}, s...) }

func split36() *Spec {
	var b builder
	for r := 0; r < 3; r++ {
		b.row(span(r*10, 5), span(r*10+5, 5), false)
	}
	b.row(span(30, 3), span(33, 3), true)
	return &Spec{
		Name:     "3x5_3",
		Slots:    b.slots,
		RowSizes: b.rows,
		Combos:   []ComboBlock{{From: 0, To: 35, Offset: 0}},
	}
}

func split42() *Spec {
	var b builder
	for r := 0; r < 3; r++ {
		b.row(prepend(36+r, span(r*10, 5)), append(span(r*10+5, 5), 39+r), false)
	}
	b.row(span(30, 3), span(33, 3), true)
	return &Spec{
		Name:       "3x6_3",
		Extensions: []Extension{extPinky},
		Slots:      b.slots,
		RowSizes:   b.rows,
		Combos: []ComboBlock{
			{From: 0, To: 9, Offset: 1},
			{From: 10, To: 19, Offset: 3},
			{From: 20, To: 29, Offset: 5},
			{From: 30, To: 35, Offset: 6},
		},
	}
}

func totem38() *Spec {
	var b builder
	b.row(span(0, 5), span(5, 5), false)
	b.row(span(10, 5), span(15, 5), false)
	b.row(prepend(36, span(20, 5)), append(span(25, 5), 37), false)
	b.row(span(30, 3), span(33, 3), true)
	return &Spec{
		Name:       "totem_38",
		Extensions: []Extension{extTotem},
		Slots:      b.slots,
		RowSizes:   b.rows,
		Combos: []ComboBlock{
			{From: 0, To: 19, Offset: 0},
			{From: 20, To: 29, Offset: 1},
			{From: 30, To: 35, Offset: 2},
		},
	}
}

// lily58 is the 58-key layout built from the 3x6_3 extension plus a
// number row and outer thumb keys. Logical 36-41 are the pinky columns,
// 42-53 the number row, 54 the left outer thumb, 55-57 the right outer thumbs.
func lily58() *Spec {
	var b builder
	b.row(span(42, 6), span(48, 6), false)
	for r := 0; r < 3; r++ {
		b.row(prepend(36+r, span(r*10, 5)), append(span(r*10+5, 5), 39+r), false)
	}
	b.row(append([]int{54}, span(30, 3)...), append(span(33, 3), 55, 56, 57), true)
	return &Spec{
		Name:       "custom_58_from_3x6",
		Extensions: []Extension{extPinky, ext58},
		Slots:      b.slots,
		RowSizes:   b.rows,
		Combos: []ComboBlock{
			{From: 0, To: 9, Offset: 13},
			{From: 10, To: 19, Offset: 15},
			{From: 20, To: 29, Offset: 17},
			{From: 30, To: 35, Offset: 19},
		},
	}
}
