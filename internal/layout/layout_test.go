package layout

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kforge/keyforge/internal/keymap"
)

func TestKeyCounts(t *testing.T) {
	tests := []struct {
		name string
		keys int
	}{
		{name: "3x5_3", keys: 36},
		{name: "3x6_3", keys: 42},
		{name: "totem_38", keys: 38},
		{name: "custom_58_from_3x6", keys: 58},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MustLookup(tt.name)
			assert.Equal(t, tt.keys, s.Keys())
			assert.Equal(t, keymap.CoreKeys+s.ExtensionKeys(), s.Keys())
		})
	}
}

func TestSlotsArePermutation(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s := MustLookup(name)
			var logical []int
			for _, sl := range s.Slots {
				logical = append(logical, sl.Logical)
			}
			slices.Sort(logical)
			for i, l := range logical {
				require.Equal(t, i, l)
			}
		})
	}
}

func TestComboBlocksMatchPhysicalOrder(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s := MustLookup(name)
			for p := 0; p < keymap.CoreKeys; p++ {
				var offset int
				found := false
				for _, b := range s.Combos {
					if p >= b.From && p <= b.To {
						offset, found = b.Offset, true
					}
				}
				require.True(t, found, "position %d has no block", p)
				assert.Equal(t, s.PhysicalOf(p), p+offset, "position %d", p)
			}
		})
	}
}

func TestSideSplitsEveryRow(t *testing.T) {
	s := MustLookup("3x6_3")
	assert.Equal(t, Left, s.Side(0))
	assert.Equal(t, Left, s.Side(5))
	assert.Equal(t, Right, s.Side(6))
	assert.Equal(t, Right, s.Side(11))
	assert.Equal(t, Left, s.Side(38))
	assert.Equal(t, Right, s.Side(39))

	base := MustLookup("3x5_3")
	assert.Equal(t, Left, base.Side(14))
	assert.Equal(t, Right, base.Side(15))
	assert.Equal(t, []int{30, 31, 32}, base.Thumbs(Left))
	assert.Equal(t, []int{33, 34, 35}, base.Thumbs(Right))
}

func TestLily58Thumbs(t *testing.T) {
	s := MustLookup("custom_58_from_3x6")
	assert.Equal(t, []int{48, 49, 50, 51}, s.Thumbs(Left))
	assert.Equal(t, []int{52, 53, 54, 55, 56, 57}, s.Thumbs(Right))
	assert.Equal(t, 42, s.Slots[0].Logical)
}

func TestCustomLayouts(t *testing.T) {
	s, err := Lookup("custom_corne_wireless")
	require.NoError(t, err)
	assert.True(t, s.Custom)

	sized := s.Sized(40)
	assert.Equal(t, 40, sized.Keys())
	assert.Equal(t, Left, sized.Side(19))
	assert.Equal(t, Right, sized.Side(20))
	assert.Empty(t, sized.Thumbs(Left))

	_, err = Lookup("4x7")
	assert.True(t, errors.Is(err, keymap.ErrUnknownLayout))
}

func TestRows(t *testing.T) {
	s := MustLookup("totem_38")
	seq := make([]string, 38)
	rows := s.Rows(seq)
	require.Len(t, rows, 4)
	assert.Len(t, rows[2], 12)
	assert.Len(t, rows[3], 6)
}
