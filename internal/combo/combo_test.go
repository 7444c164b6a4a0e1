package combo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kforge/keyforge/internal/keymap"
	"github.com/kforge/keyforge/internal/layout"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		in     []int
		want   []int
	}{
		{name: "36 key home row", layout: "3x5_3", in: []int{10, 11}, want: []int{10, 11}},
		{name: "42 key top row left", layout: "3x6_3", in: []int{0, 1}, want: []int{1, 2}},
		{name: "42 key home row", layout: "3x6_3", in: []int{10, 11}, want: []int{13, 14}},
		{name: "42 key across hands", layout: "3x6_3", in: []int{4, 5}, want: []int{5, 6}},
		{name: "42 key thumbs", layout: "3x6_3", in: []int{30, 35}, want: []int{36, 41}},
		{name: "totem bottom row", layout: "totem_38", in: []int{19, 20, 29}, want: []int{19, 21, 30}},
		{name: "totem thumbs", layout: "totem_38", in: []int{32, 33}, want: []int{34, 35}},
		{name: "58 key", layout: "custom_58_from_3x6", in: []int{0, 10, 20, 30, 35}, want: []int{13, 25, 37, 49, 54}},
		{name: "custom identity", layout: "custom_ferris", in: []int{10, 11}, want: []int{10, 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := layout.Lookup(tt.layout)
			require.NoError(t, err)
			got, err := Translate(tt.in, spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateIdentityOn36Keys(t *testing.T) {
	spec := layout.MustLookup("3x5_3")
	for p := 0; p < keymap.CoreKeys; p++ {
		got, err := Translate([]int{p}, spec)
		require.NoError(t, err)
		assert.Equal(t, []int{p}, got)
	}
}

func TestTranslateOutOfRange(t *testing.T) {
	for _, p := range []int{-1, 36, 41} {
		_, err := Translate([]int{0, p}, layout.MustLookup("3x6_3"))
		assert.True(t, errors.Is(err, keymap.ErrOutOfRangePosition), "position %d", p)
	}
	// Custom boards are authored in native numbering.
	got, err := Translate([]int{40, 2}, layout.MustLookup("custom_x"))
	require.NoError(t, err)
	assert.Equal(t, []int{40, 2}, got)
	_, err = Translate([]int{-1}, layout.MustLookup("custom_x"))
	assert.True(t, errors.Is(err, keymap.ErrOutOfRangePosition))
}

func TestTranslateAllNamesCombo(t *testing.T) {
	_, err := TranslateAll([]keymap.Combo{{Name: "esc", Positions: []int{0, 99}}}, layout.MustLookup("3x5_3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "combo esc")

	out, err := TranslateAll([]keymap.Combo{{Name: "tab", Positions: []int{10, 11}, Action: "TAB"}}, layout.MustLookup("3x6_3"))
	require.NoError(t, err)
	assert.Equal(t, []int{13, 14}, out[0].Physical)
	assert.Equal(t, []int{10, 11}, out[0].Positions)
}
