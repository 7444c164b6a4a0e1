package qmk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kforge/keyforge/internal/compiler"
	"github.com/kforge/keyforge/internal/keymap"
	th "github.com/kforge/keyforge/internal/testing"
)

func boardConfig() *keymap.Config {
	base := th.CoreLayer("BASE_NIGHT", "NONE",
		th.At(0, "Q"), th.At(1, "W"), th.At(2, "E"),
		th.At(10, "hrm:LGUI:A"), th.At(11, "G"), th.At(12, "sm:COMM:AT"), th.At(13, "hrm:LSFT:MAGIC"),
		th.At(19, "hrm:LGUI:O"), th.At(20, "Y"),
		th.At(30, "lt:NAV:MAGIC"), th.At(31, "MAGIC"), th.At(32, "mt:LSFT:MAGIC"), th.At(33, "hrm:LSFT:MAGIC"),
	)
	nav := th.CoreLayer("NAV", "TRNS")
	nav.Family = "BASE_NIGHT"
	cfg := th.Config(base, nav)
	email := "me@x.io"
	cfg.Combos = []keymap.Combo{
		{Name: "esc", Positions: []int{0, 1}, Action: "ESC", TimeoutMs: 40},
		{Name: "email", Positions: []int{1, 2}, MacroText: &email, Layers: []string{"BASE_NIGHT"}},
	}
	cfg.Magic = []keymap.MagicKeyMapping{{
		BaseLayer: "BASE_NIGHT",
		Default:   "REPEAT",
		TimeoutMs: 300,
		Entries: []keymap.MagicEntry{
			{Predecessor: "g", Alternate: keymap.Alternate{Key: "y"}},
			{Predecessor: ",", Alternate: keymap.Alternate{Key: "'"}},
			{Predecessor: "t", Alternate: keymap.Alternate{Text: "ion"}},
		},
	}}
	cfg.HoldTaps = map[string]keymap.HoldTapTiming{"hml": {TappingTermMs: 280, QuickTapMs: 175, Flavor: "balanced"}}
	return cfg
}

func render(t *testing.T, cfg *keymap.Config, training bool) map[string]string {
	t.Helper()
	c, err := compiler.New(cfg, keymap.QMK, compiler.Options{Training: training}, nil)
	require.NoError(t, err)
	res, err := c.CompileBoard(th.Board("skeletyl", keymap.QMK, "3x5_3"))
	require.NoError(t, err)
	files, err := Render(res)
	require.NoError(t, err)
	out := map[string]string{}
	for k, v := range files {
		out[k] = string(v)
	}
	return out
}

func TestRenderKeymap(t *testing.T) {
	files := render(t, boardConfig(), true)
	require.Len(t, files, 3)
	km := files[KeymapFile]

	tests := []struct {
		name string
		want string
	}{
		{"banner", "// AUTO-GENERATED by keyforge"},
		{"layers enum", "enum layers {\n    BASE_NIGHT,\n    NAV,\n};"},
		{"custom keycodes", "enum custom_keycodes {\n    MACRO_EMAIL = SAFE_RANGE,\n    MAGIC_NIGHT_T,\n    SM_COMM_AT,\n};"},
		{"layer tap hold", "#define MAGIC_LT_NAV LT(NAV, KC_NO)"},
		{"mod tap hold", "#define MAGIC_MT_LSFT LSFT_T(KC_NO)"},
		{"layout macro", "[BASE_NIGHT] = LAYOUT_split_3x5_3("},
		{"home row mods", "HML(LGUI, KC_A)"},
		{"right hand mod", "HMR(LGUI, KC_O)"},
		{"left hand macro", "#define HML(mod, kc) mod##_T(kc)"},
		{"right hand macro", "#define HMR(mod, kc) mod##_T(kc)"},
		{"combo keys", "const uint16_t PROGMEM esc_combo[] = {KC_Q, KC_W, COMBO_END};"},
		{"combo action", "[COMBO_ESC] = COMBO(esc_combo, KC_ESC),"},
		{"combo macro", "[COMBO_EMAIL] = COMBO(email_combo, MACRO_EMAIL),"},
		{"combo layers", "case COMBO_EMAIL:\n            return layer == BASE_NIGHT;"},
		{"combo term", "case COMBO_ESC:\n            return 40;"},
		{"alpha trigger", "case KC_G:\n                    return KC_Y;"},
		{"strict trigger", "case KC_COMM:\n                    if (!mods) {\n                        return KC_QUOT;"},
		{"text trigger", "case KC_T:\n                    return MAGIC_NIGHT_T;"},
		{"repeat default", "return QK_REP;"},
		{"guard", "case KC_Y:\n                    return (magic_prev_keycode == KC_G && !magic_prev_mods);"},
		{"punish", "tap_code16(KC_HASH);"},
		{"macro text", `SEND_STRING("ion");`},
		{"combo text", `SEND_STRING("me@x.io");`},
		{"shift morph", "tap_code16(KC_AT);"},
		{"chordal", "#ifdef CHORDAL_HOLD"},
		{"hold tap", "alt_repeat_key_invoke(&record->event);"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, km, tt.want)
		})
	}
}

func TestRenderDeclaresOnce(t *testing.T) {
	km := render(t, boardConfig(), true)[KeymapFile]
	for _, s := range []string{
		"#define MAGIC_LT_NAV ",
		"#define MAGIC_HRM_LSFT ",
		"#define HML(",
		"#define HMR(",
		"case SM_COMM_AT:",
		"case MAGIC_NIGHT_T:",
		"case MACRO_EMAIL:",
		"uint16_t get_alt_repeat_key_keycode_user(",
	} {
		assert.Equal(t, 1, strings.Count(km, s), s)
	}
	// MAGIC_MT_LSFT and MAGIC_HRM_LSFT expand to the same keycode.
	assert.Equal(t, 1, strings.Count(km, "case MAGIC_HRM_LSFT:"))
	assert.NotContains(t, km, "case MAGIC_MT_LSFT:")
	// The right thumb keeps the authored left shift.
	assert.NotContains(t, km, "MAGIC_HRM_RSFT")
	assert.NotContains(t, km, "RGUI")
}

func TestRenderConfigAndRules(t *testing.T) {
	files := render(t, boardConfig(), true)
	cfg := files[ConfigFile]
	for _, s := range []string{"#pragma once", "#define TAPPING_TERM 280", "#define QUICK_TAP_TERM 175",
		"#define PERMISSIVE_HOLD", "#define CHORDAL_HOLD", "#define COMBO_TERM_PER_COMBO", "#define MAGIC_TRAINING"} {
		assert.Contains(t, cfg, s)
	}
	rules := files[RulesFile]
	assert.Contains(t, rules, "COMBO_ENABLE = yes")
	assert.Contains(t, rules, "REPEAT_KEY_ENABLE = yes")
}

func TestRenderWithoutTraining(t *testing.T) {
	files := render(t, boardConfig(), false)
	assert.NotContains(t, files[KeymapFile], "MAGIC_TRAINING")
	assert.NotContains(t, files[ConfigFile], "MAGIC_TRAINING")
	assert.Contains(t, files[KeymapFile], "get_alt_repeat_key_keycode_user")
}

func TestRenderMinimal(t *testing.T) {
	files := render(t, th.Config(th.CoreLayer("BASE", "A")), false)
	km := files[KeymapFile]
	assert.NotContains(t, km, "custom_keycodes")
	assert.NotContains(t, km, "COMBO_ENABLE")
	assert.NotContains(t, km, "switch (keycode)")
	assert.NotContains(t, km, "#define HML")
	assert.Contains(t, km, "bool process_record_user(uint16_t keycode, keyrecord_t *record) {\n    return true;\n}")
	assert.NotContains(t, files[RulesFile], "yes")
}

func TestRenderRejectsEmptyComboKey(t *testing.T) {
	cfg := th.Config(th.CoreLayer("BASE", "NONE"))
	cfg.Combos = []keymap.Combo{{Name: "esc", Positions: []int{0, 1}, Action: "ESC"}}
	c, err := compiler.New(cfg, keymap.QMK, compiler.Options{}, nil)
	require.NoError(t, err)
	res, err := c.CompileBoard(th.Board("skeletyl", keymap.QMK, "3x5_3"))
	require.NoError(t, err)
	_, err = Render(res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "combo key is KC_NO")
}

func TestRenderWrongFirmware(t *testing.T) {
	_, err := Render(&compiler.BoardResult{Board: th.Board("corne", keymap.ZMK, "3x5_3")})
	assert.Error(t, err)
}
