package qmk

const keymapTmpl = `// {{.Banner}}
// Board: {{.Board.Name}} ({{.Board.ID}})

#include QMK_KEYBOARD_H

enum layers {
{{- range .LayerNames}}
    {{.}},
{{- end}}
};
{{- if .Custom}}

enum custom_keycodes {
{{- range $i, $k := .Custom}}
    {{$k}}{{if eq $i 0}} = SAFE_RANGE{{end}},
{{- end}}
};
{{- end}}
{{- if .HomeRowMods}}
{{range .HomeRowMods}}
#define {{.}}(mod, kc) mod##_T(kc)
{{- end}}
{{- end}}
{{- if .Holds}}
{{range .Holds}}
#define {{.Name}} {{.Definition}}
{{- end}}
{{- end}}

const uint16_t PROGMEM keymaps[][MATRIX_ROWS][MATRIX_COLS] = {
{{- range .Layers}}
    [{{.Name}}] = {{$.Layout}}(
{{- range .Rows}}
        {{.}}
{{- end}}
    ),
{{- end}}
};
{{- if .Chordal}}

#ifdef CHORDAL_HOLD
const char chordal_hold_layout[MATRIX_ROWS][MATRIX_COLS] PROGMEM = {{.Layout}}(
{{- range .Chordal}}
    {{.}}
{{- end}}
);
#endif
{{- end}}
{{- if .Combos}}

#ifdef COMBO_ENABLE
enum combo_events {
{{- range .Combos}}
    {{.ID}},
{{- end}}
};
{{range .Combos}}
const uint16_t PROGMEM {{.Array}}[] = { {{- .Keys}}, COMBO_END};
{{- end}}

combo_t key_combos[] = {
{{- range .Combos}}
    [{{.ID}}] = COMBO({{.Array}}, {{.Binding}}),
{{- end}}
};
{{- if .ComboLayers}}

bool combo_should_trigger(uint16_t combo_index, combo_t *combo, uint16_t keycode, keyrecord_t *record) {
    uint8_t layer = get_highest_layer(layer_state | default_layer_state);
    switch (combo_index) {
{{- range .Combos}}{{if .Layers}}
        case {{.ID}}:
            return {{layerTest .Layers}};
{{- end}}{{end}}
    }
    return true;
}
{{- end}}
{{- if .ComboTerms}}

#ifdef COMBO_TERM_PER_COMBO
uint16_t get_combo_term(uint16_t combo_index, combo_t *combo) {
    switch (combo_index) {
{{- range .Combos}}{{if .TimeoutMs}}
        case {{.ID}}:
            return {{.TimeoutMs}};
{{- end}}{{end}}
    }
    return COMBO_TERM;
}
#endif
{{- end}}
#endif
{{- end}}
{{- if .Repeat}}

uint16_t get_alt_repeat_key_keycode_user(uint16_t keycode, uint8_t mods) {
    switch (get_highest_layer(default_layer_state)) {
{{- range .Repeat}}
        case {{.Family}}:
            switch (keycode) {
{{- range .Triggers}}
                case {{.Key}}:
{{- if .Strict}}
                    if (!mods) {
                        return {{.Binding}};
                    }
                    break;
{{- else}}
                    return {{.Binding}};
{{- end}}
{{- end}}
            }
            return {{.Default}};
{{- end}}
    }
    return KC_TRNS;
}
{{- end}}
{{- if .Training}}

#ifdef MAGIC_TRAINING
static uint16_t magic_prev_keycode = KC_NO;
static uint8_t  magic_prev_mods    = 0;

static uint16_t magic_training_first_keycode(uint16_t keycode, keyrecord_t *record) {
    if (IS_QK_MOD_TAP(keycode)) {
        return record->tap.count ? QK_MOD_TAP_GET_TAP_KEYCODE(keycode) : KC_NO;
    }
    if (IS_QK_LAYER_TAP(keycode)) {
        return record->tap.count ? QK_LAYER_TAP_GET_TAP_KEYCODE(keycode) : KC_NO;
    }
    return keycode;
}

static bool magic_training_punish(uint16_t keycode) {
    switch (get_highest_layer(default_layer_state)) {
{{- range .Training}}
        case {{.Family}}:
            switch (keycode) {
{{- range .Guards}}
                case {{.Key}}:
                    return {{.Condition}};
{{- end}}
            }
            break;
{{- end}}
    }
    return false;
}
#endif
{{- end}}

bool process_record_user(uint16_t keycode, keyrecord_t *record) {
{{- if .Training}}
#ifdef MAGIC_TRAINING
    if (record->event.pressed) {
        uint16_t tap = magic_training_first_keycode(keycode, record);
        if (tap != KC_NO) {
            if (magic_training_punish(tap)) {
                tap_code16({{.Punish}});
                magic_prev_keycode = KC_NO;
                return false;
            }
            magic_prev_keycode = tap;
            magic_prev_mods    = get_mods() | get_oneshot_mods();
        }
    }
#endif
{{- end}}
{{- if .HasHandlers}}
    switch (keycode) {
{{- range .Macros}}
        case {{.Name}}:
            if (record->event.pressed) {
                SEND_STRING({{cstring .Text}});
            }
            return false;
{{- end}}
{{- range .ShiftMorphs}}
        case {{.Name}}:
            if (record->event.pressed) {
                uint8_t mods = get_mods();
                if ((mods | get_oneshot_mods()) & MOD_MASK_SHIFT) {
                    del_oneshot_mods(MOD_MASK_SHIFT);
                    unregister_mods(MOD_MASK_SHIFT);
                    tap_code16({{.Shifted}});
                    set_mods(mods);
                } else {
                    tap_code16({{.Base}});
                }
            }
            return false;
{{- end}}
{{- range .Holds}}{{if .Case}}
        case {{.Name}}:
            if (record->tap.count) {
                alt_repeat_key_invoke(&record->event);
                return false;
            }
            break;
{{- end}}{{end}}
    }
{{- end}}
    return true;
}
`

const configTmpl = `// {{.Banner}}
// Board: {{.Board.Name}} ({{.Board.ID}})

#pragma once
{{- with .Timing}}
{{- if .TappingTermMs}}

#define TAPPING_TERM {{.TappingTermMs}}
{{- end}}
{{- if .QuickTapMs}}
#define QUICK_TAP_TERM {{.QuickTapMs}}
{{- end}}
{{- if eq .Flavor "balanced"}}
#define PERMISSIVE_HOLD
{{- else if eq .Flavor "hold-preferred"}}
#define HOLD_ON_OTHER_KEY_PRESS
{{- end}}
{{- end}}
{{- if .Chordal}}

#define CHORDAL_HOLD
{{- end}}
{{- if .ComboTerms}}

#define COMBO_TERM_PER_COMBO
{{- end}}
{{- if .Training}}

#define MAGIC_TRAINING
{{- end}}
`

const rulesTmpl = `# {{.Banner}}
# Board: {{.Board.Name}} ({{.Board.ID}})
{{- if .Combos}}
COMBO_ENABLE = yes
{{- end}}
{{- if .RepeatKey}}
REPEAT_KEY_ENABLE = yes
{{- end}}
`
