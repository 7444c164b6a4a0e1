package translate

import (
	"strconv"

	"github.com/kforge/keyforge/internal/keymap"
)

type kc = keymap.Keycode

var namedKeycodes = map[string]kc{
	"NONE":      {QMK: "KC_NO", ZMK: "&none"},
	"TRNS":      {QMK: "KC_TRNS", ZMK: "&trans"},
	"REPEAT":    {QMK: "QK_REP", ZMK: "&key_repeat"},
	"CAPS_WORD": {QMK: "CW_TOGG", ZMK: "&caps_word"},
	"CAPS":      {QMK: "KC_CAPS", ZMK: "&kp CAPS"},
	"BOOT":      {QMK: "QK_BOOT", ZMK: "&bootloader"},

	"SPC":  {QMK: "KC_SPC", ZMK: "&kp SPACE", Char: " "},
	"ENT":  {QMK: "KC_ENT", ZMK: "&kp ENTER"},
	"TAB":  {QMK: "KC_TAB", ZMK: "&kp TAB"},
	"ESC":  {QMK: "KC_ESC", ZMK: "&kp ESC"},
	"BSPC": {QMK: "KC_BSPC", ZMK: "&kp BSPC"},
	"DEL":  {QMK: "KC_DEL", ZMK: "&kp DEL"},

	"LEFT": {QMK: "KC_LEFT", ZMK: "&kp LEFT"},
	"DOWN": {QMK: "KC_DOWN", ZMK: "&kp DOWN"},
	"UP":   {QMK: "KC_UP", ZMK: "&kp UP"},
	"RGHT": {QMK: "KC_RGHT", ZMK: "&kp RIGHT"},
	"HOME": {QMK: "KC_HOME", ZMK: "&kp HOME"},
	"END":  {QMK: "KC_END", ZMK: "&kp END"},
	"PGUP": {QMK: "KC_PGUP", ZMK: "&kp PG_UP"},
	"PGDN": {QMK: "KC_PGDN", ZMK: "&kp PG_DN"},

	"LSFT": {QMK: "KC_LSFT", ZMK: "&kp LSHFT"},
	"RSFT": {QMK: "KC_RSFT", ZMK: "&kp RSHFT"},
	"LCTL": {QMK: "KC_LCTL", ZMK: "&kp LCTRL"},
	"RCTL": {QMK: "KC_RCTL", ZMK: "&kp RCTRL"},
	"LALT": {QMK: "KC_LALT", ZMK: "&kp LALT"},
	"RALT": {QMK: "KC_RALT", ZMK: "&kp RALT"},
	"LGUI": {QMK: "KC_LGUI", ZMK: "&kp LGUI"},
	"RGUI": {QMK: "KC_RGUI", ZMK: "&kp RGUI"},

	"DOT":  {QMK: "KC_DOT", ZMK: "&kp DOT", Char: "."},
	"COMM": {QMK: "KC_COMM", ZMK: "&kp COMMA", Char: ","},
	"SCLN": {QMK: "KC_SCLN", ZMK: "&kp SEMI", Char: ";"},
	"COLN": {QMK: "KC_COLN", ZMK: "&kp COLON", Char: ":"},
	"QUOT": {QMK: "KC_QUOT", ZMK: "&kp SQT", Char: "'"},
	"DQUO": {QMK: "KC_DQUO", ZMK: "&kp DQT", Char: "\""},
	"SLSH": {QMK: "KC_SLSH", ZMK: "&kp SLASH", Char: "/"},
	"BSLS": {QMK: "KC_BSLS", ZMK: "&kp BSLH", Char: "\\"},
	"MINS": {QMK: "KC_MINS", ZMK: "&kp MINUS", Char: "-"},
	"UNDS": {QMK: "KC_UNDS", ZMK: "&kp UNDER", Char: "_"},
	"EQL":  {QMK: "KC_EQL", ZMK: "&kp EQUAL", Char: "="},
	"PLUS": {QMK: "KC_PLUS", ZMK: "&kp PLUS", Char: "+"},
	"GRV":  {QMK: "KC_GRV", ZMK: "&kp GRAVE", Char: "`"},
	"TILD": {QMK: "KC_TILD", ZMK: "&kp TILDE", Char: "~"},
	"EXLM": {QMK: "KC_EXLM", ZMK: "&kp EXCL", Char: "!"},
	"QUES": {QMK: "KC_QUES", ZMK: "&kp QMARK", Char: "?"},
	"AT":   {QMK: "KC_AT", ZMK: "&kp AT", Char: "@"},
	"HASH": {QMK: "KC_HASH", ZMK: "&kp HASH", Char: "#"},
	"DLR":  {QMK: "KC_DLR", ZMK: "&kp DOLLAR", Char: "$"},
	"PERC": {QMK: "KC_PERC", ZMK: "&kp PERCENT", Char: "%"},
	"CIRC": {QMK: "KC_CIRC", ZMK: "&kp CARET", Char: "^"},
	"AMPR": {QMK: "KC_AMPR", ZMK: "&kp AMPS", Char: "&"},
	"ASTR": {QMK: "KC_ASTR", ZMK: "&kp STAR", Char: "*"},
	"PIPE": {QMK: "KC_PIPE", ZMK: "&kp PIPE", Char: "|"},
	"LPRN": {QMK: "KC_LPRN", ZMK: "&kp LPAR", Char: "("},
	"RPRN": {QMK: "KC_RPRN", ZMK: "&kp RPAR", Char: ")"},
	"LBRC": {QMK: "KC_LBRC", ZMK: "&kp LBKT", Char: "["},
	"RBRC": {QMK: "KC_RBRC", ZMK: "&kp RBKT", Char: "]"},
	"LCBR": {QMK: "KC_LCBR", ZMK: "&kp LBRC", Char: "{"},
	"RCBR": {QMK: "KC_RCBR", ZMK: "&kp RBRC", Char: "}"},
	"LT":   {QMK: "KC_LT", ZMK: "&kp LT", Char: "<"},
	"GT":   {QMK: "KC_GT", ZMK: "&kp GT", Char: ">"},

	"VOLU": {QMK: "KC_VOLU", ZMK: "&kp C_VOL_UP"},
	"VOLD": {QMK: "KC_VOLD", ZMK: "&kp C_VOL_DN"},
	"MUTE": {QMK: "KC_MUTE", ZMK: "&kp C_MUTE"},
	"MPLY": {QMK: "KC_MPLY", ZMK: "&kp C_PP"},
	"MNXT": {QMK: "KC_MNXT", ZMK: "&kp C_NEXT"},
	"MPRV": {QMK: "KC_MPRV", ZMK: "&kp C_PREV"},
}

// DefaultKeycodes returns the built-in keycode table: letters, digits,
// function keys, punctuation, navigation, modifiers and the special keys.
func DefaultKeycodes() map[string]keymap.Keycode {
	out := make(map[string]keymap.Keycode, len(namedKeycodes)+64)
	for name, k := range namedKeycodes {
		out[name] = k
	}
	for c := 'A'; c <= 'Z'; c++ {
		s := string(c)
		out[s] = kc{QMK: "KC_" + s, ZMK: "&kp " + s, Char: string(c + ('a' - 'A'))}
	}
	for d := 0; d <= 9; d++ {
		s := strconv.Itoa(d)
		out[s] = kc{QMK: "KC_" + s, ZMK: "&kp N" + s, Char: s}
	}
	for f := 1; f <= 12; f++ {
		s := "F" + strconv.Itoa(f)
		out[s] = kc{QMK: "KC_" + s, ZMK: "&kp " + s}
	}
	return out
}

func both(tmplQMK, tmplZMK string) map[keymap.Firmware]keymap.AliasTarget {
	out := map[keymap.Firmware]keymap.AliasTarget{}
	if tmplQMK != "" {
		out[keymap.QMK] = keymap.AliasTarget{Supported: true, Template: tmplQMK}
	}
	if tmplZMK != "" {
		out[keymap.ZMK] = keymap.AliasTarget{Supported: true, Template: tmplZMK}
	}
	return out
}

// DefaultAliases returns the built-in behavior aliases. Aliases with
// dedicated rendering carry no template.
func DefaultAliases() map[string]keymap.BehaviorAlias {
	special := both("-", "-")
	aliases := map[string]keymap.BehaviorAlias{
		AliasHomeRowMod:   {Params: []string{"mod", "key"}, Firmware: special},
		AliasLayerTap:     {Params: []string{"layer", "key"}, Firmware: special},
		AliasModTap:       {Params: []string{"mod", "key"}, Firmware: special},
		AliasShiftMorph:   {Params: []string{"base", "shifted"}, Firmware: special},
		AliasDefaultLayer: {Params: []string{"layer"}, Firmware: special},
		AliasOneShotLayer: {Params: []string{"layer"}, Firmware: special},
		AliasBluetooth:    {Params: []string{"action"}, Firmware: both("", "&bt {action}")},
		"mo":              {Params: []string{"layer"}, Firmware: both("MO({layer})", "&mo {layer}")},
		"tg":              {Params: []string{"layer"}, Firmware: both("TG({layer})", "&tog {layer}")},
		"to":              {Params: []string{"layer"}, Firmware: both("TO({layer})", "&to {layer}")},
		"out":             {Params: []string{"target"}, Firmware: both("", "&out {target}")},
		"os":              {Params: []string{"mod"}, Firmware: both("OSM(MOD_{mod})", "&sk {mod}")},
	}
	for name, a := range aliases {
		a.Name = name
		aliases[name] = a
	}
	return aliases
}
