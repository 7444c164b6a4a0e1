package loader

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kforge/keyforge/internal/keymap"
	th "github.com/kforge/keyforge/internal/testing"
)

const keymapYAML = `
layers:
  BASE_NIGHT:
    core:
      - [B, L, D, W, Z, QUOT, F, O, U, J]
      - [N, R, T, S, G, Y, H, A, E, I]
      - [Q, X, M, C, V, K, P, COMM, DOT, SLSH]
      - [TAB, "lt:NAV:SPC", MAGIC, ENT, BSPC, DEL]
    extensions:
      3x6_3:
        keys:
          outer_pinky_left: [ESC, LSFT, LCTL]
          outer_pinky_right: [MINS, RSFT, RCTL]
  NAV:
    family: BASE_NIGHT
    core:
      - [NONE, NONE, NONE, NONE, NONE, NONE, NONE, NONE, NONE, NONE]
      - [NONE, NONE, NONE, NONE, NONE, LEFT, DOWN, UP, RGHT, NONE]
      - [NONE, NONE, NONE, NONE, NONE, NONE, NONE, NONE, NONE, NONE]
      - [TRNS, TRNS, TRNS, TRNS, TRNS, TRNS]
  GAME:
    full_layout:
      - [L36_0, {l36: 1}, 1, 2]
combos:
  - name: esc
    key_positions: [0, 1]
    action: ESC
    timeout_ms: 40
  - name: email
    key_positions: [20, 21]
    macro_text: "me@example.com"
    layers: [BASE_NIGHT]
magic_keys:
  BASE_NIGHT:
    default: REPEAT
    timeout_ms: 800
    mappings:
      "y": "'"
      t: ion
      ",": {kc: QUOT}
      q: {text: "ua"}
hold_taps:
  hml:
    tapping_term_ms: 280
    quick_tap_ms: 175
    flavor: balanced
`

const boardsYAML = `
boards:
  corne:
    name: Corne
    firmware: zmk
    layout_size: 3x6_3
    zmk_shield: corne
  skeletyl:
    firmware: qmk
    layout_size: 3x5_3
    qmk_keyboard: bastardkb/skeletyl
    qmk_layout: LAYOUT_split_3x5_3
    extra_layers: [GAME]
  lily58:
    firmware: qmk
    layout_size: custom_58_from_3x6
    keymap_file: lily58.yaml
`

const overlayYAML = `
layers:
  GAME:
    full_layout:
      - [L36_0, W, E, R]
  EXTRA:
    core:
      - [A, A, A, A, A, A, A, A, A, A]
      - [A, A, A, A, A, A, A, A, A, A]
      - [A, A, A, A, A, A, A, A, A, A]
      - [A, A, A, A, A, A]
`

func writeConfig(t *testing.T, extra map[string]string) string {
	t.Helper()
	files := map[string]string{
		KeymapFile:   keymapYAML,
		BoardsFile:   boardsYAML,
		"lily58.yaml": overlayYAML,
	}
	for k, v := range extra {
		files[k] = v
	}
	return th.WriteFiles(t, files)
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, nil), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"BASE_NIGHT", "NAV", "GAME"}, cfg.LayerNames())
	base := cfg.Layers[0]
	assert.Len(t, base.Core.Flatten(), keymap.CoreKeys)
	assert.Equal(t, "lt:NAV:SPC", base.Core.Flatten()[31].Key)
	assert.Equal(t, []keymap.Token{keymap.Key("ESC"), keymap.Key("LSFT"), keymap.Key("LCTL")},
		base.Extensions["3x6_3"].Keys["outer_pinky_left"])
	assert.Equal(t, "BASE_NIGHT", cfg.Layers[1].Family)

	game := cfg.Layers[2].FullLayout.Flatten()
	assert.Equal(t, []keymap.Token{keymap.Ref(0), keymap.Ref(1), keymap.Key("1"), keymap.Key("2")}, game)

	require.Len(t, cfg.Combos, 2)
	assert.Equal(t, []int{0, 1}, cfg.Combos[0].Positions)
	assert.Equal(t, 40, cfg.Combos[0].TimeoutMs)
	require.True(t, cfg.Combos[1].IsMacro())
	assert.Equal(t, "me@example.com", *cfg.Combos[1].MacroText)
	assert.Equal(t, []string{"BASE_NIGHT"}, cfg.Combos[1].Layers)

	require.Len(t, cfg.Magic, 1)
	m := cfg.Magic[0]
	assert.Equal(t, "REPEAT", m.Default)
	assert.Equal(t, 800, m.TimeoutMs)
	assert.Equal(t, []keymap.MagicEntry{
		{Predecessor: "y", Alternate: keymap.Alternate{Key: "'"}},
		{Predecessor: "t", Alternate: keymap.Alternate{Text: "ion"}},
		{Predecessor: ",", Alternate: keymap.Alternate{Key: "QUOT"}},
		{Predecessor: "q", Alternate: keymap.Alternate{Text: "ua"}},
	}, m.Entries)
	assert.Equal(t, keymap.HoldTapTiming{TappingTermMs: 280, QuickTapMs: 175, Flavor: "balanced"}, cfg.HoldTaps["hml"])

	require.Len(t, cfg.Boards, 3)
	assert.Equal(t, "corne", cfg.Boards[0].ID)
	assert.Equal(t, "Corne", cfg.Boards[0].Name)
	assert.Equal(t, keymap.ZMK, cfg.Boards[0].Firmware)
	assert.Equal(t, "skeletyl", cfg.Boards[1].Name)
	assert.Equal(t, []string{"GAME"}, cfg.Boards[1].ExtraLayers)

	require.Contains(t, cfg.Overlays, "lily58")
	overlay := cfg.Overlays["lily58"]
	require.Len(t, overlay, 2)
	assert.Equal(t, "GAME", overlay[0].Name)
	assert.Equal(t, "EXTRA", overlay[1].Name)

	_, ok := cfg.Keycodes.Lookup("A")
	assert.True(t, ok, "built-in keycodes are always present")
	assert.Contains(t, cfg.Aliases, "hrm")
}

func TestLoadMergesTables(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		KeycodesFile: `
SQT:
  qmk: KC_QUOT
  zmk: "&kp SQT"
A:
  qmk: KC_A
  zmk: "&kp A"
  display_name: a
`,
		AliasesFile: `
mo:
  params: [layer]
  firmware:
    qmk: {supported: true, template: "MO({layer})"}
    zmk: {supported: true, template: "&mo {layer}"}
cw:
  params: []
  firmware:
    zmk: {supported: true, template: "&caps_word"}
`,
	})
	cfg, err := Load(dir, nil)
	require.NoError(t, err)

	sqt, ok := cfg.Keycodes.Lookup("SQT")
	require.True(t, ok)
	assert.Equal(t, "&kp SQT", sqt.ZMK)
	_, ok = cfg.Keycodes.Lookup("B")
	assert.True(t, ok)

	require.Contains(t, cfg.Aliases, "cw")
	assert.Equal(t, "cw", cfg.Aliases["cw"].Name)
	assert.False(t, cfg.Aliases["cw"].Target(keymap.QMK).Supported)
	assert.Equal(t, "&mo {layer}", cfg.Aliases["mo"].Target(keymap.ZMK).Template)
}

func TestLoadMissingOverlay(t *testing.T) {
	dir := th.WriteFiles(t, map[string]string{KeymapFile: keymapYAML, BoardsFile: boardsYAML})
	cfg, err := Load(dir, nil)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Overlays, "lily58")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
		msg     string
	}{
		{
			name:  "missing keymap",
			files: map[string]string{BoardsFile: boardsYAML},
			msg:   "failed to read keymap",
		},
		{
			name:    "short core",
			files:   map[string]string{KeymapFile: "layers:\n  BASE:\n    core:\n      - [A, B]\n", BoardsFile: "boards: {}\n"},
			wantErr: keymap.ErrKeyCount,
		},
		{
			name:  "duplicate layer",
			files: map[string]string{KeymapFile: "layers:\n  BASE:\n    full_layout: [[A]]\n  BASE:\n    full_layout: [[B]]\n", BoardsFile: "boards: {}\n"},
			msg:   "BASE",
		},
		{
			name: "unknown layout",
			files: map[string]string{
				KeymapFile: "layers:\n  BASE:\n    full_layout: [[A]]\n",
				BoardsFile: "boards:\n  odd:\n    firmware: qmk\n    layout_size: 4x7\n",
			},
			wantErr: keymap.ErrUnknownLayout,
		},
		{
			name: "unknown extra layer",
			files: map[string]string{
				KeymapFile: "layers:\n  BASE:\n    full_layout: [[A]]\n",
				BoardsFile: "boards:\n  odd:\n    firmware: zmk\n    layout_size: 3x5_3\n    extra_layers: [GAME]\n",
			},
			wantErr: keymap.ErrUnknownLayer,
		},
		{
			name: "bad firmware",
			files: map[string]string{
				KeymapFile: "layers:\n  BASE:\n    full_layout: [[A]]\n",
				BoardsFile: "boards:\n  odd:\n    firmware: kmk\n    layout_size: 3x5_3\n",
			},
			msg: `unknown firmware "kmk"`,
		},
		{
			name: "combo with action and text",
			files: map[string]string{
				KeymapFile: "layers:\n  BASE:\n    full_layout: [[A]]\ncombos:\n  - name: x\n    key_positions: [1]\n    action: A\n    macro_text: hi\n",
				BoardsFile: "boards: {}\n",
			},
			msg: "needs exactly one of action or macro_text",
		},
		{
			name: "magic on unknown layer",
			files: map[string]string{
				KeymapFile: "layers:\n  BASE:\n    full_layout: [[A]]\nmagic_keys:\n  BASE_DAY:\n    mappings: {a: b}\n",
				BoardsFile: "boards: {}\n",
			},
			wantErr: keymap.ErrUnknownLayer,
		},
		{
			name: "bad alternate",
			files: map[string]string{
				KeymapFile: "layers:\n  BASE:\n    full_layout: [[A]]\nmagic_keys:\n  BASE:\n    mappings:\n      a: {kc: B, text: c}\n",
				BoardsFile: "boards: {}\n",
			},
			msg: `predecessor "a"`,
		},
		{
			name: "bad reference",
			files: map[string]string{
				KeymapFile: "layers:\n  BASE:\n    full_layout: [[{l36: 1, x: 2}]]\n",
				BoardsFile: "boards: {}\n",
			},
			msg: "reference must be {l36: N}",
		},
		{
			name: "built-in alias redeclared with other params",
			files: map[string]string{
				KeymapFile:  "layers:\n  BASE:\n    full_layout: [[A]]\n",
				BoardsFile:  "boards: {}\n",
				AliasesFile: "lt:\n  params: [layer]\n  firmware:\n    qmk: {supported: true, template: \"MO({layer})\"}\n",
			},
			wantErr: keymap.ErrInvalidAliasArity,
			msg:     "alias lt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(th.WriteFiles(t, tt.files), nil)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestSources(t *testing.T) {
	dir := writeConfig(t, nil)
	cfg, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, AliasesFile),
		filepath.Join(dir, BoardsFile),
		filepath.Join(dir, KeycodesFile),
		filepath.Join(dir, KeymapFile),
		filepath.Join(dir, "lily58.yaml"),
	}, Sources(dir, cfg))
}
