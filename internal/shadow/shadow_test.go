package shadow

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kforge/keyforge/internal/keymap"
	th "github.com/kforge/keyforge/internal/testing"
)

func layerNames(cfg *keymap.Config) []string { return cfg.LayerNames() }

func TestSynthesizeCreatesShadow(t *testing.T) {
	cfg := th.Config(
		th.CoreLayer("BASE", "A"),
		th.CoreLayer("SYM", "EXLM"),
		th.CoreLayer("NUM", "1", th.At(31, "osl:SYM")),
	)
	out, err := Synthesize(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"BASE", "SYM", "NUM", "SYM_SHADOW"}, layerNames(out))

	sym, _ := out.Layer("SYM")
	shadow, _ := out.Layer("SYM_SHADOW")
	assert.Equal(t, "SYM", shadow.ShadowOf)
	assert.Empty(t, cmp.Diff(sym.Core, shadow.Core))
	assert.Equal(t, sym.Extensions, shadow.Extensions)

	num, _ := out.Layer("NUM")
	assert.Equal(t, "osl:SYM_SHADOW", num.Core.Flatten()[31].Key)
	assert.Equal(t, "EXLM", sym.Core.Flatten()[0].Key)
}

func TestSynthesizeKeepsSafeReferences(t *testing.T) {
	cfg := th.Config(
		th.CoreLayer("BASE", "A", th.At(30, "osl:NUM")),
		th.CoreLayer("NUM", "1", th.At(31, "osl:SYM")),
		th.CoreLayer("SYM", "EXLM", th.At(31, "osl:NUM")),
	)
	out, err := Synthesize(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"BASE", "NUM", "SYM", "NUM_SHADOW"}, layerNames(out))
	base, _ := out.Layer("BASE")
	assert.Equal(t, "osl:NUM", base.Core.Flatten()[30].Key, "higher priority target stays")
	num, _ := out.Layer("NUM")
	assert.Equal(t, "osl:SYM", num.Core.Flatten()[31].Key)
	sym, _ := out.Layer("SYM")
	assert.Equal(t, "osl:NUM_SHADOW", sym.Core.Flatten()[31].Key)
}

func TestSynthesizeScansExtensionsAndFullLayouts(t *testing.T) {
	ext := th.CoreLayer("NAV", "LEFT")
	ext.Extensions = map[string]keymap.LayerExtension{
		"3x6_3": {Keys: map[string][]keymap.Token{
			"outer_pinky_left":  {keymap.Key("osl:SYM"), keymap.Key("TAB"), keymap.Key("ESC")},
			"outer_pinky_right": {keymap.Key("A"), keymap.Key("B"), keymap.Key("C")},
		}},
	}
	full := keymap.Layer{Name: "GAME", FullLayout: &keymap.KeyGrid{Rows: [][]keymap.Token{{keymap.Key("osl:SYM"), keymap.Ref(3)}}}}
	cfg := th.Config(th.CoreLayer("SYM", "EXLM"), ext, full)

	out, err := Synthesize(cfg)
	require.NoError(t, err)
	nav, _ := out.Layer("NAV")
	assert.Equal(t, "osl:SYM_SHADOW", nav.Extensions["3x6_3"].Keys["outer_pinky_left"][0].Key)
	game, _ := out.Layer("GAME")
	assert.Equal(t, "osl:SYM_SHADOW", game.FullLayout.Rows[0][0].Key)
	assert.Equal(t, keymap.Ref(3), game.FullLayout.Rows[0][1])
}

func TestSynthesizeDoesNotMutateInput(t *testing.T) {
	cfg := th.Config(
		th.CoreLayer("SYM", "EXLM"),
		th.CoreLayer("NUM", "1", th.At(31, "osl:SYM")),
	)
	before := cfg.Clone()
	_, err := Synthesize(cfg)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(before.Layers, cfg.Layers))
	assert.Len(t, cfg.Layers, 2)
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	cfg := th.Config(
		th.CoreLayer("SYM", "EXLM", th.At(30, "osl:SYM")),
		th.CoreLayer("NUM", "1", th.At(31, "osl:SYM")),
	)
	once, err := Synthesize(cfg)
	require.NoError(t, err)
	twice, err := Synthesize(once)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(once.Layers, twice.Layers))
}

func TestSynthesizeNameCollision(t *testing.T) {
	cfg := th.Config(
		th.CoreLayer("SYM", "EXLM"),
		th.CoreLayer("NUM", "1", th.At(31, "osl:SYM")),
		th.CoreLayer("SYM_SHADOW", "A"),
	)
	_, err := Synthesize(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, keymap.ErrNameCollision))
	assert.Contains(t, err.Error(), "SYM_SHADOW")
}

func TestSynthesizeUnknownLayer(t *testing.T) {
	cfg := th.Config(th.CoreLayer("NUM", "1", th.At(31, "osl:GHOST")))
	_, err := Synthesize(cfg)
	assert.True(t, errors.Is(err, keymap.ErrUnknownLayer))
}

func TestSynthesizeNoOsl(t *testing.T) {
	cfg := th.Config(th.CoreLayer("BASE", "A"))
	out, err := Synthesize(cfg)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(cfg.Layers, out.Layers))
	assert.NotSame(t, cfg, out)
}
