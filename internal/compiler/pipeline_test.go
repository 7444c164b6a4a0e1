package compiler

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kforge/keyforge/internal/keymap"
	th "github.com/kforge/keyforge/internal/testing"
)

func pipelineConfig() *keymap.Config {
	cfg := th.Config(
		th.CoreLayer("BASE", "A", th.At(30, "osl:NUM")),
		th.CoreLayer("SYM", "EXLM"),
		th.CoreLayer("NUM", "1", th.At(31, "osl:SYM")),
	)
	cfg.Boards = []keymap.Board{
		th.Board("corne", keymap.ZMK, "3x5_3"),
		th.Board("planck", keymap.QMK, "3x5_3"),
	}
	return cfg
}

func TestPipelineRun(t *testing.T) {
	for _, parallel := range []int{1, 4} {
		cfg := pipelineConfig()
		before := cfg.Clone()
		var sunk atomic.Int32
		p := &Pipeline{
			Options: Options{Parallel: parallel},
			Sink: func(_ context.Context, res *BoardResult) error {
				sunk.Add(1)
				return nil
			},
		}
		rep, err := p.Run(context.Background(), cfg)
		require.NoError(t, err)
		require.NoError(t, rep.Err())

		require.Len(t, rep.Results, 2)
		assert.Equal(t, "corne", rep.Results[0].Board.ID)
		assert.Equal(t, "planck", rep.Results[1].Board.ID)
		assert.Equal(t, []string{"BASE", "SYM", "NUM", "SYM_SHADOW"}, rep.Results[0].LayerNames())
		assert.Equal(t, "&sl SYM_SHADOW", rep.Results[0].Layers[2].Keycodes[31])
		assert.Equal(t, "OSL(SYM_SHADOW)", rep.Results[1].Layers[2].Keycodes[31])
		assert.Equal(t, int32(2), sunk.Load())
		assert.Empty(t, rep.Failures)
		assert.Empty(t, cmp.Diff(before.Layers, cfg.Layers))
	}
}

func TestPipelineIsolatesBoardFailures(t *testing.T) {
	cfg := pipelineConfig()
	cfg.Boards[0].LayoutSize = "5x9"
	cfg.Boards = append(cfg.Boards, th.Board("sinkfail", keymap.ZMK, "3x5_3"))
	p := &Pipeline{
		Options: Options{Parallel: 2},
		Sink: func(_ context.Context, res *BoardResult) error {
			if res.Board.ID == "sinkfail" {
				return errors.New("disk full")
			}
			return nil
		},
	}
	rep, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"corne", "sinkfail"}, rep.Failed())
	require.Len(t, rep.Results, 1)
	assert.Equal(t, "planck", rep.Results[0].Board.ID)
	assert.True(t, errors.Is(rep.Err(), keymap.ErrUnknownLayout))
	assert.Contains(t, rep.Err().Error(), "board sinkfail: disk full")
}

func TestPipelineShadowFailureAborts(t *testing.T) {
	cfg := pipelineConfig()
	cfg.Layers = append(cfg.Layers, th.CoreLayer("SYM_SHADOW", "A"))
	_, err := (&Pipeline{}).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, keymap.ErrNameCollision))
}

func TestPipelineOverlayVariant(t *testing.T) {
	cfg := pipelineConfig()
	cfg.Boards[0].KeymapFile = "corne.yaml"
	cfg.Boards[1].KeymapFile = "planck.yaml"
	cfg.Overlays = map[string][]keymap.Layer{
		"corne":  {th.CoreLayer("BASE", "B", th.At(30, "osl:NUM"))},
		"planck": {th.CoreLayer("SYM_SHADOW", "A")},
	}
	rep, err := (&Pipeline{Options: Options{Boards: []string{"corne", "planck"}}}).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, rep.Results, 1)
	assert.Equal(t, "&kp B", rep.Results[0].Layers[0].Keycodes[0])
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "planck", rep.Failures[0].Board)
	assert.True(t, errors.Is(rep.Failures[0].Err, keymap.ErrNameCollision))
}

func TestPipelineUnknownBoard(t *testing.T) {
	_, err := (&Pipeline{Options: Options{Boards: []string{"ghost"}}}).Run(context.Background(), pipelineConfig())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ghost"))
}

func TestPipelineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := (&Pipeline{}).Run(ctx, pipelineConfig())
	require.NoError(t, err)
	assert.Len(t, rep.Failures, 2)
	assert.True(t, errors.Is(rep.Err(), context.Canceled))
}
