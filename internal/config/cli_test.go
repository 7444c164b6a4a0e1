package config

import (
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Exit(func(int) { t.Fatal("exited") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
		check   func(t *testing.T, cli *CLI)
	}{
		{
			name:    "generate defaults",
			args:    []string{"generate"},
			command: "generate",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "info", cli.Log.Level)
				assert.Equal(t, "auto", cli.Log.Format)
				assert.Equal(t, 4, cli.Generate.Parallel)
				assert.False(t, cli.Generate.NoMagicTraining)
				assert.Contains(t, cli.Generate.ConfigDir, "config")
			},
		},
		{
			name:    "generate flags",
			args:    []string{"--log.level=debug", "generate", "--boards=corne,lily58", "--no-magic-training", "--parallel=1"},
			command: "generate",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "debug", cli.Log.Level)
				assert.Equal(t, []string{"corne", "lily58"}, cli.Generate.Boards)
				assert.True(t, cli.Generate.NoMagicTraining)
				assert.Equal(t, 1, cli.Generate.Parallel)
			},
		},
		{
			name:    "watch",
			args:    []string{"watch", "--debounce=1s"},
			command: "watch",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, time.Second, cli.Watch.Debounce)
				assert.Contains(t, cli.Watch.OutputDir, "out")
			},
		},
		{
			name:    "config init",
			args:    []string{"config", "init", "watch", "--format=yaml"},
			command: "config init <command>",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "watch", cli.Config.Init.Command)
				assert.Equal(t, "yaml", cli.Config.Init.Format)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, ctx := parse(t, tt.args...)
			assert.Equal(t, tt.command, ctx.Command())
			tt.check(t, cli)
		})
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("KEYFORGE_LOG_FORMAT", "json")
	t.Setenv("KEYFORGE_NO_MAGIC_TRAINING", "true")
	cli, _ := parse(t, "validate")
	assert.Equal(t, "json", cli.Log.Format)
	assert.True(t, cli.Validate.NoMagicTraining)
}

func TestParseRejectsUnknownLevel(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse([]string{"--log.level=loud", "generate"})
	assert.Error(t, err)
}
