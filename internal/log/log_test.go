package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLevelFilterRoutesErrors(t *testing.T) {
	var out, errs bytes.Buffer
	logger := slog.New(MultiHandler{hs: []slog.Handler{
		LevelFilter{pass: func(l slog.Level) bool { return l < slog.LevelError }, h: slog.NewTextHandler(&out, nil)},
		LevelFilter{pass: func(l slog.Level) bool { return l >= slog.LevelError }, h: slog.NewTextHandler(&errs, nil)},
	}})
	logger.Info("compiled", "board", "corne")
	logger.Error("failed", "board", "lily58")

	assert.Contains(t, out.String(), "board=corne")
	assert.NotContains(t, out.String(), "lily58")
	assert.Contains(t, errs.String(), "board=lily58")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewHandlerFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{FormatText, "msg=hello"},
		{FormatJSON, `"msg":"hello"`},
		{FormatAuto, `"msg":"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			slog.New(NewHandler(&buf, tt.format, nil)).Info("hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestSetupLoggerWithFile(t *testing.T) {
	path := t.TempDir() + "/keyforge.log"
	logger, closers, err := SetupLogger("debug", path, FormatText)
	require.NoError(t, err)
	require.Len(t, closers, 1)
	logger.Debug("dumped")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}
}

func TestDumpLogger(t *testing.T) {
	var buf bytes.Buffer
	d := NewDump(&buf)
	var wg sync.WaitGroup
	for _, b := range []string{"corne", "lily58"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Layer(b, "BASE", []string{"&kp A", "&kp B"})
		}()
	}
	wg.Wait()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Contains(t, l, "/BASE keys: 2, bindings: &kp A | &kp B")
	}

	NewDump(nil).Layer("corne", "BASE", []string{"&kp A"})
	d.Layer("corne", "EMPTY", nil)
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 2)
}
