package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// DumpLogger writes compiled layers, one line each, for debugging keymaps.
type DumpLogger interface {
	Layer(board, layer string, keycodes []string)
}

type dumpLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewDump creates a new DumpLogger. If writer is nil, returns a no-op logger.
func NewDump(w io.Writer) DumpLogger {
	return &dumpLogger{w: w}
}

// Layer emits a single line with timestamp, key count and every binding
// separated by " | ". Safe for concurrent boards.
func (d *dumpLogger) Layer(board, layer string, keycodes []string) {
	if d.w == nil || len(keycodes) == 0 {
		return
	}
	line := fmt.Sprintf("%s %s/%s keys: %d, bindings: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		board,
		layer,
		len(keycodes),
		strings.Join(keycodes, " | "))

	d.mu.Lock()
	_, _ = d.w.Write([]byte(line))
	d.mu.Unlock()
}
