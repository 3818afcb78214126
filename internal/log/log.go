package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLevel names the variable holding the log level.
const EnvLevel = "RENDR_LOG"

// Init sets up apex/log with a Handler on stderr and the level from
// RENDR_LOG, "error" when unset or invalid.
func Init() {
	log.SetHandler(NewHandler(os.Stderr))
	log.SetLevel(Level(os.Getenv(EnvLevel)))
}

// Level parses a level name in any case.
func Level(s string) log.Level {
	if s == "" {
		return log.ErrorLevel
	}
	lvl, err := log.ParseLevel(strings.ToLower(s))
	if err != nil {
		return log.ErrorLevel
	}
	return lvl
}

// Handler writes one compact line per entry: time, level initial, message
// and the fields in key order.
type Handler struct {
	mu sync.Mutex
	w  io.Writer

	// nowFunc is overridable for testing.
	nowFunc func() time.Time
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{w: w, nowFunc: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", h.nowFunc().Format("2006-01-02 15:04:05"), strings.ToUpper(e.Level.String()), e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}
