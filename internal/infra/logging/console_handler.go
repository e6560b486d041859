package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiReset     = "\033[0m"
	ansiRed       = "\033[31m"
	ansiGreen     = "\033[32m"
	ansiYellow    = "\033[33m"
	ansiCyan      = "\033[36m"
	ansiGray      = "\033[90m"
	ansiUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var levelColors = map[slog.Level]string{
	slog.LevelDebug: ansiCyan,
	slog.LevelInfo:  ansiGreen,
	slog.LevelWarn:  ansiYellow,
	slog.LevelError: ansiRed,
}

// ConsoleHandler implements slog.Handler with colored, human-readable output
// suitable for development.
type ConsoleHandler struct {
	// Output is the destination for log output (typically os.Stderr)
	Output io.Writer
	// Level is the minimum level for log records to be processed
	Level slog.Leveler
	// PkgLevels maps logger name prefixes to minimum log levels
	PkgLevels map[string]slog.Level

	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	if !h.nameEnabled(loggerName(attrs), r.Level) {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(ansiGray + r.Time.Format("15:04:05.000") + ansiReset)
	sb.WriteString(" " + levelColors[r.Level] + "[" + r.Level.String() + "]" + ansiReset)
	sb.WriteString(" " + r.Message)

	if len(attrs) > 0 {
		prefix := ""
		if len(h.groups) > 0 {
			prefix = strings.Join(h.groups, ".") + "."
		}

		sb.WriteString(" " + ansiGray + "|" + ansiReset)
		writeAttrs(&sb, prefix, attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		sb.WriteString("\n-> " + ansiGray + filepath.Base(frame.Function) + "()")
		sb.WriteString(" in " + ansiUnderline + frame.File + ":" + strconv.Itoa(frame.Line) + ansiReset)
	}

	sb.WriteString("\n")

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}

	_, err := io.WriteString(h.Output, sb.String())

	return err //nolint:wrapcheck
}

// nameEnabled applies the most specific PkgLevels entry matching name.
func (h *ConsoleHandler) nameEnabled(name string, level slog.Level) bool {
	for key := name; ; {
		if threshold, ok := h.PkgLevels[key]; ok {
			return level >= threshold
		}

		idx := strings.LastIndex(key, ".")
		if idx < 0 {
			break
		}

		key = key[:idx]
	}

	if threshold, ok := h.PkgLevels[""]; ok {
		return level >= threshold
	}

	return level >= h.Level.Level()
}

func loggerName(attrs []slog.Attr) string {
	for _, attr := range attrs {
		if attr.Key == loggerNameKey {
			return attr.Value.String()
		}
	}

	return ""
}

func writeAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			writeAttrs(sb, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + attr.Key + "=" + ansiGray + attr.Value.String() + ansiReset)
	}
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)

	return clone
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)

	return clone
}

// Enabled implements slog.Handler.Enabled. Per-logger filtering happens in Handle
// because the logger name is only known from the record's attributes.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if len(h.PkgLevels) > 0 {
		return true
	}

	return h.Level.Level() <= level
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	mu := h.mu
	if mu == nil {
		mu = new(sync.Mutex)
	}

	return &ConsoleHandler{
		Output:    h.Output,
		Level:     h.Level,
		PkgLevels: h.PkgLevels,
		attrs:     append([]slog.Attr(nil), h.attrs...),
		groups:    append([]string(nil), h.groups...),
		mu:        mu,
	}
}
