package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// NewCLI constructs a logger that emits terse human-readable records
// suitable for interactive use. If level is nil, slog.LevelInfo is
// used.
func NewCLI(w io.Writer, level slog.Leveler) *slog.Logger {
	if w == nil {
		panic("logging: writer must not be nil")
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return slog.New(&cliHandler{writer: w, level: level})
}

// NewJSON constructs a logger that emits structured JSON records.
func NewJSON(w io.Writer, level slog.Leveler) *slog.Logger {
	if w == nil {
		panic("logging: writer must not be nil")
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Ensure returns the provided logger or the process default if nil.
func Ensure(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// ParseLevel maps a user-supplied level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// cliHandler renders records as "LEVEL <time> | message key=value".
type cliHandler struct {
	writer io.Writer
	level  slog.Leveler

	mu     sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func (h *cliHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

func (h *cliHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	b.WriteString(strings.ToUpper(record.Level.String()))
	b.WriteByte(' ')
	b.WriteString(timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" | ")
	b.WriteString(record.Message)

	for _, attr := range h.attrs {
		h.writeAttr(&b, h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		h.writeAttr(&b, h.groups, attr)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *cliHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &cliHandler{
		writer: h.writer,
		level:  h.level,
		attrs:  merged,
		groups: h.groups,
	}
}

func (h *cliHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &cliHandler{
		writer: h.writer,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(append([]string(nil), h.groups...), name),
	}
}

func (h *cliHandler) writeAttr(b *strings.Builder, groups []string, attr slog.Attr) {
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		nested := append(append([]string(nil), groups...), attr.Key)
		for _, member := range value.Group() {
			h.writeAttr(b, nested, member)
		}
		return
	}

	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(formatValue(value))
}

func formatValue(value slog.Value) string {
	switch value.Kind() {
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := value.Any().(error); ok && err != nil {
			return err.Error()
		}
		return fmt.Sprint(value.Any())
	default:
		return value.String()
	}
}
