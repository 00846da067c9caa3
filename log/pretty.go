package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/valyala/bytebufferpool"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// layout arranges the colorized fields of a single record.
type layout interface {
	begin(buf *bytebufferpool.ByteBuffer)
	field(buf *bytebufferpool.ByteBuffer, n int, key string, v slog.Value)
	end(buf *bytebufferpool.ByteBuffer)
}

// textLayout writes key=value pairs on a single line.
type textLayout struct{}

func (textLayout) begin(*bytebufferpool.ByteBuffer) {}

func (textLayout) field(
	buf *bytebufferpool.ByteBuffer, n int, key string, v slog.Value,
) {
	if n > 0 {
		_ = buf.WriteByte(' ')
	}

	_, _ = buf.WriteString(colorGray + key + colorReset + "=")
	writeValue(buf, v)
}

func (textLayout) end(*bytebufferpool.ByteBuffer) {}

// jsonLayout writes one indented member per line between braces.
type jsonLayout struct{}

func (jsonLayout) begin(buf *bytebufferpool.ByteBuffer) {
	_, _ = buf.WriteString("{")
}

func (jsonLayout) field(
	buf *bytebufferpool.ByteBuffer, n int, key string, v slog.Value,
) {
	if n > 0 {
		_ = buf.WriteByte(',')
	}

	_, _ = buf.WriteString("\n  " + colorGray + key + colorReset + ": ")
	writeValue(buf, v)
}

func (jsonLayout) end(buf *bytebufferpool.ByteBuffer) {
	_, _ = buf.WriteString("\n}")
}

// prettyHandler is a colorized [slog.Handler] for interactive terminals.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	layout layout
	prefix string
	attrs  []slog.Attr
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	l layout,
) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, layout: l}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	n := 0
	emit := func(a slog.Attr, qualify bool) {
		if !qualify && a.Key == slog.TimeKey && h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Equal(slog.Attr{}) {
			return
		}

		key := a.Key
		if qualify {
			key = h.prefix + key
		}

		h.layout.field(buf, n, key, a.Value.Resolve())
		n++
	}

	h.layout.begin(buf)

	if !r.Time.IsZero() {
		emit(slog.Time(slog.TimeKey, r.Time), false)
	}

	emit(slog.Any(slog.LevelKey, r.Level), false)

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			emit(slog.String(
				slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line),
			), false)
		}
	}

	emit(slog.String(slog.MessageKey, r.Message), false)

	for _, a := range h.attrs {
		emit(a, false)
	}

	r.Attrs(func(a slog.Attr) bool {
		emit(a, true)

		return true
	})

	h.layout.end(buf)
	_ = buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.B)

	return err
}

// WithAttrs returns a handler that writes attrs with every record.
// Keys are qualified by any groups opened before the call.
func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)

	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}

	return &c
}

// WithGroup returns a handler that qualifies subsequent keys with name.
func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func writeValue(buf *bytebufferpool.ByteBuffer, v slog.Value) {
	color, text := colorCyan, ""

	switch v.Kind() {
	case slog.KindString:
		text = v.String()

	case slog.KindInt64:
		color, text = colorYellow, strconv.FormatInt(v.Int64(), 10)

	case slog.KindUint64:
		color, text = colorYellow, strconv.FormatUint(v.Uint64(), 10)

	case slog.KindFloat64:
		color, text = colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)

	case slog.KindBool:
		color, text = colorRed, "false"
		if v.Bool() {
			color, text = colorGreen, "true"
		}

	case slog.KindDuration:
		color, text = colorMagenta, v.Duration().String()

	case slog.KindTime:
		color, text = colorBlue, v.Time().String()

	case slog.KindGroup:
		_ = buf.WriteByte('{')

		for i, a := range v.Group() {
			if i > 0 {
				_ = buf.WriteByte(' ')
			}

			_, _ = buf.WriteString(colorGray + a.Key + colorReset + "=")
			writeValue(buf, a.Value.Resolve())
		}

		_ = buf.WriteByte('}')

		return

	default:
		if level, ok := v.Any().(slog.Level); ok {
			color, text = levelColor(level), Level(level).String()
		} else {
			text = v.String()
		}
	}

	_, _ = buf.WriteString(color + text + colorReset)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorBlue
	}
}
