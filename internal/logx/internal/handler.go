// Package internal holds the record encoders behind logx.
package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Options configures a Handler.
type Options struct {
	JSON      bool
	Level     slog.Level
	Color     bool // logfmt only; colors the level value
	Timestamp bool
}

// Handler writes one line per record with keys in lexical order.
type Handler struct {
	opts   Options
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	prefix string
}

// NewHandler creates a Handler writing to w.
func NewHandler(opts Options, w io.Writer) *Handler {
	return &Handler{opts: opts, mu: &sync.Mutex{}, w: w}
}

// Write encodes and writes one record if level is enabled.
func (h *Handler) Write(level slog.Level, msg string, attrs []slog.Attr) {
	if level < h.opts.Level {
		return
	}

	all := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	all = append(all, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		all = append(all, a)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Key < all[j].Key })

	var line []byte
	if h.opts.JSON {
		line = h.appendJSON(nil, level, msg, all)
	} else {
		line = h.appendLogfmt(nil, level, msg, all)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, _ = h.w.Write(line)
}

func (h *Handler) appendLogfmt(buf []byte, level slog.Level, msg string, attrs []slog.Attr) []byte {
	if h.opts.Timestamp {
		buf = append(buf, "time="...)
		buf = time.Now().AppendFormat(buf, time.RFC3339)
		buf = append(buf, ' ')
	}
	buf = append(buf, "level="...)
	if h.opts.Color {
		buf = append(buf, colorize(LevelName(level))...)
	} else {
		buf = append(buf, LevelName(level)...)
	}
	buf = append(buf, " msg="...)
	buf = strconv.AppendQuote(buf, msg)

	for _, a := range attrs {
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = appendLogfmtValue(buf, a.Value)
	}
	return append(buf, '\n')
}

func appendLogfmtValue(buf []byte, v slog.Value) []byte {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return strconv.AppendQuote(buf, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return strconv.AppendInt(buf, v.Duration().Milliseconds(), 10)
	case slog.KindTime:
		return strconv.AppendQuote(buf, v.Time().Format(time.RFC3339))
	default:
		return strconv.AppendQuote(buf, fmt.Sprint(v.Any()))
	}
}

func (h *Handler) appendJSON(buf []byte, level slog.Level, msg string, attrs []slog.Attr) []byte {
	// Map keys are sorted by encoding/json.
	record := make(map[string]any, len(attrs)+3)
	if h.opts.Timestamp {
		record["time"] = time.Now().Format(time.RFC3339)
	}
	record["level"] = LevelName(level)
	record["msg"] = msg
	for _, a := range attrs {
		record[a.Key] = jsonValue(a.Value)
	}

	data, err := json.Marshal(record)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"level": "ERROR", "msg": "log encoding failed: " + err.Error()})
	}
	buf = append(buf, data...)
	return append(buf, '\n')
}

func jsonValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Milliseconds()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		}
		return v.Any()
	default:
		return v.Any()
	}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	h.Write(r.Level, r.Message, attrs)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}
	return &c
}

// WithGroup implements slog.Handler; group names prefix later keys with "name.".
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

// Attrs converts alternating key-value arguments to attributes. Two-element
// []any pairs, as built by log.Str, are unpacked. A trailing key without a
// value is dropped.
func Attrs(kv []any) []slog.Attr {
	flat := make([]any, 0, len(kv))
	for _, item := range kv {
		if pair, ok := item.([]any); ok && len(pair) == 2 {
			flat = append(flat, pair...)
			continue
		}
		flat = append(flat, item)
	}

	attrs := make([]slog.Attr, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		key, ok := flat[i].(string)
		if !ok {
			key = fmt.Sprint(flat[i])
		}
		attrs = append(attrs, slog.Any(key, flat[i+1]))
	}
	return attrs
}

// LevelName returns DEBUG, INFO, WARN, ERROR or LEVEL(n).
func LevelName(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

var levelColors = map[string]*color.Color{
	"DEBUG": alwaysColor(color.FgMagenta),
	"INFO":  alwaysColor(color.FgCyan),
	"WARN":  alwaysColor(color.FgYellow),
	"ERROR": alwaysColor(color.FgRed),
}

// alwaysColor ignores terminal detection; Options.Color decides.
func alwaysColor(attr color.Attribute) *color.Color {
	c := color.New(attr)
	c.EnableColor()
	return c
}

func colorize(level string) string {
	if c, ok := levelColors[level]; ok {
		return c.Sprint(level)
	}
	return level
}
