// Package logx implements log.Logger on top of a sorted-key slog handler.
//
// Overview:
//   - Responsibility: logfmt or JSON log lines for the codestart CLI and server
//   - Key Types: Logger, Option, Format
//   - Concurrency Model: Loggers derived with With share one writer lock
//   - Error Semantics: Write errors are dropped; logging never fails the caller
//   - Performance Notes: Lines are built in one buffer and written with a single Write
//
// Usage:
//
//	logger := logx.New(logx.WithFormat(logx.FormatJSON), logx.WithLevel(slog.LevelDebug))
//	logger.Info("project generated", log.Str("artifact_id", "my-test-app"))
package logx

import (
	"io"
	"log/slog"
	"os"

	"go.eggybyte.com/codestart/internal/log"
	"go.eggybyte.com/codestart/internal/logx/internal"
)

// Format selects the line encoding.
type Format string

const (
	FormatLogfmt Format = "logfmt"
	FormatJSON   Format = "json"
)

type config struct {
	format    Format
	level     slog.Level
	color     bool
	writer    io.Writer
	timestamp bool
}

// Option configures New and NewSlog.
type Option func(*config)

// WithFormat selects logfmt (default) or JSON.
func WithFormat(format Format) Option {
	return func(c *config) { c.format = format }
}

// WithLevel sets the minimum level; the default is Info.
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithColor colors the level value of logfmt lines.
func WithColor(enabled bool) Option {
	return func(c *config) { c.color = enabled }
}

// WithWriter sets the destination; the default is os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.writer = w }
}

// WithTimestamp adds an RFC 3339 time field. CLI runs leave it off; the server turns it on.
func WithTimestamp(enabled bool) Option {
	return func(c *config) { c.timestamp = enabled }
}

// Logger is the logx implementation of log.Logger.
type Logger struct {
	h     *internal.Handler
	bound []slog.Attr
}

// New returns a Logger configured by opts.
func New(opts ...Option) log.Logger {
	return &Logger{h: newHandler(opts)}
}

// NewSlog returns a *slog.Logger writing through the same encoder, for
// standard-library hooks such as http.Server.ErrorLog.
func NewSlog(opts ...Option) *slog.Logger {
	return slog.New(newHandler(opts))
}

func newHandler(opts []Option) *internal.Handler {
	c := config{format: FormatLogfmt, level: slog.LevelInfo, writer: os.Stderr}
	for _, opt := range opts {
		opt(&c)
	}
	if c.writer == nil {
		c.writer = os.Stderr
	}
	return internal.NewHandler(internal.Options{
		JSON:      c.format == FormatJSON,
		Level:     c.level,
		Color:     c.color && c.format != FormatJSON,
		Timestamp: c.timestamp,
	}, c.writer)
}

// With returns a Logger that adds kv to every line.
func (l *Logger) With(kv ...any) log.Logger {
	bound := make([]slog.Attr, 0, len(l.bound)+len(kv)/2)
	bound = append(bound, l.bound...)
	bound = append(bound, internal.Attrs(kv)...)
	return &Logger{h: l.h, bound: bound}
}

func (l *Logger) Debug(msg string, kv ...any) { l.write(slog.LevelDebug, msg, nil, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.write(slog.LevelInfo, msg, nil, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.write(slog.LevelWarn, msg, nil, kv) }

// Error logs err under the "error" key.
func (l *Logger) Error(err error, msg string, kv ...any) {
	l.write(slog.LevelError, msg, err, kv)
}

func (l *Logger) write(level slog.Level, msg string, err error, kv []any) {
	attrs := make([]slog.Attr, 0, len(l.bound)+len(kv)/2+1)
	attrs = append(attrs, l.bound...)
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	attrs = append(attrs, internal.Attrs(kv)...)
	l.h.Write(level, msg, attrs)
}
