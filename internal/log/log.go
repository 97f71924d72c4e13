// Package log defines the logger contract shared by every codestart package.
//
// Overview:
//   - Responsibility: Logger interface, key-value helpers, request-scoped fields
//   - Key Types: Logger
//   - Concurrency Model: Implementations must be safe for concurrent use
//   - Error Semantics: Error takes the failing error first so it is always logged as a field
//   - Performance Notes: Helpers return plain pairs; nothing is formatted until a record is written
//
// Usage:
//
//	logger.Debug("codestart rendered", log.Str("codestart", "resteasy"), log.Int("files", 3))
//	ctx = log.NewContext(ctx, "request_id", id)
//	log.FromContext(ctx, logger).Info("project generated")
package log

import (
	"context"
	"time"
)

// Logger is the structured logger accepted by the catalog, generator, writer and server.
type Logger interface {
	// With returns a Logger that adds kv to every record.
	With(kv ...any) Logger
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	// Error logs err under the "error" key followed by kv.
	Error(err error, msg string, kv ...any)
}

// Str pairs a key with a string value.
func Str(k, v string) any {
	return []any{k, v}
}

// Int pairs a key with an int value.
func Int(k string, v int) any {
	return []any{k, v}
}

// Dur pairs a key with a duration, written in milliseconds.
func Dur(k string, v time.Duration) any {
	return []any{k, v}
}

type fieldsKey struct{}

// NewContext returns ctx carrying kv in addition to any fields already stored.
func NewContext(ctx context.Context, kv ...any) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).([]any)
	fields := make([]any, 0, len(prev)+len(kv))
	fields = append(fields, prev...)
	fields = append(fields, kv...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// FromContext returns base with the fields stored in ctx, or base itself when there are none.
func FromContext(ctx context.Context, base Logger) Logger {
	fields, _ := ctx.Value(fieldsKey{}).([]any)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}

type nop struct{}

func (n nop) With(kv ...any) Logger { return n }
func (nop) Debug(msg string, kv ...any) {}
func (nop) Info(msg string, kv ...any) {}
func (nop) Warn(msg string, kv ...any) {}
func (nop) Error(err error, msg string, kv ...any) {}
