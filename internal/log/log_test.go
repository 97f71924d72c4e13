package log

import (
	"context"
	"testing"
)

type recordingLogger struct {
	nop
	fields []any
}

func (r *recordingLogger) With(kv ...any) Logger {
	return &recordingLogger{fields: append(append([]any{}, r.fields...), kv...)}
}

func TestFromContext(t *testing.T) {
	base := &recordingLogger{}

	if got := FromContext(context.Background(), base); got != Logger(base) {
		t.Error("Expected base logger when the context has no fields")
	}

	ctx := NewContext(context.Background(), "request_id", "r-1")
	ctx = NewContext(ctx, Str("artifact_id", "my-app"))

	got, ok := FromContext(ctx, base).(*recordingLogger)
	if !ok {
		t.Fatal("Expected derived recording logger")
	}
	if len(got.fields) != 3 {
		t.Fatalf("Expected 3 stored fields, got %v", got.fields)
	}
	if got.fields[0] != "request_id" || got.fields[1] != "r-1" {
		t.Errorf("Expected request_id first, got %v", got.fields)
	}
}

func TestNewContext_DoesNotShareParentFields(t *testing.T) {
	parent := NewContext(context.Background(), "a", 1)
	left := NewContext(parent, "b", 2)
	right := NewContext(parent, "c", 3)

	l, _ := left.Value(fieldsKey{}).([]any)
	r, _ := right.Value(fieldsKey{}).([]any)
	if l[2] != "b" || r[2] != "c" {
		t.Errorf("Expected independent children, got %v and %v", l, r)
	}
}

func TestHelpers(t *testing.T) {
	pair, ok := Str("k", "v").([]any)
	if !ok || len(pair) != 2 || pair[0] != "k" || pair[1] != "v" {
		t.Errorf("Expected [k v], got %v", pair)
	}
	Nop().With("k", "v").Error(nil, "discarded")
}
