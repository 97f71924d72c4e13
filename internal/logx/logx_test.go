package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"go.eggybyte.com/codestart/internal/log"
)

func TestNew_Logfmt(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithWriter(&buf))

	logger.Info("project generated", log.Str("artifact_id", "my-test-app"), log.Dur("duration_ms", 1500*time.Millisecond))

	want := `level=INFO msg="project generated" artifact_id="my-test-app" duration_ms=1500` + "\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestSortedKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithWriter(&buf)).With("strategy", "append")

	logger.Debug("ignored below info")
	logger.Info("merged", "path", "application.properties", "codestart", "qute")

	out := buf.String()
	c := strings.Index(out, "codestart=")
	p := strings.Index(out, "path=")
	s := strings.Index(out, "strategy=")
	if c < 0 || p < 0 || s < 0 || !(c < p && p < s) {
		t.Errorf("Expected codestart, path, strategy in order, got %s", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("Expected one line, got %q", out)
	}
}

func TestColor(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		want   bool
		prefix string
	}{
		{"logfmt with color", []Option{WithColor(true)}, true, "level="},
		{"logfmt without color", []Option{WithColor(false)}, false, "level=WARN"},
		{"json ignores color", []Option{WithColor(true), WithFormat(FormatJSON)}, false, "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(append(tt.opts, WithWriter(&buf))...).Warn("slow request")

			if got := strings.Contains(buf.String(), "\033["); got != tt.want {
				t.Errorf("Expected ANSI codes %v, got %q", tt.want, buf.String())
			}
			if !strings.HasPrefix(buf.String(), tt.prefix) {
				t.Errorf("Expected prefix %q, got %q", tt.prefix, buf.String())
			}
		})
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithWriter(&buf), WithFormat(FormatJSON), WithTimestamp(true))

	logger.Error(errors.New("boom"), "merge failed", log.Str("path", "pom.xml"), log.Int("fragments", 3))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected valid JSON, got %q: %v", buf.String(), err)
	}

	tests := []struct {
		key  string
		want any
	}{
		{"level", "ERROR"},
		{"msg", "merge failed"},
		{"error", "boom"},
		{"path", "pom.xml"},
		{"fragments", float64(3)},
	}
	for _, tt := range tests {
		if record[tt.key] != tt.want {
			t.Errorf("Expected %s=%v, got %v", tt.key, tt.want, record[tt.key])
		}
	}
	if _, ok := record["time"]; !ok {
		t.Error("Expected time field")
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		log   func(log.Logger)
		want  string
	}{
		{"debug hidden at info", slog.LevelInfo, func(l log.Logger) { l.Debug("x") }, ""},
		{"debug shown at debug", slog.LevelDebug, func(l log.Logger) { l.Debug("x") }, "level=DEBUG"},
		{"info hidden at warn", slog.LevelWarn, func(l log.Logger) { l.Info("x") }, ""},
		{"warn shown at warn", slog.LevelWarn, func(l log.Logger) { l.Warn("x") }, "level=WARN"},
		{"error without err", slog.LevelInfo, func(l log.Logger) { l.Error(nil, "x") }, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(New(WithWriter(&buf), WithLevel(tt.level)))

			if tt.want == "" && buf.Len() != 0 {
				t.Errorf("Expected no output, got %q", buf.String())
			}
			if tt.want != "" && !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(WithWriter(&buf))

	ctx := log.NewContext(context.Background(), log.Str("request_id", "req-abc"))
	log.FromContext(ctx, base).Info("download")

	if !strings.Contains(buf.String(), `request_id="req-abc"`) {
		t.Errorf("Expected request_id in output, got %s", buf.String())
	}
}

func TestNewSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlog(WithWriter(&buf)).WithGroup("http").With("remote", "10.0.0.1")

	logger.Warn("TLS handshake error", "code", 42)

	out := buf.String()
	for _, want := range []string{"level=WARN", `http.remote="10.0.0.1"`, "http.code=42"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}
