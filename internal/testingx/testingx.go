// Package testingx provides testing utilities for the codestart packages.
//
// Overview:
//   - Responsibility: Testing helpers, mocks, and fixtures
//   - Key Types: MockLogger, catalog builders, generated tree readers
//   - Concurrency Model: Thread-safe where needed
//   - Error Semantics: Test failures via testing.T
//   - Performance Notes: Optimized for test execution
//
// Usage:
//
//	logger := testingx.NewMockLogger(t)
//	cat := testingx.NewCatalog(t, testingx.Base(), testingx.Extension("greeting"))
//	tree := testingx.ReadTree(t, dir)
package testingx

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.eggybyte.com/codestart/internal/catalog"
	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/log"
)

// MockLogger records log calls for assertions. Loggers derived through With
// share the parent's entries and prepend their bound fields.
type MockLogger struct {
	t     *testing.T
	store *entryStore
	bound []any
}

type entryStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one recorded call. Fields holds bound fields followed by the call's own.
type LogEntry struct {
	Level   string
	Message string
	Fields  []any
	Error   error
}

// Field returns the value logged under key. Pairs built by log.Str and
// friends are looked through.
func (e LogEntry) Field(key string) (any, bool) {
	flat := make([]any, 0, len(e.Fields))
	for _, f := range e.Fields {
		if pair, ok := f.([]any); ok && len(pair) == 2 {
			flat = append(flat, pair...)
			continue
		}
		flat = append(flat, f)
	}
	for i := 0; i+1 < len(flat); i += 2 {
		if k, ok := flat[i].(string); ok && k == key {
			return flat[i+1], true
		}
	}
	return nil, false
}

// NewMockLogger creates an empty recorder.
func NewMockLogger(t *testing.T) *MockLogger {
	return &MockLogger{t: t, store: &entryStore{}}
}

// With returns a logger writing to the same entries with kv bound.
func (m *MockLogger) With(kv ...any) log.Logger {
	bound := make([]any, 0, len(m.bound)+len(kv))
	bound = append(bound, m.bound...)
	bound = append(bound, kv...)
	return &MockLogger{t: m.t, store: m.store, bound: bound}
}

func (m *MockLogger) Debug(msg string, kv ...any) { m.record("DEBUG", msg, nil, kv) }
func (m *MockLogger) Info(msg string, kv ...any)  { m.record("INFO", msg, nil, kv) }
func (m *MockLogger) Warn(msg string, kv ...any)  { m.record("WARN", msg, nil, kv) }

func (m *MockLogger) Error(err error, msg string, kv ...any) {
	m.record("ERROR", msg, err, kv)
}

func (m *MockLogger) record(level, msg string, err error, kv []any) {
	fields := make([]any, 0, len(m.bound)+len(kv))
	fields = append(fields, m.bound...)
	fields = append(fields, kv...)

	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.entries = append(m.store.entries, LogEntry{Level: level, Message: msg, Fields: fields, Error: err})
}

// Entries returns a copy of everything recorded so far.
func (m *MockLogger) Entries() []LogEntry {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return append([]LogEntry(nil), m.store.entries...)
}

// Find returns the first entry with level and msg.
func (m *MockLogger) Find(level, msg string) (LogEntry, bool) {
	for _, e := range m.Entries() {
		if e.Level == level && e.Message == msg {
			return e, true
		}
	}
	return LogEntry{}, false
}

// AssertLogged fails the test unless an entry with level and msg was recorded.
func (m *MockLogger) AssertLogged(level, msg string) {
	m.t.Helper()
	if _, ok := m.Find(level, msg); !ok {
		m.t.Errorf("Expected log message not found: level=%s msg=%q", level, msg)
	}
}

// Clear drops all recorded entries.
func (m *MockLogger) Clear() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.entries = nil
}

// AssertError asserts that an error has the expected code.
func AssertError(t *testing.T, err error, expectedCode errors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error with code %s, got nil", expectedCode)
	}

	code := errors.CodeOf(err)
	if code != expectedCode {
		t.Errorf("Expected error code %s, got %s (%v)", expectedCode, code, err)
	}
}

// AssertNoError asserts that no error occurred.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

// NewCatalog builds a catalog from defs or fails the test.
func NewCatalog(t *testing.T, defs ...codestart.Codestart) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(defs...)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}
	return cat
}

// DefaultCatalog loads the shipped catalog or fails the test.
func DefaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("Failed to load default catalog: %v", err)
	}
	return cat
}

// Base returns a minimal project-base codestart with the given files.
func Base(files ...codestart.FileTemplate) codestart.Codestart {
	return codestart.Codestart{ID: "project-base", Kind: codestart.KindProjectBase, Files: files}
}

// BuildTool returns a build tool codestart with the given files.
func BuildTool(id string, files ...codestart.FileTemplate) codestart.Codestart {
	return codestart.Codestart{ID: id, Kind: codestart.KindBuildTool, Files: files}
}

// Language returns a language codestart with the given files.
func Language(id string, files ...codestart.FileTemplate) codestart.Codestart {
	return codestart.Codestart{ID: id, Kind: codestart.KindLanguage, Files: files}
}

// Extension returns an extension codestart with coordinate org.acme:<id> depending on deps.
func Extension(id string, deps ...string) codestart.Codestart {
	return codestart.Codestart{
		ID:         id,
		Kind:       codestart.KindExtension,
		Dependency: "org.acme:" + id,
		DependsOn:  deps,
	}
}

// ReadTree returns the regular files below dir keyed by slash-separated relative path.
func ReadTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to read tree %s: %v", dir, err)
	}
	return tree
}
