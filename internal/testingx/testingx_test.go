package testingx

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
)

func TestMockLogger(t *testing.T) {
	logger := NewMockLogger(t)
	logger.Debug("rendered", "codestart", "maven")
	logger.Error(errors.New(errors.CodeIOError, "disk full"), "write failed")

	entries := logger.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "DEBUG" {
		t.Errorf("Expected level DEBUG, got %s", entries[0].Level)
	}
	if len(entries[0].Fields) != 2 {
		t.Errorf("Expected 2 fields, got %d", len(entries[0].Fields))
	}
	if entries[1].Error == nil {
		t.Error("Expected error on ERROR entry")
	}

	logger.AssertLogged("ERROR", "write failed")

	logger.Clear()
	if len(logger.Entries()) != 0 {
		t.Error("Expected no entries after Clear")
	}
}

func TestMockLogger_Concurrent(t *testing.T) {
	logger := NewMockLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.With("worker", i).Info("done")
		}()
	}
	wg.Wait()

	if got := len(logger.Entries()); got != 10 {
		t.Errorf("Expected 10 entries, got %d", got)
	}
}

func TestMockLogger_WithSharesEntries(t *testing.T) {
	logger := NewMockLogger(t)
	child := logger.With("request_id", "r-1")
	child.Info("project generated", []any{"artifact_id", "my-app"})

	entry, ok := logger.Find("INFO", "project generated")
	if !ok {
		t.Fatal("Expected child entry on the parent")
	}
	if v, _ := entry.Field("request_id"); v != "r-1" {
		t.Errorf("Expected bound request_id r-1, got %v", v)
	}
	if v, _ := entry.Field("artifact_id"); v != "my-app" {
		t.Errorf("Expected artifact_id from pair, got %v", v)
	}
	if _, ok := entry.Field("missing"); ok {
		t.Error("Expected missing field to be absent")
	}
}

func TestAssertError(t *testing.T) {
	AssertError(t, errors.New(errors.CodeFileConflict, "clash"), errors.CodeFileConflict)
	AssertNoError(t, nil)
}

func TestNewCatalog(t *testing.T) {
	cat := NewCatalog(t, Base(), BuildTool("maven"), Language("java"), Extension("a"), Extension("b", "a"))

	if cat.Len() != 5 {
		t.Errorf("Expected 5 codestarts, got %d", cat.Len())
	}
	if _, ok := cat.LookupExtension("org.acme:b"); !ok {
		t.Error("Expected extension b to resolve by coordinate")
	}
	if _, ok := cat.LookupKind(codestart.KindLanguage, "java"); !ok {
		t.Error("Expected java language codestart")
	}
}

func TestReadTree(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src", "main"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "main", "A.java"), []byte("class A {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pom.xml"), []byte("<project/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	tree := ReadTree(t, dir)
	if len(tree) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(tree))
	}
	if tree["src/main/A.java"] != "class A {}" {
		t.Errorf("Expected A.java content, got %q", tree["src/main/A.java"])
	}
}
