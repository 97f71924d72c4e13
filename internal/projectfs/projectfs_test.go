package projectfs

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/testingx"
)

var sampleFiles = map[string]string{
	"pom.xml":                      "<project/>\n",
	"README.md":                    "# my-test-app\n",
	"src/main/java/org/A.java":     "class A {}\n",
	"src/main/resources/app.props": "a=b\n",
}

func TestWrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "my-test-app")

	paths, err := NewWriter().Write(context.Background(), sampleFiles, target)
	testingx.AssertNoError(t, err)

	want := []string{"README.md", "pom.xml", "src/main/java/org/A.java", "src/main/resources/app.props"}
	if !slices.Equal(paths, want) {
		t.Errorf("Expected %v, got %v", want, paths)
	}

	tree := testingx.ReadTree(t, target)
	for p, content := range sampleFiles {
		if tree[p] != content {
			t.Errorf("Expected %s to contain %q, got %q", p, content, tree[p])
		}
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	testingx.AssertNoError(t, err)
	if len(entries) != 1 {
		t.Errorf("Expected only the target in parent dir, got %d entries", len(entries))
	}
}

func TestWrite_IntoEmptyDirectory(t *testing.T) {
	target := t.TempDir()

	_, err := NewWriter(WithConcurrency(1)).Write(context.Background(), sampleFiles, target)
	testingx.AssertNoError(t, err)

	if len(testingx.ReadTree(t, target)) != len(sampleFiles) {
		t.Error("Expected every file written")
	}
}

func TestWrite_RejectsNonEmptyTarget(t *testing.T) {
	target := t.TempDir()
	if err := os.WriteFile(filepath.Join(target, "keep.txt"), []byte("mine"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewWriter().Write(context.Background(), sampleFiles, target)
	testingx.AssertError(t, err, errors.CodeIOError)

	tree := testingx.ReadTree(t, target)
	if len(tree) != 1 || tree["keep.txt"] != "mine" {
		t.Errorf("Expected target untouched, got %v", tree)
	}
}

func TestWrite_FailureLeavesNoTarget(t *testing.T) {
	parent := t.TempDir()
	target := filepath.Join(parent, "my-test-app")
	files := map[string]string{
		"a":       "file",
		"a/b.txt": "needs a to be a directory",
	}

	_, err := NewWriter().Write(context.Background(), files, target)
	testingx.AssertError(t, err, errors.CodeIOError)

	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Errorf("Expected no target directory, stat returned %v", statErr)
	}
	entries, _ := os.ReadDir(parent)
	if len(entries) != 0 {
		t.Errorf("Expected staging directory removed, found %d entries", len(entries))
	}
}

func TestWrite_FailedRenameKeepsEmptyTarget(t *testing.T) {
	parent := t.TempDir()
	target := filepath.Join(parent, "my-test-app")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}

	orig := renameDir
	renameDir = func(string, string) error { return fmt.Errorf("rename refused") }
	t.Cleanup(func() { renameDir = orig })

	_, err := NewWriter().Write(context.Background(), sampleFiles, target)
	testingx.AssertError(t, err, errors.CodeIOError)

	empty, err := IsEmptyDir(target)
	if err != nil || !empty {
		t.Errorf("Expected empty target directory restored, got empty=%v err=%v", empty, err)
	}
	entries, _ := os.ReadDir(parent)
	if len(entries) != 1 {
		t.Errorf("Expected only the target in parent, found %d entries", len(entries))
	}
}

func TestWrite_RejectsEscapingPath(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app")

	_, err := NewWriter().Write(context.Background(), map[string]string{"../evil": "x"}, target)
	testingx.AssertError(t, err, errors.CodeIOError)

	if got := errors.DetailOf(err, "path"); got != "../evil" {
		t.Errorf("Expected path detail ../evil, got %q", got)
	}
}

func TestWrite_CanceledContext(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWriter().Write(ctx, sampleFiles, target)
	testingx.AssertError(t, err, errors.CodeIOError)

	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Errorf("Expected no target directory, stat returned %v", statErr)
	}
}

func TestWrite_Logs(t *testing.T) {
	logger := testingx.NewMockLogger(t)
	target := filepath.Join(t.TempDir(), "app")

	_, err := NewWriter(WithLogger(logger)).Write(context.Background(), sampleFiles, target)
	testingx.AssertNoError(t, err)

	logger.AssertLogged("DEBUG", "file staged")
	logger.AssertLogged("DEBUG", "project committed")
}

func TestIsEmptyDir(t *testing.T) {
	dir := t.TempDir()

	empty, err := IsEmptyDir(dir)
	testingx.AssertNoError(t, err)
	if !empty {
		t.Error("Expected fresh temp dir to be empty")
	}

	if err := os.WriteFile(filepath.Join(dir, "x"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	empty, err = IsEmptyDir(dir)
	testingx.AssertNoError(t, err)
	if empty {
		t.Error("Expected dir with a file to be non-empty")
	}

	_, err = IsEmptyDir(filepath.Join(dir, "missing"))
	testingx.AssertError(t, err, errors.CodeIOError)
}

func TestWriteArchive(t *testing.T) {
	var buf bytes.Buffer
	err := WriteArchive(context.Background(), sampleFiles, "my-test-app", &buf)
	testingx.AssertNoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	testingx.AssertNoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name != "my-test-app/pom.xml" {
			continue
		}
		rc, err := f.Open()
		testingx.AssertNoError(t, err)
		data, _ := io.ReadAll(rc)
		rc.Close()
		if string(data) != "<project/>\n" {
			t.Errorf("Expected pom content, got %q", data)
		}
	}

	want := []string{
		"my-test-app/README.md",
		"my-test-app/pom.xml",
		"my-test-app/src/main/java/org/A.java",
		"my-test-app/src/main/resources/app.props",
	}
	if !slices.Equal(names, want) {
		t.Errorf("Expected %v, got %v", want, names)
	}
}

func TestWriteArchive_Deterministic(t *testing.T) {
	var first, second bytes.Buffer
	testingx.AssertNoError(t, WriteArchive(context.Background(), sampleFiles, "app", &first))
	testingx.AssertNoError(t, WriteArchive(context.Background(), sampleFiles, "app", &second))

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("Expected byte-identical archives")
	}
}

func TestWriteArchive_RejectsEscapingNames(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		root  string
	}{
		{"parent root", sampleFiles, ".."},
		{"current root", sampleFiles, "."},
		{"nested parent root", sampleFiles, "../app"},
		{"escaping file", map[string]string{"../pom.xml": "<project/>"}, "app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteArchive(context.Background(), tt.files, tt.root, &buf)
			testingx.AssertError(t, err, errors.CodeIOError)
			if buf.Len() != 0 {
				t.Errorf("Expected no archive bytes, got %d", buf.Len())
			}
		})
	}
}
