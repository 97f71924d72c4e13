package envloader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		t.Errorf("Expected missing .env to be ignored, got %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CODESTART_TEST_BUILD_TOOL=gradle\nCODESTART_TEST_KEEP=file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CODESTART_TEST_KEEP", "process")
	t.Setenv("CODESTART_TEST_BUILD_TOOL", "")
	os.Unsetenv("CODESTART_TEST_BUILD_TOOL")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() failed: %v", err)
	}
	if got := os.Getenv("CODESTART_TEST_BUILD_TOOL"); got != "gradle" {
		t.Errorf("Expected gradle, got %q", got)
	}
	if got := os.Getenv("CODESTART_TEST_KEEP"); got != "process" {
		t.Errorf("Expected existing variable to win, got %q", got)
	}
}

func TestPrefixed(t *testing.T) {
	environ := []string{
		"HOME=/root",
		"CODESTART_ARTIFACT_ID=my-test-app",
		"CODESTART_EMPTY=",
		"CODESTART_PLATFORM_VERSION=3.15.1",
		"MALFORMED",
	}

	got := Prefixed(environ, Prefix)
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %v", got)
	}
	if got["ARTIFACT_ID"] != "my-test-app" {
		t.Errorf("Expected my-test-app, got %q", got["ARTIFACT_ID"])
	}
	if got["PLATFORM_VERSION"] != "3.15.1" {
		t.Errorf("Expected 3.15.1, got %q", got["PLATFORM_VERSION"])
	}
}
