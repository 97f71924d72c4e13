package configschema

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test request: %v", err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "request.yaml", `groupId: org.acme
artifactId: my-test-app
buildTool: gradle
extensions:
  - resteasy, qute
  - smallrye-health
platform:
  groupId: io.quarkus.platform
  artifactId: quarkus-bom
  version: "3.16.0"
`)

	rf, diags := Load(path)
	if rf == nil {
		t.Fatalf("Expected request to be loaded, got %v", diags.Items())
	}
	if diags.HasErrors() || diags.HasWarnings() {
		t.Fatalf("Expected no diagnostics, got %v", diags.Items())
	}

	if rf.ArtifactID != "my-test-app" {
		t.Errorf("Expected artifactId 'my-test-app', got '%s'", rf.ArtifactID)
	}
	if rf.BuildTool != codestart.BuildToolGradle {
		t.Errorf("Expected gradle, got '%s'", rf.BuildTool)
	}
	if want := []string{"resteasy", "qute", "smallrye-health"}; !slices.Equal(rf.Extensions, want) {
		t.Errorf("Expected %v, got %v", want, rf.Extensions)
	}
	if rf.Platform.String() != "io.quarkus.platform:quarkus-bom:3.16.0" {
		t.Errorf("Expected platform from file, got %s", rf.Platform)
	}
	if rf.Language != "" {
		t.Errorf("Expected unset language to stay empty before Compose, got '%s'", rf.Language)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "request.toml", `groupId = "org.acme"
artifactId = "kotlin-app"
language = "kotlin"
extensions = ["resteasy-jackson"]
colour = "blue"

[platform]
version = "3.15.2"
`)

	rf, diags := Load(path)
	if rf == nil || diags.HasErrors() {
		t.Fatalf("Expected request to be loaded, got %v", diags.Items())
	}
	if rf.Language != codestart.LanguageKotlin {
		t.Errorf("Expected kotlin, got '%s'", rf.Language)
	}

	if !diags.HasWarnings() {
		t.Fatal("Expected a warning for the unknown field")
	}
	var sawUnknown, sawPartial bool
	for _, d := range diags.Items() {
		switch d.Path {
		case "colour":
			sawUnknown = true
		case "platform":
			sawPartial = true
		}
	}
	if !sawUnknown || !sawPartial {
		t.Errorf("Expected warnings for colour and platform, got %v", diags.Items())
	}

	composed := Compose(rf)
	if composed.Platform.String() != "io.quarkus:quarkus-bom:3.15.2" {
		t.Errorf("Expected partial platform layered over default, got %s", composed.Platform)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		content string
	}{
		{"unsupported format", "request.json", `{}`},
		{"missing file", "", ""},
		{"unknown yaml field", "request.yaml", "groupId: org.acme\nextension: [resteasy]\n"},
		{"yaml syntax", "request.yaml", "groupId: [org.acme\n"},
		{"toml syntax", "request.toml", "groupId = \n"},
		{"bad artifact id", "request.yml", "artifactId: my app\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "absent.yaml")
			if tt.path != "" {
				path = writeFile(t, tt.path, tt.content)
			}

			_, diags := Load(path)
			if !diags.HasErrors() {
				t.Fatalf("Expected errors, got %v", diags.Items())
			}
			if !errors.IsCode(diags.Err(), errors.CodeInvalidRequest) {
				t.Errorf("Expected %s, got %v", errors.CodeInvalidRequest, diags.Err())
			}
		})
	}
}

func TestParse_EmptyYAML(t *testing.T) {
	rf, diags := Parse(nil, FormatYAML)
	if rf == nil || diags.HasErrors() {
		t.Fatalf("Expected empty document to decode, got %v", diags.Items())
	}
}

func TestFromEnv(t *testing.T) {
	rf := FromEnv(map[string]string{
		EnvGroupID:         "org.env",
		EnvExtensions:      "resteasy, kotlin",
		EnvPlatformVersion: "3.14.0",
		EnvOutputDir:       "/tmp/out",
	})

	if rf.GroupID != "org.env" {
		t.Errorf("Expected org.env, got '%s'", rf.GroupID)
	}
	if want := []string{"resteasy", "kotlin"}; !slices.Equal(rf.Extensions, want) {
		t.Errorf("Expected %v, got %v", want, rf.Extensions)
	}
	if rf.Platform.Version != "3.14.0" || rf.Platform.GroupID != "" {
		t.Errorf("Expected only platform version set, got %+v", rf.Platform)
	}
	if rf.OutputDir != "/tmp/out" {
		t.Errorf("Expected /tmp/out, got '%s'", rf.OutputDir)
	}
}

func TestCompose(t *testing.T) {
	env := &RequestFile{GroupID: "org.env", ArtifactID: "env-app", Extensions: []string{"qute"}}
	file := &RequestFile{ArtifactID: "file-app", BuildTool: codestart.BuildToolGradle}
	flags := &RequestFile{Extensions: []string{"resteasy"}}

	rf := Compose(env, nil, file, flags)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"group from env", rf.GroupID, "org.env"},
		{"artifact from file", rf.ArtifactID, "file-app"},
		{"build tool from file", rf.BuildTool, codestart.BuildToolGradle},
		{"default language", rf.Language, codestart.DefaultLanguage},
		{"default version", rf.Version, codestart.DefaultVersion},
		{"default output dir", rf.OutputDir, DefaultOutputDir},
		{"default platform", rf.Platform.String(), codestart.DefaultPlatform.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, tt.got)
			}
		})
	}

	if !slices.Equal(rf.Extensions, []string{"resteasy"}) {
		t.Errorf("Expected flag extensions to replace lower layers, got %v", rf.Extensions)
	}

	flags.Extensions[0] = "mutated"
	if rf.Extensions[0] != "resteasy" {
		t.Error("Expected composed extensions to be a copy")
	}
}

func TestValidate(t *testing.T) {
	diags := Validate(Compose())
	if !diags.HasErrors() {
		t.Fatal("Expected missing groupId and artifactId to be errors")
	}

	err := diags.Err()
	if !errors.IsCode(err, errors.CodeInvalidRequest) {
		t.Fatalf("Expected %s, got %v", errors.CodeInvalidRequest, err)
	}
	if got := errors.DetailOf(err, "path"); got != "groupId" {
		t.Errorf("Expected first path detail groupId, got %s", got)
	}

	ok := Validate(Compose(&RequestFile{GroupID: "org.acme", ArtifactID: "app"}))
	if ok.HasErrors() {
		t.Errorf("Expected no errors, got %v", ok.Items())
	}
	if ok.Err() != nil {
		t.Errorf("Expected nil error, got %v", ok.Err())
	}

	for _, artifactID := range []string{".", "..", ".hidden"} {
		bad := Validate(Compose(&RequestFile{GroupID: "org.acme", ArtifactID: artifactID})).Err()
		if got := errors.DetailOf(bad, "path"); got != "artifactId" {
			t.Errorf("Expected artifactId %q to be rejected, got %v", artifactID, bad)
		}
	}
}

func TestRequestFile_Request(t *testing.T) {
	rf := Compose(&RequestFile{GroupID: "org.acme", ArtifactID: "app", Extensions: []string{"resteasy"}})
	req := rf.Request()

	if err := req.Validate(); err != nil {
		t.Fatalf("Expected composed request to validate, got %v", err)
	}
	req.Extensions[0] = "changed"
	if rf.Extensions[0] != "resteasy" {
		t.Error("Expected Request to copy extensions")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList([]string{"a,b", " ", "c , ,d"})
	if want := []string{"a", "b", "c", "d"}; !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if SplitList(nil) != nil {
		t.Error("Expected nil for no values")
	}
}
