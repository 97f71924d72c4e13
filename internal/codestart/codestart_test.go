package codestart

import (
	"slices"
	"testing"

	"go.eggybyte.com/codestart/internal/errors"
)

func validRequest() ProjectRequest {
	return ProjectRequest{
		GroupID:    "org.test",
		ArtifactID: "my-test-app",
		Version:    "1.0.0-SNAPSHOT",
		BuildTool:  BuildToolMaven,
		Language:   LanguageJava,
		Platform:   DefaultPlatform,
	}
}

func TestProjectRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *ProjectRequest)
		wantField string
	}{
		{"valid", func(r *ProjectRequest) {}, ""},
		{"missing group", func(r *ProjectRequest) { r.GroupID = "" }, "ProjectRequest.GroupID"},
		{"bad artifact", func(r *ProjectRequest) { r.ArtifactID = "my app" }, "ProjectRequest.ArtifactID"},
		{"dot artifact", func(r *ProjectRequest) { r.ArtifactID = "." }, "ProjectRequest.ArtifactID"},
		{"parent artifact", func(r *ProjectRequest) { r.ArtifactID = ".." }, "ProjectRequest.ArtifactID"},
		{"hidden artifact", func(r *ProjectRequest) { r.ArtifactID = ".app" }, "ProjectRequest.ArtifactID"},
		{"dash group", func(r *ProjectRequest) { r.GroupID = "-org" }, "ProjectRequest.GroupID"},
		{"blank extension", func(r *ProjectRequest) { r.Extensions = []string{"resteasy", ""} }, "ProjectRequest.Extensions[1]"},
		{"missing platform version", func(r *ProjectRequest) { r.Platform.Version = "" }, "ProjectRequest.Platform.Version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.IsCode(err, errors.CodeInvalidRequest) {
				t.Fatalf("Expected %s, got %v", errors.CodeInvalidRequest, err)
			}
			if got := errors.DetailOf(err, "field"); got != tt.wantField {
				t.Errorf("Expected field %s, got %s", tt.wantField, got)
			}
		})
	}
}

func TestProjectRequest_WithDefaults(t *testing.T) {
	req := ProjectRequest{GroupID: "org.test", ArtifactID: "app", Language: LanguageKotlin}.WithDefaults()

	if req.BuildTool != DefaultBuildTool {
		t.Errorf("Expected %s, got %s", DefaultBuildTool, req.BuildTool)
	}
	if req.Language != LanguageKotlin {
		t.Errorf("Expected explicit language kept, got %s", req.Language)
	}
	if req.Version != DefaultVersion {
		t.Errorf("Expected %s, got %s", DefaultVersion, req.Version)
	}
	if req.Platform.String() != "io.quarkus:quarkus-bom:3.15.1" {
		t.Errorf("Expected default platform, got %s", req.Platform)
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Expected defaulted request to validate, got %v", err)
	}
}

func TestFileTemplate_AppliesTo(t *testing.T) {
	tests := []struct {
		name      string
		file      FileTemplate
		buildTool string
		language  string
		want      bool
	}{
		{"unfiltered", FileTemplate{}, "gradle", "kotlin", true},
		{"build tool match", FileTemplate{BuildTool: "maven"}, "maven", "java", true},
		{"build tool mismatch", FileTemplate{BuildTool: "maven"}, "gradle", "java", false},
		{"language mismatch", FileTemplate{Language: "kotlin"}, "maven", "java", false},
		{"both match", FileTemplate{BuildTool: "gradle", Language: "kotlin"}, "gradle", "kotlin", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.file.AppliesTo(tt.buildTool, tt.language); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsBaseDescriptor(t *testing.T) {
	base := FileContribution{Strategy: StrategyStructuredMerge, Content: "<project/>"}
	frag := FileContribution{Strategy: StrategyStructuredMerge, Fragments: []Fragment{{Point: "p", Content: "x"}}}
	plain := FileContribution{Strategy: StrategyOverwrite, Content: "x"}

	if !base.IsBaseDescriptor() {
		t.Error("Expected structured-merge content to be a base descriptor")
	}
	if frag.IsBaseDescriptor() || plain.IsBaseDescriptor() {
		t.Error("Expected fragments and overwrite entries not to be base descriptors")
	}
}

func TestCodestart_SupportsLanguage(t *testing.T) {
	agnostic := &Codestart{ID: "qute"}
	kotlinOnly := &Codestart{ID: "panache-kotlin", SupportedLanguages: []string{LanguageKotlin}}

	if !agnostic.SupportsLanguage(LanguageJava) {
		t.Error("Expected empty supported set to accept any language")
	}
	if kotlinOnly.SupportsLanguage(LanguageJava) {
		t.Error("Expected kotlin-only codestart to reject java")
	}
}

func TestGeneratedProject_Paths(t *testing.T) {
	p := &GeneratedProject{Files: map[string]string{"src/A.java": "", "README.md": "", "pom.xml": ""}}

	want := []string{"README.md", "pom.xml", "src/A.java"}
	if got := p.Paths(); !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRenderContext_IsolatedFromCaller(t *testing.T) {
	vars := map[string]any{"artifactId": "app"}
	ctx := NewRenderContext(vars)
	vars["artifactId"] = "changed"

	if got := ctx.String("artifactId"); got != "app" {
		t.Errorf("Expected app, got %s", got)
	}

	copied := ctx.Vars()
	copied["artifactId"] = "mutated"
	if got := ctx.String("artifactId"); got != "app" {
		t.Errorf("Expected context unchanged, got %s", got)
	}
	if !slices.Equal(ctx.Keys(), []string{"artifactId"}) {
		t.Errorf("Expected [artifactId], got %v", ctx.Keys())
	}
}
