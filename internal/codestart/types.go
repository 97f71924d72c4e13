// Package codestart defines the data model shared by the codestart composition pipeline.
//
// Overview:
//   - Responsibility: Codestart definitions, project requests, render inputs, file contributions
//   - Key Types: Codestart, FileTemplate, Fragment, ProjectRequest, RenderContext, FileContribution, GeneratedProject
//   - Concurrency Model: Catalog-owned values are read-only after load; request values are private per request
//   - Error Semantics: Validation returns coded errors from internal/errors
//   - Performance Notes: Plain value types, no hidden allocation on read paths
//
// Usage:
//
//	req := codestart.ProjectRequest{GroupID: "org.acme", ArtifactID: "app", BuildTool: codestart.BuildToolMaven}
//	if err := req.Validate(); err != nil {
//	    return err
//	}
package codestart

import (
	"slices"
	"sort"
)

// Kind classifies a codestart.
type Kind string

const (
	KindProjectBase Kind = "project-base"
	KindBuildTool   Kind = "buildtool"
	KindLanguage    Kind = "language"
	KindExtension   Kind = "extension"
)

// Kinds lists every kind in resolution order.
var Kinds = []Kind{KindProjectBase, KindBuildTool, KindLanguage, KindExtension}

// Strategy tells the merger how to combine contributions targeting the same path.
type Strategy string

const (
	StrategyOverwrite       Strategy = "overwrite"
	StrategyAppend          Strategy = "append"
	StrategyStructuredMerge Strategy = "structured-merge"
)

// Build tools and languages known to the shipped catalog.
const (
	BuildToolMaven  = "maven"
	BuildToolGradle = "gradle"

	LanguageJava   = "java"
	LanguageKotlin = "kotlin"

	DefaultLanguage  = LanguageJava
	DefaultBuildTool = BuildToolMaven
	DefaultVersion   = "1.0.0-SNAPSHOT"
)

// DefaultPlatform is the BOM imported when a request names none.
var DefaultPlatform = Platform{GroupID: "io.quarkus", ArtifactID: "quarkus-bom", Version: "3.15.1"}

// Fragment is a piece of content destined for a named insertion point of a build descriptor.
//
// Key identifies the fragment for collision detection (for dependencies, the coordinate).
// Two fragments at the same point with the same key must carry identical content.
type Fragment struct {
	Point   string `yaml:"point" validate:"required"`
	Key     string `yaml:"key"`
	Content string `yaml:"content" validate:"required"`
}

// FileTemplate describes one file a codestart contributes.
//
// Exactly one of Content (inline, or loaded from Template) and Fragments is set.
// A structured-merge entry with Content is a base descriptor that declares insertion points.
type FileTemplate struct {
	Path      string     `yaml:"path" validate:"required"`
	Template  string     `yaml:"template"`
	Content   string     `yaml:"content"`
	Strategy  Strategy   `yaml:"strategy" validate:"required,oneof=overwrite append structured-merge"`
	Language  string     `yaml:"language"`
	BuildTool string     `yaml:"buildTool"`
	Fragments []Fragment `yaml:"fragments" validate:"dive"`
}

// AppliesTo reports whether the file participates for the given build tool and language.
func (f FileTemplate) AppliesTo(buildTool, language string) bool {
	if f.BuildTool != "" && f.BuildTool != buildTool {
		return false
	}
	if f.Language != "" && f.Language != language {
		return false
	}
	return true
}

// IsBaseDescriptor reports whether the file is a structured-merge base document.
func (f FileTemplate) IsBaseDescriptor() bool {
	return f.Strategy == StrategyStructuredMerge && len(f.Fragments) == 0
}

// Codestart is a named, reusable template fragment contributing files to a generated project.
type Codestart struct {
	ID                 string         `yaml:"id" validate:"required"`
	Kind               Kind           `yaml:"kind" validate:"required,oneof=project-base buildtool language extension"`
	Name               string         `yaml:"name"`
	Aliases            []string       `yaml:"aliases"`
	Dependency         string         `yaml:"dependency" validate:"required_if=Kind extension"`
	SupportedLanguages []string       `yaml:"supportedLanguages"`
	DependsOn          []string       `yaml:"dependsOn"`
	Files              []FileTemplate `yaml:"files" validate:"dive"`
}

// SupportsLanguage reports whether the codestart can be applied to a project in language.
// An empty SupportedLanguages set means language-agnostic.
func (c *Codestart) SupportsLanguage(language string) bool {
	return len(c.SupportedLanguages) == 0 || slices.Contains(c.SupportedLanguages, language)
}

// Platform is the coordinate of the dependency BOM the generated project imports.
type Platform struct {
	GroupID    string `yaml:"groupId" toml:"groupId" json:"groupId" validate:"required"`
	ArtifactID string `yaml:"artifactId" toml:"artifactId" json:"artifactId" validate:"required"`
	Version    string `yaml:"version" toml:"version" json:"version" validate:"required"`
}

// String returns the platform in groupId:artifactId:version form.
func (p Platform) String() string {
	return p.GroupID + ":" + p.ArtifactID + ":" + p.Version
}

// FileContribution is one rendered file (or fragment set) produced by a codestart.
type FileContribution struct {
	Path              string
	Content           string
	Strategy          Strategy
	Fragments         []Fragment
	SourceCodestartID string
}

// IsBaseDescriptor reports whether the contribution is a structured-merge base document.
func (c FileContribution) IsBaseDescriptor() bool {
	return c.Strategy == StrategyStructuredMerge && len(c.Fragments) == 0
}

// GeneratedProject is the fully merged file set of one generation request.
type GeneratedProject struct {
	// RootDir is the project directory name relative to the output location.
	RootDir string
	// Files maps slash-separated relative paths to final content.
	Files map[string]string
	// Codestarts lists the applied codestart ids in resolution order.
	Codestarts []string
}

// Paths returns the project's file paths in lexical order.
func (p *GeneratedProject) Paths() []string {
	paths := make([]string, 0, len(p.Files))
	for path := range p.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
