// Package configschema loads, layers and validates project request settings.
//
// Overview:
//   - Responsibility: Parse request files (YAML or TOML), read CODESTART_* environment settings,
//     layer sources over built-in defaults, report problems as diagnostics
//   - Key Types: RequestFile, Diagnostic, Diagnostics
//   - Concurrency Model: Values are plain data; a composed RequestFile is not shared
//   - Error Semantics: Problems are collected as diagnostics with paths and suggestions;
//     Diagnostics.Err converts errors into a single INVALID_REQUEST
//   - Performance Notes: Single-pass decoding of small files
//
// Usage:
//
//	file, diags := configschema.Load("request.yaml")
//	if diags.HasErrors() {
//	    return diags.Err()
//	}
//	rf := configschema.Compose(configschema.FromEnv(env), file, flags)
//	req := rf.Request()
package configschema

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
)

// Format identifies a request file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// RequestFile is one layer of request settings. Empty fields leave lower layers untouched.
type RequestFile struct {
	GroupID    string             `yaml:"groupId" toml:"groupId" json:"groupId,omitempty"`
	ArtifactID string             `yaml:"artifactId" toml:"artifactId" json:"artifactId,omitempty"`
	Version    string             `yaml:"version" toml:"version" json:"version,omitempty"`
	BuildTool  string             `yaml:"buildTool" toml:"buildTool" json:"buildTool,omitempty"`
	Language   string             `yaml:"language" toml:"language" json:"language,omitempty"`
	Extensions []string           `yaml:"extensions" toml:"extensions" json:"extensions,omitempty"`
	Platform   codestart.Platform `yaml:"platform" toml:"platform" json:"platform"`
	OutputDir  string             `yaml:"outputDir" toml:"outputDir" json:"outputDir,omitempty"`
}

// DefaultOutputDir is where the CLI creates projects when nothing else is configured.
const DefaultOutputDir = "."

// Diagnostic represents a validation issue.
type Diagnostic struct {
	Severity   DiagnosticSeverity `json:"severity"`
	Message    string             `json:"message"`
	Path       string             `json:"path,omitempty"`
	Suggestion string             `json:"suggestion,omitempty"`
}

// DiagnosticSeverity represents the severity of a diagnostic.
type DiagnosticSeverity string

const (
	SeverityError   DiagnosticSeverity = "error"
	SeverityWarning DiagnosticSeverity = "warning"
	SeverityInfo    DiagnosticSeverity = "info"
)

// Diagnostics represents a collection of validation issues.
type Diagnostics struct {
	items []Diagnostic
}

// NewDiagnostics creates a new diagnostics collection.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{items: make([]Diagnostic, 0)}
}

// Add appends a diagnostic.
func (d *Diagnostics) Add(severity DiagnosticSeverity, message, path, suggestion string) {
	d.items = append(d.items, Diagnostic{
		Severity:   severity,
		Message:    message,
		Path:       path,
		Suggestion: suggestion,
	})
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(message, path, suggestion string) {
	d.Add(SeverityError, message, path, suggestion)
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(message, path, suggestion string) {
	d.Add(SeverityWarning, message, path, suggestion)
}

// AddInfo adds an informational diagnostic.
func (d *Diagnostics) AddInfo(message, path, suggestion string) {
	d.Add(SeverityInfo, message, path, suggestion)
}

// Merge appends every item of other.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.items = append(d.items, other.items...)
}

// HasErrors reports whether any diagnostic has error severity.
func (d *Diagnostics) HasErrors() bool {
	for _, item := range d.items {
		if item.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic has warning severity.
func (d *Diagnostics) HasWarnings() bool {
	for _, item := range d.items {
		if item.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// Items returns a copy of all diagnostics.
func (d *Diagnostics) Items() []Diagnostic {
	result := make([]Diagnostic, len(d.items))
	copy(result, d.items)
	return result
}

// Err returns nil when there are no errors, otherwise one INVALID_REQUEST
// carrying a "path" detail per error diagnostic.
func (d *Diagnostics) Err() error {
	if !d.HasErrors() {
		return nil
	}
	b := errors.Build(errors.CodeInvalidRequest).WithOp("configschema.Validate")
	var msgs []string
	for _, item := range d.items {
		if item.Severity != SeverityError {
			continue
		}
		if item.Path != "" {
			msgs = append(msgs, item.Path+": "+item.Message)
			b.WithDetail("path", item.Path)
		} else {
			msgs = append(msgs, item.Message)
		}
	}
	return b.WithMsg(strings.Join(msgs, "; ")).Err()
}

// FormatOf picks the decoder for path by extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// Load reads a request file. Defaults are not applied; see Compose.
//
// Parameters:
//   - path: Path to a .yaml, .yml or .toml file
//
// Returns:
//   - *RequestFile: Decoded settings, nil when the file could not be decoded
//   - *Diagnostics: Decode and validation issues
//
// Concurrency:
//   - Single-threaded file I/O
//
// Performance:
//   - Single-pass parsing
func Load(path string) (*RequestFile, *Diagnostics) {
	diags := NewDiagnostics()

	format, ok := FormatOf(path)
	if !ok {
		diags.AddError("Unsupported request file format", path, "Use a .yaml, .yml or .toml file")
		return nil, diags
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		diags.AddError("Request file not found", path, "Check the --file path")
		return nil, diags
	}

	data, err := os.ReadFile(path)
	if err != nil {
		diags.AddError(fmt.Sprintf("Failed to read request file: %v", err), path, "Check file permissions")
		return nil, diags
	}

	rf, parseDiags := Parse(data, format)
	diags.Merge(parseDiags)
	return rf, diags
}

// Parse decodes data in the given format and checks the fields it sets.
func Parse(data []byte, format Format) (*RequestFile, *Diagnostics) {
	diags := NewDiagnostics()
	var rf RequestFile

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&rf); err != nil && !isEmptyDocument(err) {
			diags.AddError(fmt.Sprintf("Failed to parse YAML: %v", err), "", "Check YAML syntax and field names")
			return nil, diags
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &rf)
		if err != nil {
			diags.AddError(fmt.Sprintf("Failed to parse TOML: %v", err), "", "Check TOML syntax")
			return nil, diags
		}
		for _, key := range md.Undecoded() {
			diags.AddWarning("Unknown field ignored", key.String(), "Remove the field or check its spelling")
		}
	default:
		diags.AddError(fmt.Sprintf("Unsupported request file format %q", format), "", "Use yaml or toml")
		return nil, diags
	}

	rf.Extensions = SplitList(rf.Extensions)
	validateLayer(&rf, diags)
	return &rf, diags
}

func isEmptyDocument(err error) bool {
	return errors.Is(err, io.EOF)
}

// Defaults returns the built-in bottom layer.
func Defaults() *RequestFile {
	return &RequestFile{
		Version:   codestart.DefaultVersion,
		BuildTool: codestart.DefaultBuildTool,
		Language:  codestart.DefaultLanguage,
		Platform:  codestart.DefaultPlatform,
		OutputDir: DefaultOutputDir,
	}
}

// Environment keys read by FromEnv, without the CODESTART_ prefix.
const (
	EnvGroupID            = "GROUP_ID"
	EnvArtifactID         = "ARTIFACT_ID"
	EnvVersion            = "VERSION"
	EnvBuildTool          = "BUILD_TOOL"
	EnvLanguage           = "LANGUAGE"
	EnvExtensions         = "EXTENSIONS"
	EnvPlatformGroupID    = "PLATFORM_GROUP_ID"
	EnvPlatformArtifactID = "PLATFORM_ARTIFACT_ID"
	EnvPlatformVersion    = "PLATFORM_VERSION"
	EnvOutputDir          = "OUTPUT_DIR"
)

// FromEnv builds a layer from prefix-stripped environment settings.
func FromEnv(vars map[string]string) *RequestFile {
	rf := &RequestFile{
		GroupID:    vars[EnvGroupID],
		ArtifactID: vars[EnvArtifactID],
		Version:    vars[EnvVersion],
		BuildTool:  vars[EnvBuildTool],
		Language:   vars[EnvLanguage],
		Platform: codestart.Platform{
			GroupID:    vars[EnvPlatformGroupID],
			ArtifactID: vars[EnvPlatformArtifactID],
			Version:    vars[EnvPlatformVersion],
		},
		OutputDir: vars[EnvOutputDir],
	}
	if v := vars[EnvExtensions]; v != "" {
		rf.Extensions = SplitList([]string{v})
	}
	return rf
}

// Overlay copies every non-empty field of top onto r.
func (r *RequestFile) Overlay(top *RequestFile) {
	if top == nil {
		return
	}
	overlayString(&r.GroupID, top.GroupID)
	overlayString(&r.ArtifactID, top.ArtifactID)
	overlayString(&r.Version, top.Version)
	overlayString(&r.BuildTool, top.BuildTool)
	overlayString(&r.Language, top.Language)
	overlayString(&r.Platform.GroupID, top.Platform.GroupID)
	overlayString(&r.Platform.ArtifactID, top.Platform.ArtifactID)
	overlayString(&r.Platform.Version, top.Platform.Version)
	overlayString(&r.OutputDir, top.OutputDir)
	if len(top.Extensions) > 0 {
		r.Extensions = append([]string(nil), top.Extensions...)
	}
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Compose layers sources over Defaults, later layers winning. Nil layers are skipped.
func Compose(layers ...*RequestFile) *RequestFile {
	rf := Defaults()
	for _, layer := range layers {
		rf.Overlay(layer)
	}
	return rf
}

// Validate checks a composed request for the fields generation needs.
// Build tool, language and extension ids are checked against the catalog later.
func Validate(rf *RequestFile) *Diagnostics {
	diags := NewDiagnostics()
	if rf.GroupID == "" {
		diags.AddError("groupId is required", "groupId", "Pass --group-id or set groupId in the request file")
	}
	if rf.ArtifactID == "" {
		diags.AddError("artifactId is required", "artifactId", "Pass --artifact-id or set artifactId in the request file")
	}
	validateLayer(rf, diags)
	return diags
}

// validateLayer checks the fields a layer sets without requiring any.
func validateLayer(rf *RequestFile, diags *Diagnostics) {
	if rf.GroupID != "" && !codestart.MavenIDPattern.MatchString(rf.GroupID) {
		diags.AddError("Invalid groupId format", "groupId", "Start with a letter or digit; use letters, digits, '.', '-' and '_' only")
	}
	if rf.ArtifactID != "" && !codestart.MavenIDPattern.MatchString(rf.ArtifactID) {
		diags.AddError("Invalid artifactId format", "artifactId", "Start with a letter or digit; use letters, digits, '.', '-' and '_' only")
	}
	if rf.Platform != (codestart.Platform{}) &&
		(rf.Platform.GroupID == "" || rf.Platform.ArtifactID == "" || rf.Platform.Version == "") {
		diags.AddWarning("Partial platform coordinate", "platform",
			"Missing platform fields are taken from lower layers or the default platform")
	}
}

// Request converts the layer to the pipeline's request type.
func (r *RequestFile) Request() codestart.ProjectRequest {
	return codestart.ProjectRequest{
		GroupID:    r.GroupID,
		ArtifactID: r.ArtifactID,
		Version:    r.Version,
		BuildTool:  r.BuildTool,
		Language:   r.Language,
		Extensions: append([]string(nil), r.Extensions...),
		Platform:   r.Platform,
	}
}

// SplitList flattens comma separated values, trimming blanks.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
