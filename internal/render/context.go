package render

import (
	"slices"
	"strings"
	"unicode"

	"go.eggybyte.com/codestart/internal/codestart"
)

// Toolchain versions written into generated descriptors.
const (
	JavaVersion   = "17"
	KotlinVersion = "2.0.21"
)

// Variable names available to every template.
const (
	VarGroupID            = "groupId"
	VarArtifactID         = "artifactId"
	VarVersion            = "version"
	VarBuildTool          = "buildTool"
	VarLanguage           = "language"
	VarLanguageExt        = "languageExt"
	VarPackageName        = "packageName"
	VarPackagePath        = "packagePath"
	VarClassName          = "className"
	VarPlatform           = "platform"
	VarPlatformGroupID    = "platformGroupId"
	VarPlatformArtifactID = "platformArtifactId"
	VarPlatformVersion    = "platformVersion"
	VarExtensions         = "extensions"
	VarExtensionsCSV      = "extensionsCsv"
	VarBuildDir           = "buildDir"
	VarJavaVersion        = "javaVersion"
	VarKotlinVersion      = "kotlinVersion"
)

var languageExtensions = map[string]string{
	codestart.LanguageJava:   "java",
	codestart.LanguageKotlin: "kt",
}

var buildDirs = map[string]string{
	codestart.BuildToolMaven:  "target",
	codestart.BuildToolGradle: "build",
}

// NewContext derives the render variables of a normalized request.
// extensions are the ids of every applied extension; they are exposed sorted.
func NewContext(req codestart.ProjectRequest, extensions []string) codestart.RenderContext {
	sorted := slices.Clone(extensions)
	slices.Sort(sorted)
	if sorted == nil {
		sorted = []string{}
	}

	pkg := PackageName(req.GroupID, req.ArtifactID)

	ext, ok := languageExtensions[req.Language]
	if !ok {
		ext = req.Language
	}
	buildDir, ok := buildDirs[req.BuildTool]
	if !ok {
		buildDir = "build"
	}

	return codestart.NewRenderContext(map[string]any{
		VarGroupID:            req.GroupID,
		VarArtifactID:         req.ArtifactID,
		VarVersion:            req.Version,
		VarBuildTool:          req.BuildTool,
		VarLanguage:           req.Language,
		VarLanguageExt:        ext,
		VarPackageName:        pkg,
		VarPackagePath:        strings.ReplaceAll(pkg, ".", "/"),
		VarClassName:          ClassName(req.ArtifactID),
		VarPlatform:           req.Platform.String(),
		VarPlatformGroupID:    req.Platform.GroupID,
		VarPlatformArtifactID: req.Platform.ArtifactID,
		VarPlatformVersion:    req.Platform.Version,
		VarExtensions:         sorted,
		VarExtensionsCSV:      strings.Join(sorted, ","),
		VarBuildDir:           buildDir,
		VarJavaVersion:        JavaVersion,
		VarKotlinVersion:      KotlinVersion,
	})
}

// PackageName derives a JVM package name from the project coordinates:
// every segment lower-cased and stripped of characters invalid in identifiers.
// Reserved words get a trailing underscore.
func PackageName(groupID, artifactID string) string {
	var segments []string
	for _, raw := range strings.Split(groupID+"."+artifactID, ".") {
		seg := identifier(strings.ToLower(raw))
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return "app"
	}
	return strings.Join(segments, ".")
}

// ClassName turns an artifact id such as "my-test-app" into "MyTestApp".
func ClassName(artifactID string) string {
	var b strings.Builder
	upper := true
	for _, r := range artifactID {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" || unicode.IsDigit([]rune(name)[0]) {
		name = "App" + name
	}
	return name
}

func identifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out != "" && unicode.IsDigit([]rune(out)[0]) {
		out = "_" + out
	}
	if reservedWords[out] {
		out += "_"
	}
	return out
}

// reservedWords cannot appear as package segments in Java or Kotlin sources.
var reservedWords = func() map[string]bool {
	words := []string{
		// Java keywords and literals
		"_", "abstract", "assert", "boolean", "break", "byte", "case", "catch", "char", "class", "const",
		"continue", "default", "do", "double", "else", "enum", "extends", "false", "final", "finally",
		"float", "for", "goto", "if", "implements", "import", "instanceof", "int", "interface", "long",
		"native", "new", "null", "package", "private", "protected", "public", "return", "short", "static",
		"strictfp", "super", "switch", "synchronized", "this", "throw", "throws", "transient", "true",
		"try", "void", "volatile", "while",
		// Kotlin hard keywords not listed above
		"as", "fun", "in", "is", "object", "typealias", "typeof", "val", "var", "when",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
