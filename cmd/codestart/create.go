package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"go.eggybyte.com/codestart/internal/catalog"
	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/configschema"
	"go.eggybyte.com/codestart/internal/envloader"
	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/generator"
	"go.eggybyte.com/codestart/internal/ui"
)

// createOptions holds the create command flags.
type createOptions struct {
	file       string
	groupID    string
	artifactID string
	version    string
	buildTool  string
	language   string
	extensions []string
	platform   string
	outputDir  string
	zipPath    string
	dryRun     bool
}

func newCreateCmd(global *globalOptions) *cobra.Command {
	opts := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create [[groupId:]artifactId[:version]]",
		Short: "Create a new project",
		Long: `Create a new project from the codestart catalog.

Settings are layered, later sources winning:
  1. built-in defaults (maven, java, 1.0.0-SNAPSHOT, default platform)
  2. CODESTART_* environment variables and the --env-file
  3. the request file given with --file (.yaml, .yml or .toml)
  4. the positional coordinate and command-line flags

A language id in --extensions selects that language (resteasy,kotlin).
The project is written to <output-dir>/<artifactId>, which must not exist
or must be empty.

Examples:
  codestart create my-app
  codestart create org.acme:my-app --extensions resteasy,qute
  codestart create my-app -e resteasy,kotlin -b gradle
  codestart create --file request.yaml --dry-run
  codestart create my-app --zip my-app.zip`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args, global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Request file (.yaml, .yml or .toml)")
	f.StringVarP(&opts.groupID, "group-id", "g", "", "Project groupId")
	f.StringVarP(&opts.artifactID, "artifact-id", "a", "", "Project artifactId")
	f.StringVar(&opts.version, "project-version", "", "Project version (default 1.0.0-SNAPSHOT)")
	f.StringVarP(&opts.buildTool, "build-tool", "b", "", "Build tool id (maven|gradle)")
	f.StringVarP(&opts.language, "language", "l", "", "Language id (java|kotlin)")
	f.StringSliceVarP(&opts.extensions, "extensions", "e", nil, "Extensions (comma separated or repeated)")
	f.StringVar(&opts.platform, "platform", "", "Platform BOM as groupId:artifactId:version")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory that receives the project directory (default .)")
	f.StringVar(&opts.zipPath, "zip", "", "Write a zip archive to this path instead of a directory")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Resolve and render without writing anything")
	return cmd
}

// runCreate executes the create command.
//
// Parameters:
//   - cmd: Cobra command
//   - args: Optional [groupId:]artifactId[:version] coordinate
//   - global: Persistent flags
//   - opts: Create flags
//
// Returns:
//   - error: Coded generation error or INVALID_REQUEST for bad settings
//
// Concurrency:
//   - Single-threaded; file staging inside the writer is parallel
//
// Performance:
//   - One catalog load, one generation
func runCreate(cmd *cobra.Command, args []string, global *globalOptions, opts *createOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rf, err := composeRequest(cmd, args, opts)
	if err != nil {
		return err
	}
	req := rf.Request()

	total := 3
	ui.Step(1, total, "Loading codestart catalog")
	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	logger := newLogger(global)
	gen := generator.New(cat, generator.WithLogger(logger))

	ui.Step(2, total, "Generating %s (%s, %s)", req.ArtifactID, req.BuildTool, req.Language)
	project, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	ui.Debug("Applied codestarts: %s", strings.Join(project.Codestarts, ", "))

	switch {
	case opts.dryRun:
		ui.Step(3, total, "Dry run, nothing written")
		for _, p := range project.Paths() {
			ui.Info("  %s/%s", project.RootDir, p)
		}
		ui.Result(map[string]any{
			"rootDir":    project.RootDir,
			"files":      project.Paths(),
			"codestarts": project.Codestarts,
		}, "Project %s would contain %d files", project.RootDir, len(project.Files))
		return nil

	case opts.zipPath != "":
		ui.Step(3, total, "Writing archive %s", opts.zipPath)
		if err := writeZip(ctx, gen, project, opts.zipPath); err != nil {
			return err
		}
		ui.Result(map[string]any{
			"archive":    opts.zipPath,
			"files":      project.Paths(),
			"codestarts": project.Codestarts,
		}, "Archive created: %s", opts.zipPath)
		return nil
	}

	target := filepath.Join(rf.OutputDir, project.RootDir)
	ui.Step(3, total, "Writing %s", target)
	result, err := gen.Write(ctx, project, target)
	if err != nil {
		return err
	}

	ui.Result(result, "Project created at %s", result.RootDir)
	ui.Info("Next steps:")
	ui.Info("  cd %s", target)
	if req.BuildTool == codestart.BuildToolGradle {
		ui.Info("  gradle quarkusDev")
	} else {
		ui.Info("  mvn quarkus:dev")
	}
	return nil
}

// composeRequest layers defaults, environment, request file, positional
// coordinate and changed flags, then validates the result.
func composeRequest(cmd *cobra.Command, args []string, opts *createOptions) (*configschema.RequestFile, error) {
	env := configschema.FromEnv(envloader.Prefixed(os.Environ(), envloader.Prefix))

	var file *configschema.RequestFile
	if opts.file != "" {
		loaded, diags := configschema.Load(opts.file)
		reportDiagnostics(diags)
		if diags.HasErrors() {
			return nil, diags.Err()
		}
		file = loaded
	}

	flags, err := flagLayer(cmd, args, opts)
	if err != nil {
		return nil, err
	}

	rf := configschema.Compose(env, file, flags)
	diags := configschema.Validate(rf)
	reportDiagnostics(diags)
	if err := diags.Err(); err != nil {
		return nil, err
	}
	return rf, nil
}

func flagLayer(cmd *cobra.Command, args []string, opts *createOptions) (*configschema.RequestFile, error) {
	layer := &configschema.RequestFile{}

	if len(args) == 1 {
		g, a, v, err := parseCoordinate(args[0])
		if err != nil {
			return nil, err
		}
		layer.GroupID, layer.ArtifactID, layer.Version = g, a, v
	}

	f := cmd.Flags()
	if f.Changed("group-id") {
		layer.GroupID = opts.groupID
	}
	if f.Changed("artifact-id") {
		layer.ArtifactID = opts.artifactID
	}
	if f.Changed("project-version") {
		layer.Version = opts.version
	}
	if f.Changed("build-tool") {
		layer.BuildTool = opts.buildTool
	}
	if f.Changed("language") {
		layer.Language = opts.language
	}
	if f.Changed("extensions") {
		layer.Extensions = configschema.SplitList(opts.extensions)
	}
	if f.Changed("output-dir") {
		layer.OutputDir = opts.outputDir
	}
	if f.Changed("platform") {
		p, err := parsePlatform(opts.platform)
		if err != nil {
			return nil, err
		}
		layer.Platform = p
	}
	return layer, nil
}

// parseCoordinate accepts artifactId, groupId:artifactId or groupId:artifactId:version.
func parseCoordinate(s string) (groupID, artifactID, version string, err error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		artifactID = parts[0]
	case 2:
		groupID, artifactID = parts[0], parts[1]
	case 3:
		groupID, artifactID, version = parts[0], parts[1], parts[2]
	default:
		return "", "", "", coordinateErr(s)
	}
	for _, p := range parts {
		if p == "" {
			return "", "", "", coordinateErr(s)
		}
	}
	return groupID, artifactID, version, nil
}

func parsePlatform(s string) (codestart.Platform, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return codestart.Platform{}, errors.Build(errors.CodeInvalidRequest).
			WithOp("cli.platform").
			WithMsgf("platform %q is not groupId:artifactId:version", s).
			WithDetail("flag", "platform").
			Err()
	}
	return codestart.Platform{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}, nil
}

func coordinateErr(s string) error {
	return errors.Build(errors.CodeInvalidRequest).
		WithOp("cli.coordinate").
		WithMsgf("project coordinate %q is not [groupId:]artifactId[:version]", s).
		Err()
}

func reportDiagnostics(diags *configschema.Diagnostics) {
	for _, d := range diags.Items() {
		text := d.Message
		if d.Path != "" {
			text = fmt.Sprintf("%s: %s", d.Path, d.Message)
		}
		if d.Suggestion != "" {
			text += " (" + d.Suggestion + ")"
		}
		switch d.Severity {
		case configschema.SeverityError:
			ui.Error("%s", text)
		case configschema.SeverityWarning:
			ui.Warning("%s", text)
		default:
			ui.Debug("%s", text)
		}
	}
}

func writeZip(ctx context.Context, gen *generator.Generator, project *codestart.GeneratedProject, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(errors.CodeIOError, "cli.zip", err, "create archive %s", path)
	}
	if err := gen.Archive(ctx, project, f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return errors.Wrapf(errors.CodeIOError, "cli.zip", err, "close archive %s", path)
	}
	return nil
}
