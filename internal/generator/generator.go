// Package generator runs the codestart pipeline from request to written project.
//
// Overview:
//   - Responsibility: Validate, resolve, render, merge, then commit to disk or an archive
//   - Key Types: Generator, Result
//   - Concurrency Model: A Generator only reads its catalog; concurrent Generate calls are independent
//   - Error Semantics: Every resolution, render and merge error surfaces before any write begins;
//     IO_ERROR is the only failure that can come from the commit step
//   - Performance Notes: CPU-bound and proportional to catalog template size
//
// Usage:
//
//	gen := generator.New(cat, generator.WithLogger(logger))
//	project, err := gen.Generate(ctx, req)
//	if err != nil {
//	    return err
//	}
//	result, err := gen.Write(ctx, project, filepath.Join(outDir, project.RootDir))
package generator

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/log"
	"go.eggybyte.com/codestart/internal/merge"
	"go.eggybyte.com/codestart/internal/projectfs"
	"go.eggybyte.com/codestart/internal/render"
	"go.eggybyte.com/codestart/internal/resolver"
)

// Generator composes projects from a catalog.
type Generator struct {
	catalog resolver.Catalog
	logger  log.Logger
	writer  *projectfs.Writer
	merger  *merge.Merger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger shared by every pipeline stage.
func WithLogger(logger log.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithWriter replaces the default project writer.
func WithWriter(w *projectfs.Writer) Option {
	return func(g *Generator) {
		if w != nil {
			g.writer = w
		}
	}
}

// Result is the outcome of a successful Write.
type Result struct {
	// RootDir is the absolute directory the project was written to.
	RootDir string `json:"rootDir"`
	// Files lists the written project-relative paths in lexical order.
	Files []string `json:"files"`
	// Codestarts lists the applied codestart ids in resolution order.
	Codestarts []string `json:"codestarts"`
}

// New creates a Generator over cat.
//
// Parameters:
//   - cat: Read-only catalog, typically *catalog.Catalog
//   - opts: Optional logger and writer
//
// Returns:
//   - *Generator: Generator instance
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Minimal initialization overhead
func New(cat resolver.Catalog, opts ...Option) *Generator {
	g := &Generator{
		catalog: cat,
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.writer == nil {
		g.writer = projectfs.NewWriter(projectfs.WithLogger(g.logger))
	}
	g.merger = merge.New(g.logger)
	return g
}

// Generate builds the in-memory project for req without touching the filesystem.
//
// Parameters:
//   - ctx: Checked between stages and codestarts
//   - req: Project request; empty version, build tool, language and platform take defaults
//
// Returns:
//   - *codestart.GeneratedProject: Final file set rooted at the artifact id
//   - error: INVALID_REQUEST, resolution, TEMPLATE_ERROR or merge errors
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Proportional to the templates of the resolved codestarts
func (g *Generator) Generate(ctx context.Context, req codestart.ProjectRequest) (*codestart.GeneratedProject, error) {
	start := time.Now()
	logger := log.FromContext(ctx, g.logger)
	req = req.WithDefaults()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	plan, err := resolver.Resolve(g.catalog, req)
	if err != nil {
		return nil, err
	}
	logger.Debug("codestarts resolved",
		log.Str("codestarts", strings.Join(plan.IDs(), ",")),
		log.Str("build_tool", plan.Request.BuildTool),
		log.Str("language", plan.Request.Language))

	rctx := render.NewContext(plan.Request, plan.ExtensionIDs())

	var contributions []codestart.FileContribution
	for _, cs := range plan.Codestarts {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		rendered, err := render.Render(cs, rctx)
		if err != nil {
			return nil, err
		}
		logger.Debug("codestart rendered", log.Str("codestart", cs.ID), log.Int("files", len(rendered)))
		contributions = append(contributions, rendered...)
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	files, err := g.merger.Merge(contributions)
	if err != nil {
		return nil, err
	}

	project := &codestart.GeneratedProject{
		RootDir:    plan.Request.ArtifactID,
		Files:      files,
		Codestarts: plan.IDs(),
	}
	logger.Info("project generated",
		log.Str("artifact_id", project.RootDir),
		log.Int("files", len(files)),
		log.Dur("duration_ms", time.Since(start)))
	return project, nil
}

// Write commits project to targetDir through the configured writer.
func (g *Generator) Write(ctx context.Context, project *codestart.GeneratedProject, targetDir string) (Result, error) {
	if err := checkRootDir(project.RootDir); err != nil {
		return Result{}, err
	}
	abs, err := filepath.Abs(targetDir)
	if err != nil {
		return Result{}, errors.Wrap(errors.CodeIOError, "generator.Write", err)
	}

	paths, err := g.writer.Write(ctx, project.Files, abs)
	if err != nil {
		return Result{}, err
	}

	log.FromContext(ctx, g.logger).Info("project written", log.Str("dir", abs), log.Int("files", len(paths)))
	return Result{RootDir: abs, Files: paths, Codestarts: project.Codestarts}, nil
}

// Create generates req and writes it to <outputDir>/<artifactId>.
func (g *Generator) Create(ctx context.Context, req codestart.ProjectRequest, outputDir string) (Result, error) {
	project, err := g.Generate(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return g.Write(ctx, project, filepath.Join(outputDir, project.RootDir))
}

// Archive writes project as a zip archive whose entries live under project.RootDir.
func (g *Generator) Archive(ctx context.Context, project *codestart.GeneratedProject, w io.Writer) error {
	if err := checkRootDir(project.RootDir); err != nil {
		return err
	}
	return projectfs.WriteArchive(ctx, project.Files, project.RootDir, w)
}

// checkRootDir requires the project directory to be a single local path element.
func checkRootDir(rootDir string) error {
	if rootDir == "" || rootDir == "." || !filepath.IsLocal(rootDir) || filepath.Base(rootDir) != rootDir {
		return errors.Build(errors.CodeInvalidRequest).
			WithOp("generator.checkRootDir").
			WithMsgf("project directory %q must be a plain directory name", rootDir).
			WithDetail("path", rootDir).
			Err()
	}
	return nil
}

// checkContext returns the context error unchanged so callers can match
// context.Canceled and context.DeadlineExceeded.
func checkContext(ctx context.Context) error {
	return ctx.Err()
}
