// Package projectfs materializes generated projects on disk or into archives.
//
// Overview:
//   - Responsibility: Stage project files, move them into place, build zip archives
//   - Key Types: Writer for directory output, WriteArchive for zip output
//   - Concurrency Model: Files of one project are staged in parallel through an errgroup;
//     separate Write calls share nothing
//   - Error Semantics: IO_ERROR with the failing path; a failed Write leaves no target directory behind
//   - Performance Notes: Staging directory lives next to the target so the final move is a rename
//
// Usage:
//
//	w := projectfs.NewWriter(projectfs.WithLogger(logger))
//	paths, err := w.Write(ctx, project.Files, "out/my-app")
package projectfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/log"
)

const (
	defaultDirMode  os.FileMode = 0o755
	defaultFileMode os.FileMode = 0o644
)

// Writer writes a file set into a target directory through a staging directory.
type Writer struct {
	logger      log.Logger
	concurrency int
	fileMode    os.FileMode
	dirMode     os.FileMode
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger used for per-file debug output.
func WithLogger(logger log.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithConcurrency bounds the number of files written in parallel.
func WithConcurrency(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithFileMode sets the permission bits of written files.
func WithFileMode(mode os.FileMode) Option {
	return func(w *Writer) {
		w.fileMode = mode
	}
}

// NewWriter creates a Writer.
//
// Parameters:
//   - opts: Optional logger, concurrency bound and file mode
//
// Returns:
//   - *Writer: Writer instance
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Minimal initialization overhead
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		logger:      log.Nop(),
		concurrency: 8,
		fileMode:    defaultFileMode,
		dirMode:     defaultDirMode,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write stages files in a sibling temporary directory and renames it to targetDir
// once every file is written.
//
// Parameters:
//   - ctx: Cancels staging between files
//   - files: Content keyed by slash-separated project-relative path
//   - targetDir: Directory to create; it must be absent or empty
//
// Returns:
//   - []string: Written paths in lexical order
//   - error: IO_ERROR; on failure targetDir is left as it was found
//
// Concurrency:
//   - Files are written in parallel up to the configured bound
//
// Performance:
//   - One rename commits the whole tree
func (w *Writer) Write(ctx context.Context, files map[string]string, targetDir string) ([]string, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		if !filepath.IsLocal(filepath.FromSlash(p)) {
			return nil, ioErr("projectfs.Write", p, fmt.Errorf("path is not local to the project"))
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	targetDir = filepath.Clean(targetDir)
	existed, err := checkTarget(targetDir)
	if err != nil {
		return nil, err
	}

	parent := filepath.Dir(targetDir)
	if err := os.MkdirAll(parent, w.dirMode); err != nil {
		return nil, ioErr("projectfs.Write", parent, err)
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(targetDir)+".staging-")
	if err != nil {
		return nil, ioErr("projectfs.Write", parent, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := w.stage(ctx, staging, files, paths); err != nil {
		return nil, err
	}
	if err := os.Chmod(staging, w.dirMode); err != nil {
		return nil, ioErr("projectfs.Write", staging, err)
	}

	if existed {
		if err := os.Remove(targetDir); err != nil {
			return nil, ioErr("projectfs.Write", targetDir, err)
		}
	}
	if err := renameDir(staging, targetDir); err != nil {
		if existed {
			_ = os.Mkdir(targetDir, w.dirMode)
		}
		return nil, ioErr("projectfs.Write", targetDir, err)
	}
	committed = true

	w.logger.Debug("project committed", log.Str("dir", targetDir), log.Int("files", len(paths)))
	return paths, nil
}

func (w *Writer) stage(ctx context.Context, staging string, files map[string]string, paths []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, p := range paths {
		content := files[p]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return ioErr("projectfs.Write", p, err)
			}
			full := filepath.Join(staging, filepath.FromSlash(p))
			if err := os.MkdirAll(filepath.Dir(full), w.dirMode); err != nil {
				return ioErr("projectfs.Write", p, err)
			}
			if err := os.WriteFile(full, []byte(content), w.fileMode); err != nil {
				return ioErr("projectfs.Write", p, err)
			}
			w.logger.Debug("file staged", log.Str("path", p), log.Int("bytes", len(content)))
			return nil
		})
	}
	return g.Wait()
}

// renameDir moves the staged tree into place; tests replace it to simulate failures.
var renameDir = os.Rename

// checkTarget reports whether dir exists; an existing dir must be an empty directory.
func checkTarget(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, ioErr("projectfs.Write", dir, err)
	}
	if !info.IsDir() {
		return false, ioErr("projectfs.Write", dir, fmt.Errorf("target exists and is not a directory"))
	}
	empty, err := IsEmptyDir(dir)
	if err != nil {
		return false, err
	}
	if !empty {
		return false, errors.Build(errors.CodeIOError).
			WithOp("projectfs.Write").
			WithMsgf("target directory %s already exists and is not empty", dir).
			WithDetail("path", dir).
			Err()
	}
	return true, nil
}

// IsEmptyDir reports whether dir is an existing directory without entries.
func IsEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, ioErr("projectfs.IsEmptyDir", dir, err)
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, ioErr("projectfs.IsEmptyDir", dir, err)
	}
	return false, nil
}

func ioErr(op, path string, err error) error {
	return errors.Build(errors.CodeIOError).
		WithOp(op).
		WithErr(err).
		WithMsgf("%s failed", op).
		WithDetail("path", path).
		Err()
}
