package projectfs

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"time"

	"go.eggybyte.com/codestart/internal/errors"
)

// archiveTime is stamped on every entry so identical projects produce identical archives.
var archiveTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// WriteArchive writes files as a zip archive with every entry below root.
//
// Parameters:
//   - ctx: Checked between entries
//   - files: Content keyed by slash-separated project-relative path
//   - root: Top-level directory inside the archive, usually the artifact id
//   - w: Destination of the archive bytes
//
// Returns:
//   - error: IO_ERROR naming the entry that failed
//
// Concurrency:
//   - Single-threaded; w must not be shared
//
// Performance:
//   - Entries are deflated in lexical path order
func WriteArchive(ctx context.Context, files map[string]string, root string, w io.Writer) error {
	if root != "" && (root == "." || !filepath.IsLocal(filepath.FromSlash(root))) {
		return ioErr("projectfs.WriteArchive", root, fmt.Errorf("archive root is not a local directory name"))
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	zw := zip.NewWriter(w)
	for _, p := range paths {
		if !filepath.IsLocal(filepath.FromSlash(p)) {
			return ioErr("projectfs.WriteArchive", p, fmt.Errorf("path is not local to the project"))
		}
		if err := ctx.Err(); err != nil {
			return ioErr("projectfs.WriteArchive", p, err)
		}
		name := p
		if root != "" {
			name = path.Join(root, p)
		}
		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: archiveTime,
		}
		header.SetMode(defaultFileMode)

		fw, err := zw.CreateHeader(header)
		if err != nil {
			return ioErr("projectfs.WriteArchive", p, err)
		}
		if _, err := io.WriteString(fw, files[p]); err != nil {
			return ioErr("projectfs.WriteArchive", p, err)
		}
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(errors.CodeIOError, "projectfs.WriteArchive", err)
	}
	return nil
}
