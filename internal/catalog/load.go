package catalog

import (
	"bytes"
	"embed"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"

	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
)

// DefinitionFile is the name of the definition file inside each codestart directory.
const DefinitionFile = "codestart.yml"

//go:embed codestarts
var embedded embed.FS

// Default loads the catalog shipped with the binary.
//
// Parameters:
//   - None
//
// Returns:
//   - *Catalog: Built-in catalog
//   - error: CATALOG_ERROR if an embedded definition is invalid
//
// Concurrency:
//   - Safe for concurrent use; each call builds an independent catalog
//
// Performance:
//   - Reads embedded files only, no disk access
func Default() (*Catalog, error) {
	return Load(embedded, "codestarts")
}

// Load reads every <root>/<dir>/codestart.yml in fsys, resolves template
// references relative to the codestart directory and builds a catalog.
//
// Parameters:
//   - fsys: File system holding codestart directories
//   - root: Directory inside fsys containing one sub-directory per codestart
//
// Returns:
//   - *Catalog: Validated catalog
//   - error: CATALOG_ERROR on unreadable, malformed or invalid definitions
//
// Concurrency:
//   - Safe for concurrent use if fsys is
//
// Performance:
//   - One read per definition and template file
func Load(fsys fs.FS, root string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeCatalogError, "catalog.Load", err, "read catalog root %s", root)
	}

	var defs []codestart.Codestart
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := path.Join(root, entry.Name())
		def, err := loadDefinition(fsys, dir)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	return New(defs...)
}

func loadDefinition(fsys fs.FS, dir string) (codestart.Codestart, error) {
	var def codestart.Codestart
	file := path.Join(dir, DefinitionFile)

	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return def, errors.Build(errors.CodeCatalogError).
			WithOp("catalog.Load").
			WithErr(err).
			WithMsg("read definition").
			WithDetail("path", file).
			Err()
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return def, errors.Build(errors.CodeCatalogError).
			WithOp("catalog.Load").
			WithErr(err).
			WithMsg("parse definition").
			WithDetail("path", file).
			Err()
	}

	if base := path.Base(dir); def.ID != base {
		return def, errors.Build(errors.CodeCatalogError).
			WithOp("catalog.Load").
			WithMsgf("codestart id %q does not match its directory %q", def.ID, base).
			WithDetail("path", file).
			Err()
	}

	for i := range def.Files {
		f := &def.Files[i]
		if f.Template == "" {
			continue
		}
		if f.Content != "" {
			return def, errors.Build(errors.CodeCatalogError).
				WithOp("catalog.Load").
				WithMsg("an entry carries either template or content, not both").
				WithDetail("codestart", def.ID).
				WithDetail("path", f.Path).
				Err()
		}
		tmplPath := path.Join(dir, f.Template)
		content, err := fs.ReadFile(fsys, tmplPath)
		if err != nil {
			return def, errors.Build(errors.CodeCatalogError).
				WithOp("catalog.Load").
				WithErr(err).
				WithMsg("read template").
				WithDetail("codestart", def.ID).
				WithDetail("template", f.Template).
				Err()
		}
		f.Content = string(content)
	}
	return def, nil
}
