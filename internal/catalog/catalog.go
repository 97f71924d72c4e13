// Package catalog holds the set of known codestart definitions.
//
// Overview:
//   - Responsibility: Load, validate, and look up codestart definitions
//   - Key Types: Catalog for lookups, Extension for the public extension registry view
//   - Concurrency Model: Immutable after construction, safe to share across concurrent generations
//   - Error Semantics: Construction failures are CATALOG_ERROR and fatal for the caller
//   - Performance Notes: Lookups are map-backed; templates are read once at load
//
// Usage:
//
//	cat, err := catalog.Default()
//	if err != nil {
//	    return err
//	}
//	cs, ok := cat.LookupExtension("quarkus-resteasy")
package catalog

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
)

// Catalog is an immutable set of codestarts indexed by id and alias.
type Catalog struct {
	byID    map[string]*codestart.Codestart
	aliases map[string]string
	ordered []*codestart.Codestart
}

// Extension is the registry view of an extension codestart exposed to callers.
type Extension struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name,omitempty"`
	Dependency         string   `json:"dependency"`
	Aliases            []string `json:"aliases,omitempty"`
	SupportedLanguages []string `json:"supportedLanguages,omitempty"`
	DependsOn          []string `json:"dependsOn,omitempty"`
}

var definitionValidator = validator.New()

// New builds a catalog from fully loaded definitions.
//
// Parameters:
//   - defs: Codestart definitions with inline content (templates already read)
//
// Returns:
//   - *Catalog: Validated catalog
//   - error: CATALOG_ERROR describing the first invalid definition
//
// Concurrency:
//   - The returned catalog is safe for concurrent reads
//
// Performance:
//   - O(n) over definitions and their files
func New(defs ...codestart.Codestart) (*Catalog, error) {
	c := &Catalog{
		byID:    make(map[string]*codestart.Codestart, len(defs)),
		aliases: make(map[string]string),
	}

	for i := range defs {
		def := cloneCodestart(defs[i])
		if err := checkDefinition(&def); err != nil {
			return nil, err
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, catalogErr(def.ID, "duplicate codestart id")
		}
		c.byID[def.ID] = &def
		c.ordered = append(c.ordered, &def)
	}

	if err := c.indexAliases(); err != nil {
		return nil, err
	}
	if err := c.checkGraph(); err != nil {
		return nil, err
	}

	sort.SliceStable(c.ordered, func(i, j int) bool {
		ki, kj := kindRank(c.ordered[i].Kind), kindRank(c.ordered[j].Kind)
		if ki != kj {
			return ki < kj
		}
		return c.ordered[i].ID < c.ordered[j].ID
	})
	return c, nil
}

// Lookup returns the codestart with the given id.
// The returned value is owned by the catalog and must not be modified.
func (c *Catalog) Lookup(id string) (*codestart.Codestart, bool) {
	cs, ok := c.byID[id]
	return cs, ok
}

// LookupKind returns the codestart with the given id only if it has the given kind.
func (c *Catalog) LookupKind(kind codestart.Kind, id string) (*codestart.Codestart, bool) {
	cs, ok := c.byID[id]
	if !ok || cs.Kind != kind {
		return nil, false
	}
	return cs, true
}

// LookupExtension resolves an extension by id, alias, dependency coordinate or
// "quarkus-" prefixed artifact name.
func (c *Catalog) LookupExtension(ref string) (*codestart.Codestart, bool) {
	ref = strings.TrimSpace(ref)
	if cs, ok := c.LookupKind(codestart.KindExtension, ref); ok {
		return cs, true
	}
	if id, ok := c.aliases[ref]; ok {
		return c.LookupKind(codestart.KindExtension, id)
	}
	if trimmed, ok := strings.CutPrefix(ref, "quarkus-"); ok {
		return c.LookupKind(codestart.KindExtension, trimmed)
	}
	return nil, false
}

// AllOfKind returns every codestart of the given kind ordered by id.
func (c *Catalog) AllOfKind(kind codestart.Kind) []*codestart.Codestart {
	var out []*codestart.Codestart
	for _, cs := range c.ordered {
		if cs.Kind == kind {
			out = append(out, cs)
		}
	}
	return out
}

// IDs returns the ids of every codestart of the given kind in lexical order.
func (c *Catalog) IDs(kind codestart.Kind) []string {
	all := c.AllOfKind(kind)
	ids := make([]string, 0, len(all))
	for _, cs := range all {
		ids = append(ids, cs.ID)
	}
	return ids
}

// Extensions returns the extension registry ordered by id.
func (c *Catalog) Extensions() []Extension {
	all := c.AllOfKind(codestart.KindExtension)
	out := make([]Extension, 0, len(all))
	for _, cs := range all {
		out = append(out, Extension{
			ID:                 cs.ID,
			Name:               cs.Name,
			Dependency:         cs.Dependency,
			Aliases:            slices.Clone(cs.Aliases),
			SupportedLanguages: slices.Clone(cs.SupportedLanguages),
			DependsOn:          slices.Clone(cs.DependsOn),
		})
	}
	return out
}

// Len returns the number of codestarts in the catalog.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

func (c *Catalog) indexAliases() error {
	for _, cs := range c.ordered {
		names := slices.Clone(cs.Aliases)
		if cs.Kind == codestart.KindExtension {
			names = append(names, cs.Dependency)
		}
		for _, alias := range names {
			if alias == cs.ID {
				continue
			}
			if _, clash := c.byID[alias]; clash {
				return catalogErr(cs.ID, fmt.Sprintf("alias %q collides with a codestart id", alias))
			}
			if owner, dup := c.aliases[alias]; dup && owner != cs.ID {
				return catalogErr(cs.ID, fmt.Sprintf("alias %q already used by %s", alias, owner))
			}
			c.aliases[alias] = cs.ID
		}
	}
	return nil
}

func (c *Catalog) checkGraph() error {
	bases := 0
	for _, cs := range c.ordered {
		if cs.Kind == codestart.KindProjectBase {
			bases++
		}
		for _, dep := range cs.DependsOn {
			target, ok := c.byID[dep]
			if !ok {
				return catalogErr(cs.ID, fmt.Sprintf("dependsOn references unknown codestart %q", dep))
			}
			if target.Kind != codestart.KindExtension {
				return catalogErr(cs.ID, fmt.Sprintf("dependsOn references %q of kind %s, only extensions may be depended on", dep, target.Kind))
			}
		}
	}
	if bases != 1 {
		return errors.Build(errors.CodeCatalogError).
			WithOp("catalog.New").
			WithMsgf("catalog must define exactly one %s codestart, found %d", codestart.KindProjectBase, bases).
			Err()
	}
	return nil
}

func checkDefinition(def *codestart.Codestart) error {
	if err := definitionValidator.Struct(def); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.Build(errors.CodeCatalogError).
				WithOp("catalog.New").
				WithMsgf("invalid definition: %s failed %q", fe.Namespace(), fe.Tag()).
				WithDetail("codestart", def.ID).
				WithDetail("field", fe.Namespace()).
				Err()
		}
		return errors.Wrap(errors.CodeCatalogError, "catalog.New", err)
	}

	if def.Kind == codestart.KindExtension && strings.Count(def.Dependency, ":") != 1 {
		return catalogErr(def.ID, fmt.Sprintf("dependency %q is not a groupId:artifactId coordinate", def.Dependency))
	}
	if def.Kind != codestart.KindExtension && len(def.DependsOn) > 0 {
		return catalogErr(def.ID, "only extensions may declare dependsOn")
	}

	for _, f := range def.Files {
		if len(f.Fragments) > 0 && f.Strategy != codestart.StrategyStructuredMerge {
			return fileErr(def.ID, f.Path, fmt.Sprintf("fragments require strategy %s, got %s", codestart.StrategyStructuredMerge, f.Strategy))
		}
		if len(f.Fragments) > 0 && f.Content != "" {
			return fileErr(def.ID, f.Path, "an entry carries either content or fragments, not both")
		}
		if f.Template != "" && f.Content == "" {
			return fileErr(def.ID, f.Path, fmt.Sprintf("template %q was not loaded", f.Template))
		}
		if f.Language != "" && !def.SupportsLanguage(f.Language) {
			return fileErr(def.ID, f.Path, fmt.Sprintf("file filtered to language %q the codestart does not support", f.Language))
		}
	}
	return nil
}

func catalogErr(id, msg string) error {
	return errors.Build(errors.CodeCatalogError).
		WithOp("catalog.New").
		WithMsg(msg).
		WithDetail("codestart", id).
		Err()
}

func fileErr(id, path, msg string) error {
	return errors.Build(errors.CodeCatalogError).
		WithOp("catalog.New").
		WithMsg(msg).
		WithDetail("codestart", id).
		WithDetail("path", path).
		Err()
}

func kindRank(k codestart.Kind) int {
	for i, kind := range codestart.Kinds {
		if kind == k {
			return i
		}
	}
	return len(codestart.Kinds)
}

func cloneCodestart(cs codestart.Codestart) codestart.Codestart {
	cs.Aliases = slices.Clone(cs.Aliases)
	cs.SupportedLanguages = slices.Clone(cs.SupportedLanguages)
	cs.DependsOn = slices.Clone(cs.DependsOn)
	files := make([]codestart.FileTemplate, len(cs.Files))
	for i, f := range cs.Files {
		f.Fragments = slices.Clone(f.Fragments)
		files[i] = f
	}
	cs.Files = files
	return cs
}
