// Package render expands codestart file templates into file contributions.
//
// Overview:
//   - Responsibility: Substitute render variables into file paths, contents and fragments
//   - Key Types: Contributions produced as codestart.FileContribution values
//   - Concurrency Model: Stateless; safe for concurrent use over a shared catalog
//   - Error Semantics: Any unresolved placeholder or malformed template is TEMPLATE_ERROR
//     carrying the codestart id and file path
//   - Performance Notes: Templates are parsed per render; catalogs are small
//
// Usage:
//
//	ctx := render.NewContext(plan.Request, plan.ExtensionIDs())
//	contributions, err := render.Render(cs, ctx)
package render

import (
	"path"
	"strings"
	"text/template"

	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
)

var funcMap = template.FuncMap{
	"ToUpper": strings.ToUpper,
	"ToLower": strings.ToLower,
	"Join":    strings.Join,
}

// Render expands every file of cs that applies to the context's build tool and language.
//
// Parameters:
//   - cs: Codestart definition owned by the catalog (not modified)
//   - ctx: Render variables of the current request
//
// Returns:
//   - []codestart.FileContribution: One contribution per applicable file, in definition order
//   - error: TEMPLATE_ERROR identifying codestart and file on the first failure
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - Parses each template once per call
func Render(cs *codestart.Codestart, ctx codestart.RenderContext) ([]codestart.FileContribution, error) {
	buildTool := ctx.String(VarBuildTool)
	language := ctx.String(VarLanguage)
	vars := ctx.Vars()

	out := make([]codestart.FileContribution, 0, len(cs.Files))
	for _, f := range cs.Files {
		if !f.AppliesTo(buildTool, language) {
			continue
		}

		target, err := expand(cs.ID, f.Path, "path", f.Path, vars)
		if err != nil {
			return nil, err
		}
		target, err = cleanPath(cs.ID, f.Path, target)
		if err != nil {
			return nil, err
		}

		contribution := codestart.FileContribution{
			Path:              target,
			Strategy:          f.Strategy,
			SourceCodestartID: cs.ID,
		}

		if f.Content != "" {
			name := f.Template
			if name == "" {
				name = f.Path
			}
			if contribution.Content, err = expand(cs.ID, target, name, f.Content, vars); err != nil {
				return nil, err
			}
		}

		for _, frag := range f.Fragments {
			content, err := expand(cs.ID, target, frag.Point+"#"+frag.Key, frag.Content, vars)
			if err != nil {
				return nil, err
			}
			key := frag.Key
			if key == "" {
				key = strings.TrimSpace(content)
			}
			contribution.Fragments = append(contribution.Fragments, codestart.Fragment{
				Point:   frag.Point,
				Key:     key,
				Content: content,
			})
		}

		out = append(out, contribution)
	}
	return out, nil
}

func expand(codestartID, filePath, name, text string, vars map[string]any) (string, error) {
	tmpl, err := template.New(name).Funcs(funcMap).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", templateErr(codestartID, filePath, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, vars); err != nil {
		return "", templateErr(codestartID, filePath, err)
	}
	return b.String(), nil
}

func cleanPath(codestartID, raw, rendered string) (string, error) {
	cleaned := path.Clean(strings.TrimSpace(rendered))
	if cleaned == "." || cleaned == "" || path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.Build(errors.CodeTemplateError).
			WithOp("render.Render").
			WithMsgf("file path %q renders to %q, which is not inside the project", raw, rendered).
			WithDetail("codestart", codestartID).
			WithDetail("path", raw).
			Err()
	}
	return cleaned, nil
}

func templateErr(codestartID, filePath string, err error) error {
	return errors.Build(errors.CodeTemplateError).
		WithOp("render.Render").
		WithErr(err).
		WithMsg("template expansion failed").
		WithDetail("codestart", codestartID).
		WithDetail("path", filePath).
		Err()
}
