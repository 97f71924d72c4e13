// Package resolver turns a project request into the ordered list of codestarts to apply.
//
// Overview:
//   - Responsibility: Select project base, build tool, language and extensions; expand dependsOn
//   - Key Types: Catalog lookup interface, Plan result
//   - Concurrency Model: Pure functions over a read-only catalog, safe for concurrent use
//   - Error Semantics: UNSUPPORTED_BUILD_TOOL, UNSUPPORTED_LANGUAGE, UNKNOWN_EXTENSION,
//     INCOMPATIBLE_EXTENSION, DEPENDENCY_CYCLE and INVALID_REQUEST coded errors
//   - Performance Notes: Linear in requested extensions plus their transitive dependencies
//
// Usage:
//
//	plan, err := resolver.Resolve(cat, req)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(plan.IDs()) // [project-base maven kotlin resteasy]
package resolver

import (
	"slices"
	"strings"

	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
)

// Catalog is the lookup surface the resolver needs.
type Catalog interface {
	LookupKind(kind codestart.Kind, id string) (*codestart.Codestart, bool)
	LookupExtension(ref string) (*codestart.Codestart, bool)
	IDs(kind codestart.Kind) []string
}

// Plan is the result of a successful resolution.
type Plan struct {
	// Request is the normalized request: language shorthand applied and
	// extension references replaced by canonical ids.
	Request codestart.ProjectRequest
	// Codestarts lists the codestarts to apply: project base, build tool,
	// language, then extensions with dependencies before their dependents.
	Codestarts []*codestart.Codestart
}

// IDs returns the codestart ids in application order.
func (p *Plan) IDs() []string {
	ids := make([]string, 0, len(p.Codestarts))
	for _, cs := range p.Codestarts {
		ids = append(ids, cs.ID)
	}
	return ids
}

// ExtensionIDs returns the ids of every applied extension, including those
// pulled in through dependsOn, in application order.
func (p *Plan) ExtensionIDs() []string {
	var ids []string
	for _, cs := range p.Codestarts {
		if cs.Kind == codestart.KindExtension {
			ids = append(ids, cs.ID)
		}
	}
	return ids
}

// Resolve computes the ordered, de-duplicated codestart list for req.
//
// Parameters:
//   - cat: Read-only catalog
//   - req: Project request; Language defaults to java when empty
//
// Returns:
//   - *Plan: Normalized request and ordered codestarts
//   - error: Coded resolution error naming the offending build tool, language or extension
//
// Concurrency:
//   - Pure, no I/O; safe for concurrent use
//
// Performance:
//   - O(e + d) for e requested extensions and d dependency edges
func Resolve(cat Catalog, req codestart.ProjectRequest) (*Plan, error) {
	req.Extensions = slices.Clone(req.Extensions)

	language, refs, err := splitLanguageShorthand(cat, req.Language, req.Extensions)
	if err != nil {
		return nil, err
	}
	req.Language = language

	bases := cat.IDs(codestart.KindProjectBase)
	if len(bases) != 1 {
		return nil, errors.Build(errors.CodeCatalogError).
			WithOp("resolver.Resolve").
			WithMsgf("expected exactly one %s codestart, found %d", codestart.KindProjectBase, len(bases)).
			Err()
	}
	base, _ := cat.LookupKind(codestart.KindProjectBase, bases[0])

	buildTool, ok := cat.LookupKind(codestart.KindBuildTool, req.BuildTool)
	if !ok {
		supported := cat.IDs(codestart.KindBuildTool)
		return nil, errors.Build(errors.CodeUnsupportedBuildTool).
			WithOp("resolver.Resolve").
			WithMsgf("unsupported build tool %q, supported: %s", req.BuildTool, strings.Join(supported, ", ")).
			WithDetail("buildTool", req.BuildTool).
			WithDetail("supported", strings.Join(supported, ",")).
			Err()
	}

	lang, ok := cat.LookupKind(codestart.KindLanguage, req.Language)
	if !ok {
		supported := cat.IDs(codestart.KindLanguage)
		return nil, errors.Build(errors.CodeUnsupportedLanguage).
			WithOp("resolver.Resolve").
			WithMsgf("unsupported language %q, supported: %s", req.Language, strings.Join(supported, ", ")).
			WithDetail("language", req.Language).
			WithDetail("supported", strings.Join(supported, ",")).
			Err()
	}

	requested, err := lookupExtensions(cat, refs)
	if err != nil {
		return nil, err
	}

	expanded, err := expand(cat, requested)
	if err != nil {
		return nil, err
	}

	requestedIDs := make(map[string]bool, len(requested))
	req.Extensions = req.Extensions[:0]
	for _, cs := range requested {
		requestedIDs[cs.ID] = true
		req.Extensions = append(req.Extensions, cs.ID)
	}

	for _, cs := range expanded {
		if cs.SupportsLanguage(req.Language) {
			continue
		}
		b := errors.Build(errors.CodeIncompatibleExtension).
			WithOp("resolver.Resolve").
			WithMsgf("extension %s does not support language %s (supported: %s)",
				cs.ID, req.Language, strings.Join(cs.SupportedLanguages, ", ")).
			WithDetail("extension", cs.ID).
			WithDetail("language", req.Language)
		if !requestedIDs[cs.ID] {
			b.WithDetail("reason", "required by another selected extension")
		}
		return nil, b.Err()
	}

	plan := &Plan{Request: req}
	plan.Codestarts = append(plan.Codestarts, base, buildTool, lang)
	plan.Codestarts = append(plan.Codestarts, expanded...)
	return plan, nil
}

// splitLanguageShorthand removes language ids from the extension list and
// returns the effective language. A language given among the extensions wins
// over the default language but must agree with any other explicit choice.
func splitLanguageShorthand(cat Catalog, language string, refs []string) (string, []string, error) {
	if language == "" {
		language = codestart.DefaultLanguage
	}

	var shorthand string
	rest := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, ok := cat.LookupKind(codestart.KindLanguage, ref); !ok {
			rest = append(rest, ref)
			continue
		}
		if shorthand != "" && shorthand != ref {
			return "", nil, errors.Build(errors.CodeInvalidRequest).
				WithOp("resolver.Resolve").
				WithMsgf("more than one language selected: %s and %s", shorthand, ref).
				WithDetail("language", shorthand).
				WithDetail("language", ref).
				Err()
		}
		shorthand = ref
	}

	if shorthand == "" || shorthand == language {
		return language, rest, nil
	}
	if language != codestart.DefaultLanguage {
		return "", nil, errors.Build(errors.CodeInvalidRequest).
			WithOp("resolver.Resolve").
			WithMsgf("language %s conflicts with %s selected among extensions", language, shorthand).
			WithDetail("language", language).
			WithDetail("extension", shorthand).
			Err()
	}
	return shorthand, rest, nil
}

func lookupExtensions(cat Catalog, refs []string) ([]*codestart.Codestart, error) {
	var (
		out     []*codestart.Codestart
		unknown []string
		seen    = make(map[string]bool, len(refs))
	)
	for _, ref := range refs {
		cs, ok := cat.LookupExtension(ref)
		if !ok {
			if !slices.Contains(unknown, ref) {
				unknown = append(unknown, ref)
			}
			continue
		}
		if seen[cs.ID] {
			continue
		}
		seen[cs.ID] = true
		out = append(out, cs)
	}

	if len(unknown) > 0 {
		valid := cat.IDs(codestart.KindExtension)
		b := errors.Build(errors.CodeUnknownExtension).
			WithOp("resolver.Resolve").
			WithMsgf("unknown extension %s, valid extensions: %s",
				strings.Join(unknown, ", "), strings.Join(valid, ", "))
		for _, ref := range unknown {
			b.WithDetail("extension", ref)
		}
		return nil, b.WithDetail("valid", strings.Join(valid, ",")).Err()
	}
	return out, nil
}

const (
	white = iota // not visited
	gray         // on the current path
	black        // emitted
)

type frame struct {
	cs   *codestart.Codestart
	next int
}

// expand walks dependsOn depth-first from each root in request order and
// emits every extension after its dependencies, each exactly once.
func expand(cat Catalog, roots []*codestart.Codestart) ([]*codestart.Codestart, error) {
	color := make(map[string]int)
	var order []*codestart.Codestart

	for _, root := range roots {
		if color[root.ID] != white {
			continue
		}
		color[root.ID] = gray
		stack := []frame{{cs: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(top.cs.DependsOn) {
				color[top.cs.ID] = black
				order = append(order, top.cs)
				stack = stack[:len(stack)-1]
				continue
			}

			depID := top.cs.DependsOn[top.next]
			top.next++

			switch color[depID] {
			case black:
				continue
			case gray:
				return nil, cycleError(stack, depID)
			}

			dep, ok := cat.LookupKind(codestart.KindExtension, depID)
			if !ok {
				return nil, errors.Build(errors.CodeCatalogError).
					WithOp("resolver.Resolve").
					WithMsgf("extension %s depends on unknown extension %s", top.cs.ID, depID).
					WithDetail("codestart", top.cs.ID).
					Err()
			}
			color[depID] = gray
			stack = append(stack, frame{cs: dep})
		}
	}
	return order, nil
}

// cycleError reports the path from the first occurrence of closing on the
// stack back to closing, e.g. "a -> b -> a".
func cycleError(stack []frame, closing string) error {
	var path []string
	for i, f := range stack {
		if f.cs.ID == closing {
			for _, g := range stack[i:] {
				path = append(path, g.cs.ID)
			}
			break
		}
	}
	path = append(path, closing)

	return errors.Build(errors.CodeDependencyCycle).
		WithOp("resolver.Resolve").
		WithMsgf("dependency cycle: %s", strings.Join(path, " -> ")).
		WithDetail("cycle", strings.Join(path, ",")).
		Err()
}
