// Package merge combines file contributions into the final project file set.
//
// Overview:
//   - Responsibility: Group contributions by path and apply the overwrite, append or
//     structured-merge strategy of each group
//   - Key Types: Merger, and insertion points parsed from marker lines of base descriptors
//   - Concurrency Model: A Merger holds no per-call state and is safe for concurrent use
//   - Error Semantics: FILE_CONFLICT for clashing contributors, UNKNOWN_INSERTION_POINT for
//     fragments without a matching marker
//   - Performance Notes: Linear in total contribution size
//
// Usage:
//
//	files, err := merge.Merge(contributions)
//	if err != nil {
//	    return err
//	}
//	pom := files["pom.xml"]
package merge

import (
	"regexp"
	"strings"

	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/log"
)

// Merger applies merge strategies and reports what it did through its logger.
type Merger struct {
	logger log.Logger
}

// New creates a Merger. A nil logger discards output.
func New(logger log.Logger) *Merger {
	if logger == nil {
		logger = log.Nop()
	}
	return &Merger{logger: logger}
}

// Merge is shorthand for New(nil).Merge.
func Merge(contributions []codestart.FileContribution) (map[string]string, error) {
	return New(nil).Merge(contributions)
}

// Merge groups contributions by path and produces the final content of each path.
//
// Parameters:
//   - contributions: Rendered contributions in resolution order
//
// Returns:
//   - map[string]string: Final content keyed by project-relative path
//   - error: FILE_CONFLICT or UNKNOWN_INSERTION_POINT naming path and codestarts
//
// Concurrency:
//   - Safe for concurrent use; the input is not modified
//
// Performance:
//   - O(total content size)
func (m *Merger) Merge(contributions []codestart.FileContribution) (map[string]string, error) {
	var order []string
	groups := make(map[string][]codestart.FileContribution)
	for _, c := range contributions {
		if _, seen := groups[c.Path]; !seen {
			order = append(order, c.Path)
		}
		groups[c.Path] = append(groups[c.Path], c)
	}

	files := make(map[string]string, len(order))
	for _, path := range order {
		group := groups[path]
		strategy, err := groupStrategy(path, group)
		if err != nil {
			return nil, err
		}

		var content string
		switch strategy {
		case codestart.StrategyOverwrite:
			content, err = mergeOverwrite(path, group)
		case codestart.StrategyAppend:
			content = mergeAppend(group)
		case codestart.StrategyStructuredMerge:
			content, err = m.mergeStructured(path, group)
		default:
			err = errors.Build(errors.CodeFileConflict).
				WithOp("merge.Merge").
				WithMsgf("unsupported merge strategy %q", strategy).
				WithDetail("path", path).
				WithDetail("strategy", string(strategy)).
				Err()
		}
		if err != nil {
			return nil, err
		}

		m.logger.Debug("file merged",
			log.Str("path", path),
			log.Str("strategy", string(strategy)),
			log.Int("contributions", len(group)))
		files[path] = content
	}
	return files, nil
}

// groupStrategy returns the single strategy shared by every contributor of path.
func groupStrategy(path string, group []codestart.FileContribution) (codestart.Strategy, error) {
	first := group[0]
	for _, c := range group[1:] {
		if c.Strategy != first.Strategy {
			return "", errors.Build(errors.CodeFileConflict).
				WithOp("merge.Merge").
				WithMsgf("%s contributes %s with strategy %s but %s uses %s",
					c.SourceCodestartID, path, c.Strategy, first.SourceCodestartID, first.Strategy).
				WithDetail("path", path).
				WithDetail("codestart", first.SourceCodestartID).
				WithDetail("codestart", c.SourceCodestartID).
				WithDetail("strategy", string(first.Strategy)).
				WithDetail("strategy", string(c.Strategy)).
				Err()
		}
	}
	return first.Strategy, nil
}

func mergeOverwrite(path string, group []codestart.FileContribution) (string, error) {
	if len(group) > 1 {
		return "", errors.Build(errors.CodeFileConflict).
			WithOp("merge.Merge").
			WithMsgf("%s is written by both %s and %s", path, group[0].SourceCodestartID, group[1].SourceCodestartID).
			WithDetail("path", path).
			WithDetail("codestart", group[0].SourceCodestartID).
			WithDetail("codestart", group[1].SourceCodestartID).
			WithDetail("strategy", string(codestart.StrategyOverwrite)).
			Err()
	}
	return group[0].Content, nil
}

// mergeAppend concatenates contributions in order, separated by one blank line.
func mergeAppend(group []codestart.FileContribution) string {
	parts := make([]string, 0, len(group))
	for _, c := range group {
		part := strings.TrimRight(c.Content, "\n")
		if part == "" {
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

var markerPattern = regexp.MustCompile(
	`^([ \t]*)(?:<!--\s*@codestart:insert\s+([\w.-]+)\s*-->|//\s*@codestart:insert\s+([\w.-]+)|#\s*@codestart:insert\s+([\w.-]+))[ \t]*$`)

// parseMarker reports whether line is an insertion marker and returns its indentation and point name.
func parseMarker(line string) (indent, point string, ok bool) {
	match := markerPattern.FindStringSubmatch(line)
	if match == nil {
		return "", "", false
	}
	for _, name := range match[2:] {
		if name != "" {
			return match[1], name, true
		}
	}
	return "", "", false
}

// InsertionPoints returns the insertion point names declared by a base descriptor, in document order.
func InsertionPoints(content string) []string {
	var points []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		if _, point, ok := parseMarker(line); ok && !seen[point] {
			seen[point] = true
			points = append(points, point)
		}
	}
	return points
}

type entry struct {
	key     string
	content string
	source  string
}

func (m *Merger) mergeStructured(path string, group []codestart.FileContribution) (string, error) {
	var base *codestart.FileContribution
	for i := range group {
		c := &group[i]
		if !c.IsBaseDescriptor() {
			continue
		}
		if base != nil {
			return "", errors.Build(errors.CodeFileConflict).
				WithOp("merge.Merge").
				WithMsgf("%s is provided as a base descriptor by both %s and %s", path, base.SourceCodestartID, c.SourceCodestartID).
				WithDetail("path", path).
				WithDetail("codestart", base.SourceCodestartID).
				WithDetail("codestart", c.SourceCodestartID).
				WithDetail("strategy", string(codestart.StrategyStructuredMerge)).
				Err()
		}
		base = c
	}

	points := make(map[string][]entry)
	if base != nil {
		for _, p := range InsertionPoints(base.Content) {
			points[p] = nil
		}
	}

	for _, c := range group {
		for _, frag := range c.Fragments {
			entries, known := points[frag.Point]
			if !known {
				b := errors.Build(errors.CodeUnknownInsertionPoint).
					WithOp("merge.Merge").
					WithDetail("path", path).
					WithDetail("point", frag.Point).
					WithDetail("codestart", c.SourceCodestartID)
				if base == nil {
					b.WithMsgf("%s targets %s but no codestart provides its base descriptor", c.SourceCodestartID, path)
				} else {
					b.WithMsgf("%s targets insertion point %q which %s does not declare in %s",
						c.SourceCodestartID, frag.Point, base.SourceCodestartID, path)
				}
				return "", b.Err()
			}

			next, err := insert(path, frag, c.SourceCodestartID, entries)
			if err != nil {
				return "", err
			}
			if len(next) == len(entries) {
				m.logger.Debug("duplicate fragment skipped",
					log.Str("path", path),
					log.Str("point", frag.Point),
					log.Str("codestart", c.SourceCodestartID))
			}
			points[frag.Point] = next
		}
	}

	return render(base.Content, points), nil
}

// insert appends frag to entries unless an identical fragment is already present.
// A different fragment under an existing key is a conflict, whatever else the point holds.
func insert(path string, frag codestart.Fragment, source string, entries []entry) ([]entry, error) {
	for _, e := range entries {
		if e.key != frag.Key || e.content == frag.Content {
			continue
		}
		return nil, errors.Build(errors.CodeFileConflict).
			WithOp("merge.Merge").
			WithMsgf("%s and %s contribute different content for %q at insertion point %q of %s",
				e.source, source, frag.Key, frag.Point, path).
			WithDetail("path", path).
			WithDetail("point", frag.Point).
			WithDetail("key", frag.Key).
			WithDetail("codestart", e.source).
			WithDetail("codestart", source).
			WithDetail("strategy", string(codestart.StrategyStructuredMerge)).
			Err()
	}
	for _, e := range entries {
		if e.content == frag.Content {
			return entries, nil
		}
	}
	return append(entries, entry{key: frag.Key, content: frag.Content, source: source}), nil
}

// render replaces each marker line with its entries indented like the marker.
// Markers without entries disappear; a point declared twice is filled at its first marker only.
func render(base string, points map[string][]entry) string {
	lines := strings.Split(base, "\n")
	out := make([]string, 0, len(lines))
	filled := make(map[string]bool, len(points))

	for _, line := range lines {
		indent, point, ok := parseMarker(line)
		if !ok {
			out = append(out, line)
			continue
		}
		if filled[point] {
			continue
		}
		filled[point] = true

		for _, e := range points[point] {
			for _, fragLine := range strings.Split(strings.TrimRight(e.content, "\n"), "\n") {
				if strings.TrimSpace(fragLine) == "" {
					out = append(out, "")
					continue
				}
				out = append(out, indent+fragLine)
			}
		}
	}
	return strings.Join(out, "\n")
}
