// Package model defines the value types shared by the patchtree core:
// canonical element paths, modifications and their results, the tree
// abstraction consumed by the resolver, and the error taxonomy.
package model

import (
	"fmt"
	"strings"
)

// PathPrefix introduces every canonical path string.
const PathPrefix = "file:"

// Segment is one (kind, name) hop in an element path. Bare segments such as
// `init` carry their kind as the name.
type Segment struct {
	Kind ElementKind
	Name string
}

// Bare reports whether the segment serializes as a single keyword.
func (s Segment) Bare() bool {
	return s.Name == string(s.Kind)
}

// String renders the segment in its canonical form: `kind[name]`, or the
// bare keyword for keyword segments.
func (s Segment) String() string {
	if s.Bare() {
		return string(s.Kind)
	}

	return fmt.Sprintf("%s[%s]", s.Kind, s.Name)
}

// Path addresses a node inside a project's source trees. A Path with no
// segments addresses the file itself. Paths are immutable values; Child and
// Parent return fresh copies.
type Path struct {
	File     string
	Segments []Segment
}

// ParsePath parses a canonical path string such as
// `file:src/user.go/class[User]/function[Validate]`.
//
// Parsing is total after the `file:` prefix: the file path is the longest
// leading run of components that do not look like segments, and any later
// component that is neither bracketed nor a known keyword is preserved as an
// unknown bare segment so that newer keywords do not break older callers.
func ParsePath(text string) (Path, error) {
	rest, ok := strings.CutPrefix(text, PathPrefix)
	if !ok {
		return Path{}, NewParseError(text, fmt.Sprintf("path must start with %q", PathPrefix))
	}

	if rest == "" {
		return Path{}, NewParseError(text, "empty file path")
	}

	components := strings.Split(rest, "/")

	boundary := len(components)

	for i, component := range components {
		if i == 0 {
			// The first component always belongs to the file path.
			continue
		}

		if segmentShaped(component) {
			boundary = i
			break
		}
	}

	path := Path{File: strings.Join(components[:boundary], "/")}

	for _, component := range components[boundary:] {
		path.Segments = append(path.Segments, parseSegment(component))
	}

	return path, nil
}

// segmentShaped reports whether a path component starts the segment zone:
// either a well-formed `word[name]` or one of the bare keywords.
func segmentShaped(component string) bool {
	if _, _, ok := splitBracketed(component); ok {
		return true
	}

	return ElementKind(component).BareKeyword()
}

// splitBracketed splits `word[name]` into its parts. The name may not
// contain `]` and the word must be non-empty.
func splitBracketed(component string) (kind, name string, ok bool) {
	open := strings.Index(component, "[")
	if open <= 0 || !strings.HasSuffix(component, "]") {
		return "", "", false
	}

	inner := component[open+1 : len(component)-1]
	if strings.Contains(inner, "]") {
		return "", "", false
	}

	return component[:open], inner, true
}

// parseSegment never fails: malformed components become unknown bare
// segments with kind == name == the literal text.
func parseSegment(component string) Segment {
	if kind, name, ok := splitBracketed(component); ok {
		return Segment{Kind: ElementKind(kind), Name: name}
	}

	return Segment{Kind: ElementKind(component), Name: component}
}

// String renders the canonical serialization. ParsePath(p.String()) == p for
// every path whose file part contains no segment-shaped components.
func (p Path) String() string {
	var b strings.Builder

	b.WriteString(PathPrefix)
	b.WriteString(p.File)

	for _, segment := range p.Segments {
		b.WriteString("/")
		b.WriteString(segment.String())
	}

	return b.String()
}

// Child returns the path one hop below p.
func (p Path) Child(kind ElementKind, name string) Path {
	segments := make([]Segment, 0, len(p.Segments)+1)
	segments = append(segments, p.Segments...)
	segments = append(segments, Segment{Kind: kind, Name: name})

	return Path{File: p.File, Segments: segments}
}

// Parent returns the path one hop above p. The second return value is false
// when p addresses the file itself.
func (p Path) Parent() (Path, bool) {
	if p.IsFile() {
		return Path{}, false
	}

	segments := make([]Segment, len(p.Segments)-1)
	copy(segments, p.Segments[:len(p.Segments)-1])

	return Path{File: p.File, Segments: segments}, true
}

// IsFile reports whether the path addresses a file rather than an element.
func (p Path) IsFile() bool {
	return len(p.Segments) == 0
}

// IsElement reports whether the path addresses an element within a file.
func (p Path) IsElement() bool {
	return !p.IsFile()
}

// Last returns the terminal segment. It must not be called on a file path.
func (p Path) Last() Segment {
	return p.Segments[len(p.Segments)-1]
}

// Equal compares two paths component-wise.
func (p Path) Equal(other Path) bool {
	if p.File != other.File || len(p.Segments) != len(other.Segments) {
		return false
	}

	for i := range p.Segments {
		if p.Segments[i] != other.Segments[i] {
			return false
		}
	}

	return true
}
