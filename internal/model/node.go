package model

// Span is a half-open byte range [Start, End) into a file's current content.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Node is the minimal capability contract the resolver needs from an
// externally supplied syntax tree. The core treats nodes as read-only;
// only the structural editor mutates the underlying text.
//
// Node references become stale the moment a prior modification in the same
// batch touches their file, so callers must re-resolve against current tree
// state instead of caching handles across operations.
type Node interface {
	// Kind is the element kind this node maps to.
	Kind() ElementKind
	// Name is the declared name; bare constructs carry their keyword.
	Name() string
	// Children returns the node's children in declaration order.
	Children() []Node
	// Span is the node's byte range in the file's current content.
	Span() Span
	// Text is the node's source text.
	Text() string
}
