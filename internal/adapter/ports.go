// Package adapter contains the infrastructure implementations behind the
// patchtree core: the Go language backend (tree provider, content parser,
// structural editor) and the source stores the editor writes through.
package adapter

import (
	"context"

	m "github.com/patchtree/patchtree/internal/model"
)

// TreeProvider supplies the syntax tree the resolver walks. Implementations
// parse the store's current bytes on every call so the tree always reflects
// the latest applied modification.
type TreeProvider interface {
	// Root returns the file node for the given relative file path, or a
	// file-not-found error when the store has no such file.
	Root(ctx context.Context, file string) (m.Node, error)

	// Snapshot projects a resolved node into an immutable CodeElement.
	Snapshot(node m.Node, path m.Path) m.CodeElement
}

// ContentParser turns a modification's raw content into a typed node for
// validation and splicing.
type ContentParser interface {
	// ParseAsKind parses text as a declaration of the given kind. The
	// returned node is detached: its span refers to the fragment, not to
	// any file.
	ParseAsKind(text string, kind m.ElementKind) (m.Node, error)

	// ParseDecl parses text as a single declaration of whatever kind it
	// naturally is. Callers compare the resulting kind against the target
	// they mean to replace.
	ParseDecl(text string) (m.Node, error)
}

// StructuralEditor performs the physical text splicing once the engine has
// decided what to do. Implementations own whitespace and indentation
// normalization so the tree stays well-formed.
type StructuralEditor interface {
	// InsertChild splices element under container at the requested
	// position. anchor is the sibling node for PositionBefore and
	// PositionAfter and nil otherwise.
	InsertChild(ctx context.Context, container m.Node, position m.Position, anchor m.Node, element m.Node) error

	// ReplaceSpan replaces node's full text span with newText.
	ReplaceSpan(ctx context.Context, node m.Node, newText string) error

	// DeleteNode removes node together with the separator whitespace it
	// solely owns.
	DeleteNode(ctx context.Context, node m.Node) error

	// AddImport inserts an import into the file's import list following
	// the editor's conventions. Adding a present import is a no-op.
	AddImport(ctx context.Context, file, importPath string) error

	// RemoveImport removes an import from the file's import list.
	// Removing an absent import is a no-op.
	RemoveImport(ctx context.Context, file, importPath string) error
}

// SourceStore abstracts the persistence behind file-level operations so the
// engine can run against the real filesystem, an in-memory overlay for dry
// runs, or plain fixtures in tests.
type SourceStore interface {
	// Exists reports whether the file is present.
	Exists(file string) bool

	// Read returns the file's current content.
	Read(file string) ([]byte, error)

	// Create writes a new file. The caller checks existence first; Create
	// on an existing file is an error.
	Create(file string, content []byte) error

	// Replace overwrites an existing file's content.
	Replace(file string, content []byte) error

	// Delete removes the file.
	Delete(file string) error
}
