package domain

import (
	"context"
	"fmt"

	"github.com/patchtree/patchtree/internal/adapter"
	m "github.com/patchtree/patchtree/internal/model"
)

// Engine applies modification batches. One Apply call assumes exclusive
// access to the trees it touches; batches for the same file must be
// serialized by the caller.
type Engine interface {
	// Apply attempts every modification in order and returns one result
	// per input, in input order. There is no short-circuiting and no
	// rollback across operations: each operation is all-or-nothing, the
	// batch as a whole is best-effort. Callers wanting atomicity snapshot
	// the store beforehand (see adapter.NewOverlayStore).
	Apply(ctx context.Context, mods []m.Modification) []m.ModificationResult
}

type engine struct {
	trees    adapter.TreeProvider
	parser   adapter.ContentParser
	editor   adapter.StructuralEditor
	store    adapter.SourceStore
	resolver Resolver
}

// NewEngine wires a mutation engine from the language backend's parts.
func NewEngine(trees adapter.TreeProvider, parser adapter.ContentParser, editor adapter.StructuralEditor, store adapter.SourceStore) Engine {
	return &engine{
		trees:    trees,
		parser:   parser,
		editor:   editor,
		store:    store,
		resolver: NewResolver(trees),
	}
}

func (e *engine) Apply(ctx context.Context, mods []m.Modification) []m.ModificationResult {
	results := make([]m.ModificationResult, 0, len(mods))

	for _, mod := range mods {
		results = append(results, e.applyOne(ctx, mod.Normalized()))
	}

	return results
}

// applyOne attempts a single modification. Any fault escaping a handler is
// converted into a failure result for this item only; nothing aborts the
// remaining batch.
func (e *engine) applyOne(ctx context.Context, mod m.Modification) (result m.ModificationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = m.Failure(mod, m.WrapIO(mod.Path, fmt.Errorf("unexpected fault: %v", r)))
		}
	}()

	switch mod.Type {
	case m.ModCreateFile:
		return e.createFile(mod)
	case m.ModReplaceFile:
		return e.replaceFile(mod)
	case m.ModDeleteFile:
		return e.deleteFile(mod)
	case m.ModCreateElement:
		return e.createElement(ctx, mod)
	case m.ModReplaceElement:
		return e.replaceElement(ctx, mod)
	case m.ModDeleteElement:
		return e.deleteElement(ctx, mod)
	case m.ModAddImport:
		return e.addImport(ctx, mod)
	case m.ModRemoveImport:
		return e.removeImport(ctx, mod)
	default:
		return m.Failure(mod, m.NewInvalidOperation(mod.Path, fmt.Sprintf("unknown modification type %q", mod.Type)))
	}
}

// typed keeps collaborator errors from the taxonomy as-is and wraps
// anything unexpected as an IO error with its message preserved.
func typed(path string, err error) error {
	if typedErr, ok := err.(*m.Error); ok {
		return typedErr
	}

	return m.WrapIO(path, err)
}

func (e *engine) filePath(mod m.Modification) (m.Path, error) {
	path, err := m.ParsePath(mod.Path)
	if err != nil {
		return m.Path{}, err
	}

	if !path.IsFile() {
		return m.Path{}, m.NewInvalidOperation(mod.Path, fmt.Sprintf("%s requires a file path", mod.Type))
	}

	return path, nil
}

func (e *engine) createFile(mod m.Modification) m.ModificationResult {
	path, err := e.filePath(mod)
	if err != nil {
		return m.Failure(mod, err)
	}

	if e.store.Exists(path.File) {
		return m.Failure(mod, m.NewInvalidOperation(mod.Path, "file already exists"))
	}

	if err := e.store.Create(path.File, []byte(mod.Content)); err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	return m.Success(mod, path.String(), mod.Content)
}

func (e *engine) replaceFile(mod m.Modification) m.ModificationResult {
	path, err := e.filePath(mod)
	if err != nil {
		return m.Failure(mod, err)
	}

	if !e.store.Exists(path.File) {
		return m.Failure(mod, m.NewFileNotFound(mod.Path))
	}

	if err := e.store.Replace(path.File, []byte(mod.Content)); err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	return m.Success(mod, path.String(), mod.Content)
}

func (e *engine) deleteFile(mod m.Modification) m.ModificationResult {
	path, err := e.filePath(mod)
	if err != nil {
		return m.Failure(mod, err)
	}

	if !e.store.Exists(path.File) {
		return m.Failure(mod, m.NewFileNotFound(mod.Path))
	}

	if err := e.store.Delete(path.File); err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	return m.Success(mod, path.String(), "")
}

// createElement resolves the target path as the container for
// first_child/last_child and as the sibling anchor for before/after, then
// splices the parsed content at the requested position.
func (e *engine) createElement(ctx context.Context, mod m.Modification) m.ModificationResult {
	path, err := m.ParsePath(mod.Path)
	if err != nil {
		return m.Failure(mod, err)
	}

	element, err := e.parser.ParseAsKind(mod.Content, mod.ElementKind)
	if err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	var (
		container     m.Node
		anchor        m.Node
		containerPath m.Path
	)

	switch mod.Position {
	case m.PositionBefore, m.PositionAfter:
		if path.IsFile() {
			return m.Failure(mod, m.NewInvalidOperation(mod.Path, fmt.Sprintf("position %s requires a sibling element path", mod.Position)))
		}

		sibling, parent, err := e.resolver.Resolve(ctx, path)
		if err != nil {
			return m.Failure(mod, typed(mod.Path, err))
		}

		container = parent
		anchor = sibling
		containerPath, _ = path.Parent()

	case m.PositionFirstChild, m.PositionLastChild:
		node, _, err := e.resolver.Resolve(ctx, path)
		if err != nil {
			return m.Failure(mod, typed(mod.Path, err))
		}

		container = node
		containerPath = path

	default:
		return m.Failure(mod, m.NewInvalidOperation(mod.Path, fmt.Sprintf("unknown position %q", mod.Position)))
	}

	if err := e.editor.InsertChild(ctx, container, mod.Position, anchor, element); err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	newPath := containerPath.Child(element.Kind(), element.Name())

	return m.Success(mod, newPath.String(), element.Text())
}

func (e *engine) replaceElement(ctx context.Context, mod m.Modification) m.ModificationResult {
	path, err := m.ParsePath(mod.Path)
	if err != nil {
		return m.Failure(mod, err)
	}

	if path.IsFile() {
		return m.Failure(mod, m.NewInvalidOperation(mod.Path, "replace_element requires an element path; use replace_file for files"))
	}

	node, _, err := e.resolver.Resolve(ctx, path)
	if err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	parsed, err := e.parser.ParseDecl(mod.Content)
	if err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	// A silent kind change is an error, not a feature.
	if parsed.Kind() != node.Kind() {
		return m.Failure(mod, m.NewInvalidOperation(mod.Path,
			fmt.Sprintf("content parses as %s but target is %s", parsed.Kind(), node.Kind())))
	}

	if err := e.editor.ReplaceSpan(ctx, node, mod.Content); err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	parentPath, _ := path.Parent()
	newPath := parentPath.Child(parsed.Kind(), parsed.Name())

	return m.Success(mod, newPath.String(), parsed.Text())
}

func (e *engine) deleteElement(ctx context.Context, mod m.Modification) m.ModificationResult {
	path, err := m.ParsePath(mod.Path)
	if err != nil {
		return m.Failure(mod, err)
	}

	if path.IsFile() {
		return m.Failure(mod, m.NewInvalidOperation(mod.Path, "delete_element requires an element path; use delete_file for files"))
	}

	node, _, err := e.resolver.Resolve(ctx, path)
	if err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	if err := e.editor.DeleteNode(ctx, node); err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	return m.Success(mod, path.String(), "")
}

func (e *engine) addImport(ctx context.Context, mod m.Modification) m.ModificationResult {
	path, importPath, result, ok := e.importTarget(mod)
	if !ok {
		return result
	}

	if err := e.editor.AddImport(ctx, path.File, importPath); err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	return m.Success(mod, path.String(), importPath)
}

func (e *engine) removeImport(ctx context.Context, mod m.Modification) m.ModificationResult {
	path, importPath, result, ok := e.importTarget(mod)
	if !ok {
		return result
	}

	if err := e.editor.RemoveImport(ctx, path.File, importPath); err != nil {
		return m.Failure(mod, typed(mod.Path, err))
	}

	return m.Success(mod, path.String(), importPath)
}

// importTarget validates the shared preconditions of the import operations.
func (e *engine) importTarget(mod m.Modification) (m.Path, string, m.ModificationResult, bool) {
	path, err := e.filePath(mod)
	if err != nil {
		return m.Path{}, "", m.Failure(mod, err), false
	}

	if mod.ImportPath == "" {
		return m.Path{}, "", m.Failure(mod, m.NewInvalidOperation(mod.Path, "importPath is required")), false
	}

	if !e.store.Exists(path.File) {
		return m.Path{}, "", m.Failure(mod, m.NewFileNotFound(mod.Path)), false
	}

	return path, mod.ImportPath, m.ModificationResult{}, true
}
