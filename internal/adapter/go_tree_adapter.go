package adapter

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"sort"
	"strings"

	m "github.com/patchtree/patchtree/internal/model"
)

// GoTreeAdapter is the Go language backend for the tree provider and
// content parser contracts. It parses the store's current bytes with
// go/parser and projects the declarations onto the language-neutral
// element vocabulary:
//
//   - struct type           -> class
//   - interface type        -> interface
//   - top-level func        -> function
//   - func init()           -> bare init
//   - method                -> function child of its receiver's class
//   - struct field          -> property child of the class
//   - package var           -> property
//   - package const         -> constant
type GoTreeAdapter struct {
	store SourceStore
}

// NewGoTreeAdapter constructs a GoTreeAdapter reading through the store.
func NewGoTreeAdapter(store SourceStore) *GoTreeAdapter {
	return &GoTreeAdapter{store: store}
}

// goNode is the concrete node produced by the Go backend. It carries the
// spans and metadata the structural editor and the snapshot mapper need.
type goNode struct {
	file string
	src  []byte

	kind m.ElementKind
	name string
	span m.Span
	// bodySpan is the insertion range between the braces of a struct or
	// interface body; zero for nodes without one.
	bodySpan m.Span

	children []m.Node

	// memberOf is the container kind for nodes that live inside a body
	// (struct fields, interface signatures); empty for everything else.
	memberOf m.ElementKind
	// fieldForm marks a detached property fragment written in the bare
	// `Name Type` field form rather than as a var declaration.
	fieldForm bool

	modifiers  []string
	supertypes []string
	params     []m.Parameter
	returnType string
	startLine  int
	endLine    int
}

func (n *goNode) Kind() m.ElementKind { return n.kind }
func (n *goNode) Name() string        { return n.name }
func (n *goNode) Children() []m.Node  { return n.children }
func (n *goNode) Span() m.Span        { return n.span }

func (n *goNode) Text() string {
	return string(n.src[n.span.Start:n.span.End])
}

// Root parses the file's current content and builds its element tree.
func (a *GoTreeAdapter) Root(ctx context.Context, file string) (m.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !a.store.Exists(file) {
		return nil, m.NewFileNotFound(file)
	}

	src, err := a.store.Read(file)
	if err != nil {
		return nil, m.WrapIO(file, err)
	}

	fset := token.NewFileSet()

	parsed, err := parser.ParseFile(fset, file, src, parser.ParseComments)
	if err != nil {
		return nil, m.NewParseError(file, err.Error())
	}

	builder := &treeBuilder{fset: fset, src: src, file: file}

	return builder.fileNode(parsed), nil
}

// treeBuilder walks one parsed file and assembles goNodes.
type treeBuilder struct {
	fset *token.FileSet
	src  []byte
	file string
}

func (b *treeBuilder) offset(pos token.Pos) int {
	return b.fset.Position(pos).Offset
}

func (b *treeBuilder) line(pos token.Pos) int {
	return b.fset.Position(pos).Line
}

func (b *treeBuilder) exprText(expr ast.Expr) string {
	return string(b.src[b.offset(expr.Pos()):b.offset(expr.End())])
}

// declSpan covers a declaration including its doc comment, so deleting the
// declaration removes the comment it owns.
func (b *treeBuilder) declSpan(doc *ast.CommentGroup, start, end token.Pos) m.Span {
	if doc != nil {
		start = doc.Pos()
	}

	return m.Span{Start: b.offset(start), End: b.offset(end)}
}

func (b *treeBuilder) node(kind m.ElementKind, name string, span m.Span) *goNode {
	return &goNode{
		file: b.file,
		src:  b.src,
		kind: kind,
		name: name,
		span: span,
	}
}

func (b *treeBuilder) fileNode(parsed *ast.File) *goNode {
	root := b.node(m.KindFile, filepath.Base(b.file), m.Span{Start: 0, End: len(b.src)})
	root.startLine = 1
	root.endLine = b.line(parsed.End())

	classes := map[string]*goNode{}

	for _, decl := range parsed.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			b.addGenDecl(root, classes, d)
		case *ast.FuncDecl:
			b.addFuncDecl(root, classes, d)
		}
	}

	sortBySpan(root.children)

	for _, class := range classes {
		sortBySpan(class.children)
	}

	return root
}

func sortBySpan(nodes []m.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Span().Start < nodes[j].Span().Start
	})
}

func (b *treeBuilder) addGenDecl(root *goNode, classes map[string]*goNode, d *ast.GenDecl) {
	switch d.Tok {
	case token.TYPE:
		for _, spec := range d.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}

			node := b.typeNode(d, ts, len(d.Specs) == 1)
			classes[ts.Name.Name] = node
			root.children = append(root.children, node)
		}

	case token.CONST, token.VAR:
		kind := m.KindConstant
		if d.Tok == token.VAR {
			kind = m.KindProperty
		}

		for _, spec := range d.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}

			span := b.declSpan(vs.Doc, vs.Pos(), vs.End())
			if len(d.Specs) == 1 && d.Lparen == token.NoPos {
				span = b.declSpan(d.Doc, d.Pos(), d.End())
			}

			for _, name := range vs.Names {
				node := b.node(kind, name.Name, span)
				node.modifiers = visibilityModifiers(name.Name)
				node.startLine = b.line(vs.Pos())
				node.endLine = b.line(vs.End())

				if vs.Type != nil {
					node.returnType = b.exprText(vs.Type)
				}

				root.children = append(root.children, node)
			}
		}
	}
}

func (b *treeBuilder) typeNode(d *ast.GenDecl, ts *ast.TypeSpec, sole bool) *goNode {
	kind := m.KindClass
	if _, ok := ts.Type.(*ast.InterfaceType); ok {
		kind = m.KindInterface
	}

	span := b.declSpan(ts.Doc, ts.Pos(), ts.End())
	if sole {
		span = b.declSpan(d.Doc, d.Pos(), d.End())
	}

	node := b.node(kind, ts.Name.Name, span)
	node.modifiers = visibilityModifiers(ts.Name.Name)
	node.startLine = b.line(d.Pos())
	node.endLine = b.line(ts.End())

	switch t := ts.Type.(type) {
	case *ast.StructType:
		node.bodySpan = m.Span{Start: b.offset(t.Fields.Opening) + 1, End: b.offset(t.Fields.Closing)}
		b.addStructFields(node, t)
	case *ast.InterfaceType:
		node.bodySpan = m.Span{Start: b.offset(t.Methods.Opening) + 1, End: b.offset(t.Methods.Closing)}
		b.addInterfaceMembers(node, t)
	}

	return node
}

func (b *treeBuilder) addStructFields(class *goNode, st *ast.StructType) {
	for _, field := range st.Fields.List {
		span := b.declSpan(field.Doc, field.Pos(), field.End())

		if len(field.Names) == 0 {
			// Embedded field: record as a supertype, not a child.
			class.supertypes = append(class.supertypes, b.exprText(field.Type))
			continue
		}

		for _, name := range field.Names {
			node := b.node(m.KindProperty, name.Name, span)
			node.memberOf = m.KindClass
			node.modifiers = visibilityModifiers(name.Name)
			node.returnType = b.exprText(field.Type)
			node.startLine = b.line(field.Pos())
			node.endLine = b.line(field.End())
			class.children = append(class.children, node)
		}
	}
}

func (b *treeBuilder) addInterfaceMembers(iface *goNode, it *ast.InterfaceType) {
	for _, method := range it.Methods.List {
		if len(method.Names) == 0 {
			iface.supertypes = append(iface.supertypes, b.exprText(method.Type))
			continue
		}

		ft, ok := method.Type.(*ast.FuncType)
		if !ok {
			continue
		}

		span := b.declSpan(method.Doc, method.Pos(), method.End())

		for _, name := range method.Names {
			node := b.node(m.KindFunction, name.Name, span)
			node.memberOf = m.KindInterface
			node.modifiers = visibilityModifiers(name.Name)
			node.params = b.parameters(ft)
			node.returnType = b.results(ft)
			node.startLine = b.line(method.Pos())
			node.endLine = b.line(method.End())
			iface.children = append(iface.children, node)
		}
	}
}

func (b *treeBuilder) addFuncDecl(root *goNode, classes map[string]*goNode, d *ast.FuncDecl) {
	span := b.declSpan(d.Doc, d.Pos(), d.End())

	kind := m.KindFunction
	name := d.Name.Name

	if d.Recv == nil && name == "init" {
		// Anonymous initializer: addressed by the bare init keyword.
		// Multiple init funcs resolve first-declared-wins.
		kind = m.KindInit
	}

	node := b.node(kind, name, span)
	node.modifiers = visibilityModifiers(name)
	node.params = b.parameters(d.Type)
	node.returnType = b.results(d.Type)
	node.startLine = b.line(d.Pos())
	node.endLine = b.line(d.End())

	if d.Recv != nil && len(d.Recv.List) == 1 {
		if class, ok := classes[receiverTypeName(d.Recv.List[0].Type)]; ok {
			class.children = append(class.children, node)
			return
		}
	}

	root.children = append(root.children, node)
}

func (b *treeBuilder) parameters(ft *ast.FuncType) []m.Parameter {
	if ft.Params == nil {
		return nil
	}

	var params []m.Parameter

	for _, field := range ft.Params.List {
		typeText := b.exprText(field.Type)

		if len(field.Names) == 0 {
			params = append(params, m.Parameter{Type: typeText})
			continue
		}

		for _, name := range field.Names {
			params = append(params, m.Parameter{Name: name.Name, Type: typeText})
		}
	}

	return params
}

func (b *treeBuilder) results(ft *ast.FuncType) string {
	if ft.Results == nil || len(ft.Results.List) == 0 {
		return ""
	}

	parts := make([]string, 0, len(ft.Results.List))
	for _, field := range ft.Results.List {
		parts = append(parts, b.exprText(field.Type))
	}

	if len(parts) == 1 && len(ft.Results.List[0].Names) == 0 {
		return parts[0]
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// receiverTypeName strips pointers and type parameters off a receiver type.
func receiverTypeName(expr ast.Expr) string {
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}

func visibilityModifiers(name string) []string {
	if ast.IsExported(name) {
		return []string{"exported"}
	}

	return []string{"unexported"}
}

// Snapshot projects a resolved node into a CodeElement for display.
func (a *GoTreeAdapter) Snapshot(node m.Node, path m.Path) m.CodeElement {
	element := m.CodeElement{
		Path: path,
		Kind: node.Kind(),
		Name: node.Name(),
		Text: node.Text(),
	}

	if gn, ok := node.(*goNode); ok {
		element.Modifiers = gn.modifiers
		element.Supertypes = gn.supertypes
		element.Parameters = gn.params
		element.ReturnType = gn.returnType
		element.StartLine = gn.startLine
		element.EndLine = gn.endLine
	}

	return element
}

// ParseDecl parses text as a single Go declaration and returns it with its
// natural element kind. Struct-field fragments (`Name Type`) parse as
// properties so member content round-trips.
func (a *GoTreeAdapter) ParseDecl(text string) (m.Node, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, m.NewParseError("", "empty content")
	}

	if node, err := parseTopLevelFragment(trimmed); err == nil {
		return node, nil
	}

	if node, err := parseFieldFragment(trimmed); err == nil {
		return node, nil
	}

	return nil, m.NewParseError("", "content is not a Go declaration")
}

// ParseAsKind parses text as a declaration of the requested kind.
func (a *GoTreeAdapter) ParseAsKind(text string, kind m.ElementKind) (m.Node, error) {
	if !kind.Known() || kind == m.KindFile {
		return nil, m.NewParseError("", fmt.Sprintf("unknown element kind %q", kind))
	}

	switch kind {
	case m.KindObject, m.KindCompanion, m.KindConstructor:
		return nil, m.NewParseError("", fmt.Sprintf("element kind %q is not supported by the Go backend", kind))
	}

	node, err := a.ParseDecl(text)
	if err != nil {
		return nil, err
	}

	if node.Kind() == kind {
		return node, nil
	}

	// `func init()` content declared as a function is still an init block.
	if kind == m.KindFunction && node.Kind() == m.KindInit {
		return node, nil
	}

	return nil, m.NewParseError("", fmt.Sprintf("content parses as %s, not %s", node.Kind(), kind))
}

const fragmentHeader = "package _fragment\n\n"

// parseTopLevelFragment parses the fragment as a single top-level declaration.
func parseTopLevelFragment(trimmed string) (m.Node, error) {
	fset := token.NewFileSet()

	parsed, err := parser.ParseFile(fset, "fragment.go", fragmentHeader+trimmed, parser.ParseComments)
	if err != nil {
		return nil, m.NewParseError("", err.Error())
	}

	if len(parsed.Decls) != 1 {
		return nil, m.NewParseError("", fmt.Sprintf("expected exactly one declaration, found %d", len(parsed.Decls)))
	}

	kind, name, err := classifyDecl(parsed.Decls[0])
	if err != nil {
		return nil, err
	}

	return detachedNode(kind, name, trimmed), nil
}

// parseFieldFragment parses the fragment as a struct field by wrapping it
// in a synthetic struct body.
func parseFieldFragment(trimmed string) (m.Node, error) {
	fset := token.NewFileSet()

	wrapped := fragmentHeader + "type _w struct {\n" + trimmed + "\n}"

	parsed, err := parser.ParseFile(fset, "fragment.go", wrapped, 0)
	if err != nil {
		return nil, m.NewParseError("", err.Error())
	}

	decl, ok := parsed.Decls[0].(*ast.GenDecl)
	if !ok || len(decl.Specs) != 1 {
		return nil, m.NewParseError("", "content is not a struct field")
	}

	st, ok := decl.Specs[0].(*ast.TypeSpec).Type.(*ast.StructType)
	if !ok || len(st.Fields.List) != 1 || len(st.Fields.List[0].Names) == 0 {
		return nil, m.NewParseError("", "content is not a named struct field")
	}

	node := detachedNode(m.KindProperty, st.Fields.List[0].Names[0].Name, trimmed)
	node.fieldForm = true

	return node, nil
}

func classifyDecl(decl ast.Decl) (m.ElementKind, string, error) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if d.Recv == nil && d.Name.Name == "init" {
			return m.KindInit, "init", nil
		}

		return m.KindFunction, d.Name.Name, nil

	case *ast.GenDecl:
		switch d.Tok {
		case token.TYPE:
			if len(d.Specs) != 1 {
				return "", "", m.NewParseError("", "expected exactly one type declaration")
			}

			ts := d.Specs[0].(*ast.TypeSpec)
			if _, ok := ts.Type.(*ast.InterfaceType); ok {
				return m.KindInterface, ts.Name.Name, nil
			}

			return m.KindClass, ts.Name.Name, nil

		case token.CONST, token.VAR:
			if len(d.Specs) != 1 {
				return "", "", m.NewParseError("", "expected exactly one declaration")
			}

			vs := d.Specs[0].(*ast.ValueSpec)
			if len(vs.Names) != 1 {
				return "", "", m.NewParseError("", "expected exactly one declared name")
			}

			if d.Tok == token.CONST {
				return m.KindConstant, vs.Names[0].Name, nil
			}

			return m.KindProperty, vs.Names[0].Name, nil
		}
	}

	return "", "", m.NewParseError("", "unsupported declaration")
}

// detachedNode wraps a parsed fragment; its span refers to the fragment
// text, not to any file.
func detachedNode(kind m.ElementKind, name, text string) *goNode {
	return &goNode{
		src:  []byte(text),
		kind: kind,
		name: name,
		span: m.Span{Start: 0, End: len(text)},
	}
}
