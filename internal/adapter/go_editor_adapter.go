package adapter

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	m "github.com/patchtree/patchtree/internal/model"
)

// GoEditorAdapter implements the structural editor contract for Go source
// files. All edits are byte-span splices through the source store; the
// adapter owns blank-line separation for top-level declarations, tab
// indentation for members, and import list conventions (sorted within an
// existing block).
type GoEditorAdapter struct {
	store SourceStore
}

// NewGoEditorAdapter constructs a GoEditorAdapter writing through the store.
func NewGoEditorAdapter(store SourceStore) *GoEditorAdapter {
	return &GoEditorAdapter{store: store}
}

// memberIndent is the indentation applied to struct and interface members.
const memberIndent = "\t"

// asGoNode rejects nodes produced by a different backend.
func asGoNode(node m.Node) (*goNode, error) {
	gn, ok := node.(*goNode)
	if !ok || gn.file == "" {
		return nil, m.NewInvalidOperation("", "node was not produced by the Go tree adapter")
	}

	return gn, nil
}

func (a *GoEditorAdapter) splice(file string, start, end int, replacement string) error {
	src, err := a.store.Read(file)
	if err != nil {
		return m.WrapIO(file, err)
	}

	if start < 0 || end > len(src) || start > end {
		return m.WrapIO(file, fmt.Errorf("stale span [%d,%d) for %d bytes", start, end, len(src)))
	}

	var b strings.Builder

	b.Grow(len(src) - (end - start) + len(replacement))
	b.Write(src[:start])
	b.WriteString(replacement)
	b.Write(src[end:])

	return a.store.Replace(file, []byte(b.String()))
}

// InsertChild splices element under container at the requested position.
func (a *GoEditorAdapter) InsertChild(ctx context.Context, container m.Node, position m.Position, anchor m.Node, element m.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gn, err := asGoNode(container)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(element.Text())

	switch gn.kind {
	case m.KindFile:
		if isFieldFragment(element) {
			return m.NewInvalidOperation("", "a top-level property needs a var declaration, not a bare field")
		}

		return a.insertTopLevel(gn, position, anchor, text)

	case m.KindClass:
		if element.Kind() == m.KindProperty {
			if !isFieldFragment(element) {
				return m.NewInvalidOperation("", "struct members use the bare field form, e.g. `Name string`")
			}

			return a.insertMember(gn, position, anchor, text)
		}

		return a.insertMethod(gn, position, anchor, text)

	case m.KindInterface:
		if element.Kind() != m.KindFunction {
			return m.NewInvalidOperation("", fmt.Sprintf("cannot insert a %s into an interface", element.Kind()))
		}

		signature, err := interfaceSignature(text)
		if err != nil {
			return err
		}

		return a.insertMember(gn, position, anchor, signature)

	default:
		return m.NewInvalidOperation("", fmt.Sprintf("cannot insert into a %s element", gn.kind))
	}
}

// isFieldFragment reports whether the element was parsed from the bare
// `Name Type` struct-field form.
func isFieldFragment(element m.Node) bool {
	gn, ok := element.(*goNode)

	return ok && gn.fieldForm
}

// interfaceSignature converts a function fragment into the signature form
// an interface body expects. The fragment must be a plain func declaration
// without a receiver or a body; splicing anything else between the braces
// would leave the file unparseable.
func interfaceSignature(text string) (string, error) {
	fset := token.NewFileSet()

	parsed, err := parser.ParseFile(fset, "fragment.go", fragmentHeader+text, 0)
	if err != nil {
		return "", m.NewParseError("", err.Error())
	}

	if len(parsed.Decls) != 1 {
		return "", m.NewInvalidOperation("", "interface members are single method signatures")
	}

	decl, ok := parsed.Decls[0].(*ast.FuncDecl)
	if !ok {
		return "", m.NewInvalidOperation("", "interface members must be method signatures")
	}

	if decl.Recv != nil {
		return "", m.NewInvalidOperation("", "interface members cannot declare a receiver")
	}

	if decl.Body != nil {
		return "", m.NewInvalidOperation("", "interface members are signatures and cannot carry a body")
	}

	return strings.TrimSpace(strings.TrimPrefix(text, "func")), nil
}

// insertTopLevel places a declaration among the file's top-level children
// with blank-line separation.
func (a *GoEditorAdapter) insertTopLevel(file *goNode, position m.Position, anchor m.Node, text string) error {
	children := file.children

	switch position {
	case m.PositionFirstChild:
		if len(children) == 0 {
			return a.appendToFile(file, text)
		}

		return a.splice(file.file, children[0].Span().Start, children[0].Span().Start, text+"\n\n")

	case m.PositionLastChild:
		if len(children) == 0 {
			return a.appendToFile(file, text)
		}

		last := children[len(children)-1].Span().End
		// Methods sit outside their class span, so take the true maximum.
		for _, child := range children {
			last = maxInt(last, spanEndWithMembers(child))
		}

		return a.splice(file.file, last, last, "\n\n"+text)

	case m.PositionBefore:
		start := anchor.Span().Start
		return a.splice(file.file, start, start, text+"\n\n")

	case m.PositionAfter:
		end := anchor.Span().End
		return a.splice(file.file, end, end, "\n\n"+text)

	default:
		return m.NewInvalidOperation("", fmt.Sprintf("unknown position %q", position))
	}
}

// spanEndWithMembers returns the furthest span covered by a node and its
// out-of-body children (methods attached to a class).
func spanEndWithMembers(node m.Node) int {
	end := node.Span().End
	for _, child := range node.Children() {
		end = maxInt(end, child.Span().End)
	}

	return end
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func (a *GoEditorAdapter) appendToFile(file *goNode, text string) error {
	insertion := "\n" + text + "\n"
	if len(file.src) == 0 || file.src[len(file.src)-1] != '\n' {
		insertion = "\n\n" + text + "\n"
	}

	return a.splice(file.file, len(file.src), len(file.src), insertion)
}

// insertMember places an indented line inside a struct or interface body.
func (a *GoEditorAdapter) insertMember(container *goNode, position m.Position, anchor m.Node, text string) error {
	if container.bodySpan.Len() < 0 || container.bodySpan.End == 0 {
		return m.NewInvalidOperation("", fmt.Sprintf("%s %s has no body to insert into", container.kind, container.name))
	}

	indented := indentLines(text, memberIndent)

	switch position {
	case m.PositionFirstChild:
		return a.splice(container.file, container.bodySpan.Start, container.bodySpan.Start, "\n"+indented)

	case m.PositionLastChild:
		insertion := indented + "\n"
		if container.bodySpan.Len() == 0 || container.src[container.bodySpan.End-1] != '\n' {
			insertion = "\n" + indented + "\n"
		}

		return a.splice(container.file, container.bodySpan.End, container.bodySpan.End, insertion)

	case m.PositionBefore:
		start := lineStartBefore(container.src, anchor.Span().Start)
		return a.splice(container.file, start, start, indented+"\n")

	case m.PositionAfter:
		end := lineEndAfter(container.src, anchor.Span().End)
		return a.splice(container.file, end, end, indented+"\n")

	default:
		return m.NewInvalidOperation("", fmt.Sprintf("unknown position %q", position))
	}
}

// insertMethod places a function next to its receiver's type declaration.
// The content author writes the receiver clause.
func (a *GoEditorAdapter) insertMethod(class *goNode, position m.Position, anchor m.Node, text string) error {
	switch position {
	case m.PositionFirstChild:
		end := class.span.End
		return a.splice(class.file, end, end, "\n\n"+text)

	case m.PositionLastChild:
		end := class.span.End
		for _, child := range class.children {
			if child.Kind() == m.KindFunction || child.Kind() == m.KindInit {
				end = maxInt(end, child.Span().End)
			}
		}

		return a.splice(class.file, end, end, "\n\n"+text)

	case m.PositionBefore:
		start := anchor.Span().Start
		return a.splice(class.file, start, start, text+"\n\n")

	case m.PositionAfter:
		end := anchor.Span().End
		return a.splice(class.file, end, end, "\n\n"+text)

	default:
		return m.NewInvalidOperation("", fmt.Sprintf("unknown position %q", position))
	}
}

// ReplaceSpan replaces node's full text span in place. Nodes living inside
// a struct or interface body keep their member form so the file stays
// well-formed.
func (a *GoEditorAdapter) ReplaceSpan(ctx context.Context, node m.Node, newText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gn, err := asGoNode(node)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(newText)

	switch gn.memberOf {
	case m.KindClass:
		if _, err := parseFieldFragment(text); err != nil {
			return m.NewInvalidOperation("", "struct members use the bare field form, e.g. `Name string`")
		}

	case m.KindInterface:
		text, err = interfaceSignature(text)
		if err != nil {
			return err
		}
	}

	return a.splice(gn.file, gn.span.Start, gn.span.End, text)
}

// DeleteNode removes the node plus the separator whitespace it solely owns,
// so deletion never leaves two declarations jammed together or a dangling
// blank run.
func (a *GoEditorAdapter) DeleteNode(ctx context.Context, node m.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gn, err := asGoNode(node)
	if err != nil {
		return err
	}

	src := gn.src
	start := gn.span.Start
	end := gn.span.End

	// Take the leading indentation when nothing else precedes the node on
	// its line.
	lineStart := lineStartBefore(src, start)
	if isBlank(src[lineStart:start]) {
		start = lineStart
	}

	// Take the line terminator and any trailing blank lines.
	end = skipBlank(src, end)
	if end < len(src) && src[end] == '\n' {
		end++
	}

	for end < len(src) {
		next := skipBlank(src, end)
		if next >= len(src) || src[next] != '\n' {
			break
		}

		end = next + 1
	}

	if err := a.splice(gn.file, start, end, ""); err != nil {
		return err
	}

	return a.collapseJunction(gn.file, start)
}

// collapseJunction normalizes the newline run left at a deletion point.
func (a *GoEditorAdapter) collapseJunction(file string, at int) error {
	src, err := a.store.Read(file)
	if err != nil {
		return m.WrapIO(file, err)
	}

	runStart := at
	for runStart > 0 && src[runStart-1] == '\n' {
		runStart--
	}

	runEnd := at
	for runEnd < len(src) && src[runEnd] == '\n' {
		runEnd++
	}

	keep := "\n\n"
	if runEnd == len(src) || runStart == 0 {
		keep = "\n"
	}

	if runEnd-runStart <= len(keep) {
		return nil
	}

	return a.splice(file, runStart, runEnd, keep)
}

// AddImport inserts an import, keeping an existing grouped block sorted.
// Adding a present import is a no-op.
func (a *GoEditorAdapter) AddImport(ctx context.Context, file, importPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, fset, parsed, err := a.parse(file)
	if err != nil {
		return err
	}

	quoted := strconv.Quote(importPath)

	for _, imp := range parsed.Imports {
		if imp.Path.Value == quoted {
			return nil
		}
	}

	offsetOf := func(pos token.Pos) int { return fset.Position(pos).Offset }

	if block := lastImportDecl(parsed); block != nil {
		if block.Lparen.IsValid() {
			at := offsetOf(block.Rparen)

			for _, spec := range block.Specs {
				imp := spec.(*ast.ImportSpec)
				if imp.Path.Value > quoted {
					at = lineStartBefore(src, offsetOf(imp.Pos()))
					break
				}
			}

			return a.splice(file, at, at, memberIndent+quoted+"\n")
		}

		at := lineEndAfter(src, offsetOf(block.End()))

		return a.splice(file, at, at, "import "+quoted+"\n")
	}

	at := lineEndAfter(src, offsetOf(parsed.Name.End()))

	return a.splice(file, at, at, "\nimport "+quoted+"\n")
}

// RemoveImport removes an import. Removing an absent import is a no-op.
func (a *GoEditorAdapter) RemoveImport(ctx context.Context, file, importPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, fset, parsed, err := a.parse(file)
	if err != nil {
		return err
	}

	quoted := strconv.Quote(importPath)
	offsetOf := func(pos token.Pos) int { return fset.Position(pos).Offset }

	for _, decl := range parsed.Decls {
		block, ok := decl.(*ast.GenDecl)
		if !ok || block.Tok != token.IMPORT {
			continue
		}

		for _, spec := range block.Specs {
			imp := spec.(*ast.ImportSpec)
			if imp.Path.Value != quoted {
				continue
			}

			start := lineStartBefore(src, offsetOf(imp.Pos()))
			end := lineEndAfter(src, offsetOf(imp.End()))

			if len(block.Specs) == 1 {
				// Sole import: drop the whole declaration.
				start = lineStartBefore(src, offsetOf(block.Pos()))
				end = lineEndAfter(src, offsetOf(block.End()))

				for end < len(src) && src[end] == '\n' {
					end++
				}
			}

			return a.splice(file, start, end, "")
		}
	}

	return nil
}

func (a *GoEditorAdapter) parse(file string) ([]byte, *token.FileSet, *ast.File, error) {
	if !a.store.Exists(file) {
		return nil, nil, nil, m.NewFileNotFound(file)
	}

	src, err := a.store.Read(file)
	if err != nil {
		return nil, nil, nil, m.WrapIO(file, err)
	}

	fset := token.NewFileSet()

	parsed, err := parser.ParseFile(fset, file, src, parser.ParseComments)
	if err != nil {
		return nil, nil, nil, m.NewParseError(file, err.Error())
	}

	return src, fset, parsed, nil
}

func lastImportDecl(parsed *ast.File) *ast.GenDecl {
	var last *ast.GenDecl

	for _, decl := range parsed.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			last = gd
		}
	}

	return last
}

// lineStartBefore returns the offset just after the previous newline.
func lineStartBefore(src []byte, offset int) int {
	for offset > 0 && src[offset-1] != '\n' {
		offset--
	}

	return offset
}

// lineEndAfter returns the offset just past the next newline, or len(src).
func lineEndAfter(src []byte, offset int) int {
	for offset < len(src) {
		if src[offset] == '\n' {
			return offset + 1
		}

		offset++
	}

	return offset
}

// skipBlank advances over spaces and tabs.
func skipBlank(src []byte, offset int) int {
	for offset < len(src) && (src[offset] == ' ' || src[offset] == '\t') {
		offset++
	}

	return offset
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' {
			return false
		}
	}

	return true
}

// indentLines prefixes every non-empty line of text with indent.
func indentLines(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}

		lines[i] = indent + line
	}

	return strings.Join(lines, "\n")
}
