package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/patchtree/patchtree/internal/model"
)

const twoFuncSource = `package a

func First() int {
	return 1
}

func Second() int {
	return 2
}
`

const structSource = `package b

type User struct {
	Name string
}
`

const interfaceSource = `package b

type Store interface {
	Get(id string) (string, error)
}
`

func editorFixture(t *testing.T, file, source string) (*MemSourceStore, *GoTreeAdapter, *GoEditorAdapter) {
	t.Helper()

	store := NewMemSourceStore().Seed(file, source)

	return store, NewGoTreeAdapter(store), NewGoEditorAdapter(store)
}

func readBack(t *testing.T, store *MemSourceStore, file string) string {
	t.Helper()

	content, err := store.Read(file)
	require.NoError(t, err)

	return string(content)
}

func detached(t *testing.T, trees *GoTreeAdapter, text string) m.Node {
	t.Helper()

	node, err := trees.ParseDecl(text)
	require.NoError(t, err)

	return node
}

func TestGoEditorAdapterInsertChild(t *testing.T) {
	ctx := context.Background()

	t.Run("appends a top-level declaration after the last one", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "a.go", twoFuncSource)
		root, err := trees.Root(ctx, "a.go")
		require.NoError(t, err)

		element := detached(t, trees, "func Third() int {\n\treturn 3\n}")
		require.NoError(t, editor.InsertChild(ctx, root, m.PositionLastChild, nil, element))

		content := readBack(t, store, "a.go")
		assert.Contains(t, content, "\n\nfunc Third() int {")
		assert.Less(t, strings.Index(content, "func Second"), strings.Index(content, "func Third"))
		assert.True(t, strings.HasSuffix(content, "}\n"))
	})

	t.Run("prepends a top-level declaration before the first one", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "a.go", twoFuncSource)
		root, err := trees.Root(ctx, "a.go")
		require.NoError(t, err)

		element := detached(t, trees, "func Zeroth() int {\n\treturn 0\n}")
		require.NoError(t, editor.InsertChild(ctx, root, m.PositionFirstChild, nil, element))

		content := readBack(t, store, "a.go")
		assert.Less(t, strings.Index(content, "func Zeroth"), strings.Index(content, "func First"))
		assert.Contains(t, content, "package a\n\nfunc Zeroth")
	})

	t.Run("inserts before and after a sibling anchor", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "a.go", twoFuncSource)
		root, err := trees.Root(ctx, "a.go")
		require.NoError(t, err)

		anchor := childNamed(t, root, m.KindFunction, "Second")
		element := detached(t, trees, "func Middle() int {\n\treturn 0\n}")
		require.NoError(t, editor.InsertChild(ctx, root, m.PositionBefore, anchor, element))

		content := readBack(t, store, "a.go")
		assert.Less(t, strings.Index(content, "func First"), strings.Index(content, "func Middle"))
		assert.Less(t, strings.Index(content, "func Middle"), strings.Index(content, "func Second"))
	})

	t.Run("handles a file with no declarations", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "empty.go", "package empty\n")
		root, err := trees.Root(ctx, "empty.go")
		require.NoError(t, err)

		element := detached(t, trees, "func Only() {}")
		require.NoError(t, editor.InsertChild(ctx, root, m.PositionLastChild, nil, element))

		assert.Equal(t, "package empty\n\nfunc Only() {}\n", readBack(t, store, "empty.go"))
	})

	t.Run("inserts a field as the first member of a struct", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "b.go", structSource)
		root, err := trees.Root(ctx, "b.go")
		require.NoError(t, err)

		class := childNamed(t, root, m.KindClass, "User")
		element := detached(t, trees, "Email string")
		require.NoError(t, editor.InsertChild(ctx, class, m.PositionFirstChild, nil, element))

		assert.Contains(t, readBack(t, store, "b.go"), "struct {\n\tEmail string\n\tName string\n}")
	})

	t.Run("inserts a field as the last member of a struct", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "b.go", structSource)
		root, err := trees.Root(ctx, "b.go")
		require.NoError(t, err)

		class := childNamed(t, root, m.KindClass, "User")
		element := detached(t, trees, "Email string")
		require.NoError(t, editor.InsertChild(ctx, class, m.PositionLastChild, nil, element))

		assert.Contains(t, readBack(t, store, "b.go"), "\tName string\n\tEmail string\n}")
	})

	t.Run("inserts a field before a member anchor", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "b.go", structSource)
		root, err := trees.Root(ctx, "b.go")
		require.NoError(t, err)

		class := childNamed(t, root, m.KindClass, "User")
		anchor := childNamed(t, class, m.KindProperty, "Name")
		element := detached(t, trees, "Email string")
		require.NoError(t, editor.InsertChild(ctx, class, m.PositionBefore, anchor, element))

		assert.Contains(t, readBack(t, store, "b.go"), "\tEmail string\n\tName string")
	})

	t.Run("places a method next to its receiver type", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "b.go", structSource)
		root, err := trees.Root(ctx, "b.go")
		require.NoError(t, err)

		class := childNamed(t, root, m.KindClass, "User")
		element := detached(t, trees, "func (u User) Greet() string {\n\treturn u.Name\n}")
		require.NoError(t, editor.InsertChild(ctx, class, m.PositionLastChild, nil, element))

		content := readBack(t, store, "b.go")
		assert.Contains(t, content, "}\n\nfunc (u User) Greet() string {")
	})

	t.Run("inserts an interface member in signature form", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "b.go", interfaceSource)
		root, err := trees.Root(ctx, "b.go")
		require.NoError(t, err)

		iface := childNamed(t, root, m.KindInterface, "Store")
		element := detached(t, trees, "func Put(id string, v string) error")
		require.NoError(t, editor.InsertChild(ctx, iface, m.PositionLastChild, nil, element))

		content := readBack(t, store, "b.go")
		assert.Contains(t, content, "\tGet(id string) (string, error)\n\tPut(id string, v string) error\n}")
		assert.NotContains(t, content, "\tfunc Put")

		// The file must still parse after the splice.
		_, err = trees.Root(ctx, "b.go")
		require.NoError(t, err)
	})

	t.Run("rejects an interface member carrying a body", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "b.go", interfaceSource)
		root, err := trees.Root(ctx, "b.go")
		require.NoError(t, err)

		iface := childNamed(t, root, m.KindInterface, "Store")
		element := detached(t, trees, "func Put(id string) error {\n\treturn nil\n}")
		err = editor.InsertChild(ctx, iface, m.PositionLastChild, nil, element)
		require.Error(t, err)
		assert.Equal(t, m.ErrInvalidOperation, m.KindOf(err))

		assert.Equal(t, interfaceSource, readBack(t, store, "b.go"))
	})

	t.Run("rejects a var declaration as a struct member", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "b.go", structSource)
		root, err := trees.Root(ctx, "b.go")
		require.NoError(t, err)

		class := childNamed(t, root, m.KindClass, "User")
		element := detached(t, trees, "var Age int")
		err = editor.InsertChild(ctx, class, m.PositionLastChild, nil, element)
		require.Error(t, err)
		assert.Equal(t, m.ErrInvalidOperation, m.KindOf(err))

		assert.Equal(t, structSource, readBack(t, store, "b.go"))
	})

	t.Run("rejects a bare field as a top-level declaration", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "a.go", twoFuncSource)
		root, err := trees.Root(ctx, "a.go")
		require.NoError(t, err)

		element := detached(t, trees, "Age int")
		err = editor.InsertChild(ctx, root, m.PositionLastChild, nil, element)
		require.Error(t, err)
		assert.Equal(t, m.ErrInvalidOperation, m.KindOf(err))

		assert.Equal(t, twoFuncSource, readBack(t, store, "a.go"))
	})

	t.Run("rejects a non-function insert into an interface", func(t *testing.T) {
		_, trees, editor := editorFixture(t, "b.go", interfaceSource)
		root, err := trees.Root(ctx, "b.go")
		require.NoError(t, err)

		iface := childNamed(t, root, m.KindInterface, "Store")
		element := detached(t, trees, "Age int")
		err = editor.InsertChild(ctx, iface, m.PositionLastChild, nil, element)
		require.Error(t, err)
		assert.Equal(t, m.ErrInvalidOperation, m.KindOf(err))
	})

	t.Run("rejects insertion into a non-container element", func(t *testing.T) {
		_, trees, editor := editorFixture(t, "a.go", twoFuncSource)
		root, err := trees.Root(ctx, "a.go")
		require.NoError(t, err)

		target := childNamed(t, root, m.KindFunction, "First")
		element := detached(t, trees, "var x = 1")
		err = editor.InsertChild(ctx, target, m.PositionLastChild, nil, element)
		require.Error(t, err)
		assert.Equal(t, m.ErrInvalidOperation, m.KindOf(err))
	})
}

func TestGoEditorAdapterReplaceSpan(t *testing.T) {
	ctx := context.Background()

	store, trees, editor := editorFixture(t, "a.go", twoFuncSource)
	root, err := trees.Root(ctx, "a.go")
	require.NoError(t, err)

	target := childNamed(t, root, m.KindFunction, "First")
	require.NoError(t, editor.ReplaceSpan(ctx, target, "func First() int {\n\treturn 42\n}\n"))

	content := readBack(t, store, "a.go")
	assert.Contains(t, content, "return 42")
	assert.NotContains(t, content, "return 1\n")
	assert.Contains(t, content, "}\n\nfunc Second")
}

func TestGoEditorAdapterDeleteNode(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the declaration and its separator blank line", func(t *testing.T) {
		store, trees, editor := editorFixture(t, "a.go", twoFuncSource)
		root, err := trees.Root(ctx, "a.go")
		require.NoError(t, err)

		target := childNamed(t, root, m.KindFunction, "First")
		require.NoError(t, editor.DeleteNode(ctx, target))

		content := readBack(t, store, "a.go")
		assert.Equal(t, "package a\n\nfunc Second() int {\n\treturn 2\n}\n", content)
	})

	t.Run("deleting a middle declaration leaves a single blank line", func(t *testing.T) {
		source := twoFuncSource + "\nfunc Third() int {\n\treturn 3\n}\n"
		store, trees, editor := editorFixture(t, "a.go", source)
		root, err := trees.Root(ctx, "a.go")
		require.NoError(t, err)

		target := childNamed(t, root, m.KindFunction, "Second")
		require.NoError(t, editor.DeleteNode(ctx, target))

		content := readBack(t, store, "a.go")
		assert.NotContains(t, content, "func Second")
		assert.NotContains(t, content, "\n\n\n")
		assert.Contains(t, content, "}\n\nfunc Third")
	})

	t.Run("removes a struct field with its indentation", func(t *testing.T) {
		source := "package b\n\ntype User struct {\n\tName string\n\tAge  int\n}\n"
		store, trees, editor := editorFixture(t, "b.go", source)
		root, err := trees.Root(ctx, "b.go")
		require.NoError(t, err)

		class := childNamed(t, root, m.KindClass, "User")
		target := childNamed(t, class, m.KindProperty, "Name")
		require.NoError(t, editor.DeleteNode(ctx, target))

		assert.Equal(t, "package b\n\ntype User struct {\n\tAge  int\n}\n", readBack(t, store, "b.go"))
	})
}

func TestGoEditorAdapterImports(t *testing.T) {
	ctx := context.Background()

	t.Run("adds the first import after the package clause", func(t *testing.T) {
		store, _, editor := editorFixture(t, "c.go", "package c\n\nfunc A() {}\n")

		require.NoError(t, editor.AddImport(ctx, "c.go", "fmt"))

		assert.Equal(t, "package c\n\nimport \"fmt\"\n\nfunc A() {}\n", readBack(t, store, "c.go"))
	})

	t.Run("keeps a grouped import block sorted", func(t *testing.T) {
		source := "package c\n\nimport (\n\t\"fmt\"\n\t\"strings\"\n)\n"
		store, _, editor := editorFixture(t, "c.go", source)

		require.NoError(t, editor.AddImport(ctx, "c.go", "os"))

		assert.Contains(t, readBack(t, store, "c.go"), "\t\"fmt\"\n\t\"os\"\n\t\"strings\"\n")
	})

	t.Run("adding a present import is a no-op", func(t *testing.T) {
		source := "package c\n\nimport \"fmt\"\n"
		store, _, editor := editorFixture(t, "c.go", source)

		require.NoError(t, editor.AddImport(ctx, "c.go", "fmt"))

		assert.Equal(t, 1, strings.Count(readBack(t, store, "c.go"), `"fmt"`))
	})

	t.Run("removing the sole import drops the declaration", func(t *testing.T) {
		source := "package c\n\nimport \"fmt\"\n\nfunc A() {}\n"
		store, _, editor := editorFixture(t, "c.go", source)

		require.NoError(t, editor.RemoveImport(ctx, "c.go", "fmt"))

		assert.Equal(t, "package c\n\nfunc A() {}\n", readBack(t, store, "c.go"))
	})

	t.Run("removes one import line from a grouped block", func(t *testing.T) {
		source := "package c\n\nimport (\n\t\"fmt\"\n\t\"strings\"\n)\n"
		store, _, editor := editorFixture(t, "c.go", source)

		require.NoError(t, editor.RemoveImport(ctx, "c.go", "fmt"))

		content := readBack(t, store, "c.go")
		assert.NotContains(t, content, `"fmt"`)
		assert.Contains(t, content, "import (\n\t\"strings\"\n)\n")
	})

	t.Run("removing an absent import is a no-op", func(t *testing.T) {
		source := "package c\n\nimport \"fmt\"\n"
		store, _, editor := editorFixture(t, "c.go", source)

		require.NoError(t, editor.RemoveImport(ctx, "c.go", "strings"))

		assert.Equal(t, source, readBack(t, store, "c.go"))
	})

	t.Run("fails with file not found for an absent file", func(t *testing.T) {
		editor := NewGoEditorAdapter(NewMemSourceStore())

		err := editor.AddImport(ctx, "missing.go", "fmt")
		require.Error(t, err)
		assert.Equal(t, m.ErrFileNotFound, m.KindOf(err))
	})
}
