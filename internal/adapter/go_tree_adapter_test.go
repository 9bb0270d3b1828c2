package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/patchtree/patchtree/internal/model"
)

const sampleSource = `package sample

import "fmt"

const MaxUsers = 10

var registry = map[string]*User{}

func init() {
	registry["root"] = &User{Name: "root"}
}

// User is a sample aggregate.
type User struct {
	Base
	Name string
	age  int
}

func (u *User) Greet() string {
	return fmt.Sprintf("hi %s", u.Name)
}

func NewUser(name string) *User {
	return &User{Name: name}
}

type Store interface {
	Get(name string) (*User, error)
}

type Base struct{}
`

func sampleTree(t *testing.T) (*GoTreeAdapter, m.Node) {
	t.Helper()

	store := NewMemSourceStore().Seed("sample.go", sampleSource)
	trees := NewGoTreeAdapter(store)

	root, err := trees.Root(context.Background(), "sample.go")
	require.NoError(t, err)

	return trees, root
}

func childNamed(t *testing.T, node m.Node, kind m.ElementKind, name string) m.Node {
	t.Helper()

	for _, child := range node.Children() {
		if child.Kind() == kind && child.Name() == name {
			return child
		}
	}

	require.Failf(t, "child not found", "%s[%s] under %s", kind, name, node.Name())

	return nil
}

func TestGoTreeAdapterRoot(t *testing.T) {
	t.Run("maps declarations onto the element vocabulary", func(t *testing.T) {
		_, root := sampleTree(t)

		assert.Equal(t, m.KindFile, root.Kind())
		assert.Equal(t, "sample.go", root.Name())

		kinds := map[string]m.ElementKind{}
		for _, child := range root.Children() {
			kinds[child.Name()] = child.Kind()
		}

		assert.Equal(t, m.KindConstant, kinds["MaxUsers"])
		assert.Equal(t, m.KindProperty, kinds["registry"])
		assert.Equal(t, m.KindInit, kinds["init"])
		assert.Equal(t, m.KindClass, kinds["User"])
		assert.Equal(t, m.KindFunction, kinds["NewUser"])
		assert.Equal(t, m.KindInterface, kinds["Store"])
		assert.Equal(t, m.KindClass, kinds["Base"])
	})

	t.Run("attaches methods and fields to the receiver class", func(t *testing.T) {
		_, root := sampleTree(t)
		user := childNamed(t, root, m.KindClass, "User")

		require.Len(t, user.Children(), 3)
		assert.Equal(t, "Name", user.Children()[0].Name())
		assert.Equal(t, m.KindProperty, user.Children()[0].Kind())
		assert.Equal(t, "age", user.Children()[1].Name())
		assert.Equal(t, "Greet", user.Children()[2].Name())
		assert.Equal(t, m.KindFunction, user.Children()[2].Kind())
	})

	t.Run("records embedded fields as supertypes", func(t *testing.T) {
		trees, root := sampleTree(t)
		user := childNamed(t, root, m.KindClass, "User")

		element := trees.Snapshot(user, m.Path{File: "sample.go", Segments: []m.Segment{{Kind: m.KindClass, Name: "User"}}})
		assert.Equal(t, []string{"Base"}, element.Supertypes)
		assert.Equal(t, []string{"exported"}, element.Modifiers)
	})

	t.Run("projects interface members with signature metadata", func(t *testing.T) {
		trees, root := sampleTree(t)
		store := childNamed(t, root, m.KindInterface, "Store")
		get := childNamed(t, store, m.KindFunction, "Get")

		element := trees.Snapshot(get, m.Path{File: "sample.go"})
		require.Len(t, element.Parameters, 1)
		assert.Equal(t, m.Parameter{Name: "name", Type: "string"}, element.Parameters[0])
		assert.Equal(t, "(*User, error)", element.ReturnType)
	})

	t.Run("node text covers the declaration and its doc comment", func(t *testing.T) {
		_, root := sampleTree(t)
		user := childNamed(t, root, m.KindClass, "User")

		assert.Contains(t, user.Text(), "// User is a sample aggregate.")
		assert.Contains(t, user.Text(), "type User struct {")
	})

	t.Run("fails with file not found for an absent file", func(t *testing.T) {
		trees := NewGoTreeAdapter(NewMemSourceStore())

		_, err := trees.Root(context.Background(), "missing.go")
		require.Error(t, err)
		assert.Equal(t, m.ErrFileNotFound, m.KindOf(err))
	})

	t.Run("fails with a parse error for malformed source", func(t *testing.T) {
		store := NewMemSourceStore().Seed("broken.go", "package broken\n\nfunc {")
		trees := NewGoTreeAdapter(store)

		_, err := trees.Root(context.Background(), "broken.go")
		require.Error(t, err)
		assert.Equal(t, m.ErrParse, m.KindOf(err))
	})
}

func TestGoTreeAdapterParseDecl(t *testing.T) {
	trees := NewGoTreeAdapter(NewMemSourceStore())

	t.Run("classifies declarations by their natural kind", func(t *testing.T) {
		cases := []struct {
			text string
			kind m.ElementKind
			name string
		}{
			{"func Validate() error { return nil }", m.KindFunction, "Validate"},
			{"func init() {}", m.KindInit, "init"},
			{"type User struct{}", m.KindClass, "User"},
			{"type Store interface{}", m.KindInterface, "Store"},
			{"const MaxUsers = 10", m.KindConstant, "MaxUsers"},
			{"var registry = 1", m.KindProperty, "registry"},
			{"Email string", m.KindProperty, "Email"},
		}

		for _, tc := range cases {
			node, err := trees.ParseDecl(tc.text)
			require.NoError(t, err, tc.text)
			assert.Equal(t, tc.kind, node.Kind(), tc.text)
			assert.Equal(t, tc.name, node.Name(), tc.text)
		}
	})

	t.Run("rejects text that is not a declaration", func(t *testing.T) {
		_, err := trees.ParseDecl("this is not go")
		require.Error(t, err)
		assert.Equal(t, m.ErrParse, m.KindOf(err))
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := trees.ParseDecl("   \n")
		require.Error(t, err)
		assert.Equal(t, m.ErrParse, m.KindOf(err))
	})
}

func TestGoTreeAdapterParseAsKind(t *testing.T) {
	trees := NewGoTreeAdapter(NewMemSourceStore())

	t.Run("accepts matching kinds", func(t *testing.T) {
		node, err := trees.ParseAsKind("func Greet() {}", m.KindFunction)
		require.NoError(t, err)
		assert.Equal(t, "Greet", node.Name())
	})

	t.Run("accepts init content declared as a function", func(t *testing.T) {
		node, err := trees.ParseAsKind("func init() {}", m.KindFunction)
		require.NoError(t, err)
		assert.Equal(t, m.KindInit, node.Kind())
	})

	t.Run("rejects kind mismatches", func(t *testing.T) {
		_, err := trees.ParseAsKind("type User struct{}", m.KindFunction)
		require.Error(t, err)
		assert.Equal(t, m.ErrParse, m.KindOf(err))
	})

	t.Run("rejects kinds the backend does not support", func(t *testing.T) {
		for _, kind := range []m.ElementKind{m.KindObject, m.KindCompanion, m.KindConstructor} {
			_, err := trees.ParseAsKind("type X struct{}", kind)
			require.Error(t, err, kind)
		}
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		_, err := trees.ParseAsKind("func F() {}", m.ElementKind("widget"))
		require.Error(t, err)
	})
}
