// Package domain contains the patchtree core: the resolver that walks a
// syntax tree using a canonical path, and the mutation engine that applies
// modification batches through the structural editor.
package domain

import (
	"context"

	"github.com/patchtree/patchtree/internal/adapter"
	m "github.com/patchtree/patchtree/internal/model"
)

// Resolver walks a concrete tree to the node a path addresses.
type Resolver interface {
	// Resolve returns the addressed node and its immediate parent. The
	// parent is nil when the path addresses the file root. Resolution
	// always starts from the tree's current state; node handles must not
	// be cached across mutations.
	Resolve(ctx context.Context, path m.Path) (node, parent m.Node, err error)
}

type resolver struct {
	trees adapter.TreeProvider
}

// NewResolver constructs a Resolver over the given tree provider.
func NewResolver(trees adapter.TreeProvider) Resolver {
	return &resolver{trees: trees}
}

// Resolve scans each level for the first child matching the segment's
// (kind, name). Ambiguous matches resolve first-declared-wins; that is a
// documented precision limit of the addressing scheme. A missing hop fails
// with the full requested path; there is no partial resolution.
func (r *resolver) Resolve(ctx context.Context, path m.Path) (m.Node, m.Node, error) {
	root, err := r.trees.Root(ctx, path.File)
	if err != nil {
		return nil, nil, err
	}

	var parent m.Node

	current := root

	for _, segment := range path.Segments {
		match := firstMatch(current.Children(), segment)
		if match == nil {
			return nil, nil, m.NewElementNotFound(path.String())
		}

		parent = current
		current = match
	}

	return current, parent, nil
}

func firstMatch(children []m.Node, segment m.Segment) m.Node {
	for _, child := range children {
		if child.Kind() == segment.Kind && child.Name() == segment.Name {
			return child
		}
	}

	return nil
}
