package domain

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/patchtree/patchtree/internal/adapter"
	m "github.com/patchtree/patchtree/internal/model"
)

// ApplyArgs carries the parameters for one batch application.
type ApplyArgs struct {
	// BatchPath is the YAML/JSON batch document to load.
	BatchPath string
	// Threads caps how many disjoint files are mutated concurrently.
	Threads int
	// DryRun routes all writes into an in-memory overlay and reports the
	// would-be file changes instead of persisting them.
	DryRun bool
}

// ApplyOutcome is the aggregate of one batch application.
type ApplyOutcome struct {
	Results []m.ModificationResult
	// Changes holds the overlay's file diffs for dry runs; empty otherwise.
	Changes []m.FileChange
}

// Workflow is the orchestration surface the CLI drives.
type Workflow interface {
	// Apply loads a batch document and applies it against the store.
	Apply(ctx context.Context, args ApplyArgs) (ApplyOutcome, error)

	// Resolve resolves a canonical path string to a semantic snapshot.
	Resolve(ctx context.Context, pathText string) (m.CodeElement, error)

	// List returns the addressable elements of a file in pre-order, each
	// with its canonical path.
	List(ctx context.Context, file string) ([]m.CodeElement, error)
}

type workflow struct {
	base adapter.SourceStore
}

// NewWorkflow constructs a Workflow over the given base store.
func NewWorkflow(base adapter.SourceStore) Workflow {
	return &workflow{base: base}
}

func (w *workflow) Apply(ctx context.Context, args ApplyArgs) (ApplyOutcome, error) {
	data, err := os.ReadFile(args.BatchPath)
	if err != nil {
		return ApplyOutcome{}, m.WrapIO(args.BatchPath, err)
	}

	batch, err := m.ParseBatch(data)
	if err != nil {
		return ApplyOutcome{}, err
	}

	store := w.base

	var overlay *adapter.MemSourceStore

	if args.DryRun {
		overlay = adapter.NewOverlayStore(w.base)
		store = overlay
	}

	trees := adapter.NewGoTreeAdapter(store)
	engine := NewEngine(trees, trees, adapter.NewGoEditorAdapter(store), store)

	slog.Debug("applying batch", "path", args.BatchPath, "modifications", len(batch.Modifications), "threads", args.Threads, "dryRun", args.DryRun)

	outcome := ApplyOutcome{
		Results: applyPartitioned(ctx, engine, batch.Modifications, args.Threads),
	}

	if overlay != nil {
		outcome.Changes = overlay.Changes()
	}

	slog.Debug("batch applied", "failures", m.CountFailures(outcome.Results))

	return outcome, nil
}

// applyPartitioned splits the batch into per-file groups and applies the
// groups concurrently. In-file order is preserved, which is the only
// ordering the engine guarantees anything about; results are reassembled
// in input order. Modifications whose path does not even parse are grouped
// together so they still fail individually, in order.
func applyPartitioned(ctx context.Context, engine Engine, mods []m.Modification, threads int) []m.ModificationResult {
	if threads <= 1 || len(mods) < 2 {
		return engine.Apply(ctx, mods)
	}

	type group struct {
		indices []int
		mods    []m.Modification
	}

	groups := map[string]*group{}

	var order []string

	for i, mod := range mods {
		file, err := mod.TargetFile()
		if err != nil {
			file = "\x00unparseable"
		}

		grp, ok := groups[file]
		if !ok {
			grp = &group{}
			groups[file] = grp
			order = append(order, file)
		}

		grp.indices = append(grp.indices, i)
		grp.mods = append(grp.mods, mod)
	}

	results := make([]m.ModificationResult, len(mods))

	var eg errgroup.Group

	eg.SetLimit(threads)

	for _, key := range order {
		grp := groups[key]

		eg.Go(func() error {
			for j, result := range engine.Apply(ctx, grp.mods) {
				results[grp.indices[j]] = result
			}

			return nil
		})
	}

	// Group workers only write their own result slots and never error.
	_ = eg.Wait()

	return results
}

func (w *workflow) Resolve(ctx context.Context, pathText string) (m.CodeElement, error) {
	path, err := m.ParsePath(pathText)
	if err != nil {
		return m.CodeElement{}, err
	}

	trees := adapter.NewGoTreeAdapter(w.base)

	node, _, err := NewResolver(trees).Resolve(ctx, path)
	if err != nil {
		return m.CodeElement{}, err
	}

	return trees.Snapshot(node, path), nil
}

func (w *workflow) List(ctx context.Context, file string) ([]m.CodeElement, error) {
	trees := adapter.NewGoTreeAdapter(w.base)

	root, err := trees.Root(ctx, file)
	if err != nil {
		return nil, err
	}

	var elements []m.CodeElement

	var walk func(node m.Node, path m.Path)

	walk = func(node m.Node, path m.Path) {
		elements = append(elements, trees.Snapshot(node, path))

		for _, child := range node.Children() {
			walk(child, path.Child(child.Kind(), child.Name()))
		}
	}

	walk(root, m.Path{File: file})

	return elements, nil
}
