// Package controller provides the output surfaces for patchtree results:
// a plain printer for scripts and logs, and an interactive TUI for
// reviewing batch outcomes on a terminal.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	m "github.com/patchtree/patchtree/internal/model"
)

// UI renders workflow outcomes. Implementations must not mutate the values
// they are handed.
type UI interface {
	// DisplayResults renders one line or row per modification result, in
	// input order, plus a summary.
	DisplayResults(ctx context.Context, results []m.ModificationResult) error

	// DisplayChanges renders the file diffs of a dry run.
	DisplayChanges(ctx context.Context, changes []m.FileChange) error

	// DisplayElement renders a resolved element snapshot.
	DisplayElement(ctx context.Context, element m.CodeElement) error

	// DisplayTree renders a file's addressable elements.
	DisplayTree(ctx context.Context, elements []m.CodeElement) error
}

// IsTTY reports whether the writer is an interactive terminal.
func IsTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

// NewUI picks the interactive TUI on a terminal and the plain printer
// everywhere else.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}
