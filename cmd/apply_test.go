package cmd

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtree/patchtree/internal/domain"
	m "github.com/patchtree/patchtree/internal/model"
)

func successResult(modType m.ModificationType, path string) m.ModificationResult {
	return m.Success(m.Modification{Type: modType, Path: path}, path, "")
}

func TestApplyCmd(t *testing.T) {
	t.Run("reports the batch outcome", func(t *testing.T) {
		stub := &stubWorkflow{outcome: domain.ApplyOutcome{
			Results: []m.ModificationResult{
				successResult(m.ModCreateFile, "file:a.go"),
				successResult(m.ModAddImport, "file:a.go"),
			},
		}}
		withStubWorkflow(t, stub)

		output, err := runCommand(t, newApplyCmd(), "batch.yaml")
		require.NoError(t, err)

		assert.Equal(t, "batch.yaml", stub.applyArgs.BatchPath)
		assert.False(t, stub.applyArgs.DryRun)
		assert.Contains(t, output, "2 applied, 0 failed")
	})

	t.Run("fails when any modification failed", func(t *testing.T) {
		stub := &stubWorkflow{outcome: domain.ApplyOutcome{
			Results: []m.ModificationResult{
				successResult(m.ModCreateFile, "file:a.go"),
				m.Failure(m.Modification{Type: m.ModDeleteFile, Path: "file:b.go"}, m.NewFileNotFound("file:b.go")),
			},
		}}
		withStubWorkflow(t, stub)

		output, err := runCommand(t, newApplyCmd(), "batch.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 modifications failed")
		assert.Contains(t, output, "1 applied, 1 failed")
	})

	t.Run("dry run renders the would-be changes", func(t *testing.T) {
		stub := &stubWorkflow{outcome: domain.ApplyOutcome{
			Results: []m.ModificationResult{successResult(m.ModReplaceFile, "file:a.go")},
			Changes: []m.FileChange{{Path: "a.go", Before: "package a\n", After: "package a // v2\n"}},
		}}
		withStubWorkflow(t, stub)

		output, err := runCommand(t, newApplyCmd(), "batch.yaml", "--dry-run")
		require.NoError(t, err)

		assert.True(t, stub.applyArgs.DryRun)
		assert.Contains(t, output, "--- a/a.go")
		assert.Contains(t, output, "+package a // v2")
	})

	t.Run("the parallel flag feeds the worker count", func(t *testing.T) {
		stub := &stubWorkflow{outcome: domain.ApplyOutcome{
			Results: []m.ModificationResult{successResult(m.ModCreateFile, "file:a.go")},
		}}
		withStubWorkflow(t, stub)

		_, err := runCommand(t, newApplyCmd(), "batch.yaml", "--parallel", "3")
		require.NoError(t, err)
		assert.Equal(t, 3, stub.applyArgs.Threads)
	})

	t.Run("workflow errors surface as command errors", func(t *testing.T) {
		stub := &stubWorkflow{applyErr: fmt.Errorf("no such batch")}
		withStubWorkflow(t, stub)

		_, err := runCommand(t, newApplyCmd(), "batch.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such batch")
	})

	t.Run("requires exactly one argument", func(t *testing.T) {
		stub := &stubWorkflow{}
		withStubWorkflow(t, stub)

		_, err := runCommand(t, newApplyCmd())
		require.Error(t, err)
	})
}
