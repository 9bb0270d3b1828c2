package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	m "github.com/patchtree/patchtree/internal/model"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// SimpleUI implements UI using the cobra Command's writer. Its output is
// stable and line-oriented so it works in pipelines and CI logs.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayResults renders a result table in input order plus a summary row.
func (s *SimpleUI) DisplayResults(ctx context.Context, results []m.ModificationResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderResultTable(results))

	for i, result := range results {
		if result.Succeeded() {
			continue
		}

		s.printf("  [%d] %s: %v\n", i+1, result.Modification.Describe(), result.Err)
	}

	failures := m.CountFailures(results)
	s.printf("\n%d applied, %d failed\n", len(results)-failures, failures)

	return nil
}

func renderResultTable(results []m.ModificationResult) string {
	var buffer bytes.Buffer

	table := tablewriter.NewWriter(&buffer)
	table.SetHeader([]string{"#", "Operation", "Target", "Status"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
	})

	for i, result := range results {
		status := statusOK
		target := result.AffectedPath

		if !result.Succeeded() {
			status = statusFailed
			target = result.Modification.Path
		}

		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			string(result.Modification.Type),
			target,
			status,
		})
	}

	table.Render()

	return buffer.String()
}

// DisplayChanges renders a unified diff per changed file.
func (s *SimpleUI) DisplayChanges(ctx context.Context, changes []m.FileChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(changes) == 0 {
		s.printf("\nNo file changes.\n")
		return nil
	}

	s.printf("\nDry run: %d file(s) would change\n", len(changes))

	for _, change := range changes {
		text, err := renderChange(change)
		if err != nil {
			return err
		}

		s.printf("\n%s", text)
	}

	return nil
}

func renderChange(change m.FileChange) (string, error) {
	fromFile := "a/" + change.Path
	toFile := "b/" + change.Path

	switch {
	case change.Created:
		fromFile = "/dev/null"
	case change.Deleted:
		toFile = "/dev/null"
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(change.Before),
		B:        difflib.SplitLines(change.After),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	})
}

// DisplayElement prints a resolved element snapshot field by field.
func (s *SimpleUI) DisplayElement(ctx context.Context, element m.CodeElement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("path:     %s\n", element.Path)
	s.printf("kind:     %s\n", element.Kind)
	s.printf("name:     %s\n", element.Name)

	if len(element.Modifiers) > 0 {
		s.printf("modifiers: %s\n", strings.Join(element.Modifiers, ", "))
	}

	if len(element.Supertypes) > 0 {
		s.printf("supertypes: %s\n", strings.Join(element.Supertypes, ", "))
	}

	if len(element.Parameters) > 0 {
		parts := make([]string, 0, len(element.Parameters))
		for _, p := range element.Parameters {
			parts = append(parts, strings.TrimSpace(p.Name+" "+p.Type))
		}

		s.printf("parameters: (%s)\n", strings.Join(parts, ", "))
	}

	if element.ReturnType != "" {
		s.printf("returns:  %s\n", element.ReturnType)
	}

	if element.StartLine > 0 {
		s.printf("lines:    %d-%d\n", element.StartLine, element.EndLine)
	}

	s.printf("\n%s\n", element.Text)

	return nil
}

// DisplayTree prints one canonical path per addressable element.
func (s *SimpleUI) DisplayTree(ctx context.Context, elements []m.CodeElement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, element := range elements {
		s.printf("%s\n", element.Path)
	}

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
