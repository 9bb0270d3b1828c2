package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/patchtree/patchtree/internal/model"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true)
	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// TUI implements UI with an interactive result browser. Non-interactive
// payloads (diffs, snapshots, trees) render as styled text.
type TUI struct {
	output io.Writer
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// DisplayResults opens a browsable table of per-modification outcomes.
// Enter toggles a detail pane for the selected row; q closes the browser.
func (t *TUI) DisplayResults(ctx context.Context, results []m.ModificationResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newResultBrowser(results)

	program := tea.NewProgram(model, tea.WithOutput(t.output), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return err
	}

	failures := m.CountFailures(results)
	_, _ = fmt.Fprintf(t.output, "%d applied, %d failed\n", len(results)-failures, failures)

	return nil
}

// DisplayChanges renders dry-run diffs with added/removed line coloring.
func (t *TUI) DisplayChanges(ctx context.Context, changes []m.FileChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(changes) == 0 {
		_, _ = fmt.Fprintln(t.output, faintStyle.Render("No file changes."))
		return nil
	}

	for _, change := range changes {
		text, err := renderChange(change)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintln(t.output, headerStyle.Render(change.Path))

		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				line = addedStyle.Render(line)
			case strings.HasPrefix(line, "-"):
				line = removedStyle.Render(line)
			case strings.HasPrefix(line, "@@"):
				line = faintStyle.Render(line)
			}

			_, _ = fmt.Fprintln(t.output, line)
		}

		_, _ = fmt.Fprintln(t.output)
	}

	return nil
}

// DisplayElement renders a snapshot with a styled header above the text.
func (t *TUI) DisplayElement(ctx context.Context, element m.CodeElement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	header := fmt.Sprintf("%s %s", element.Kind, element.Name)
	_, _ = fmt.Fprintln(t.output, headerStyle.Render(header))
	_, _ = fmt.Fprintln(t.output, faintStyle.Render(element.Path.String()))
	_, _ = fmt.Fprintln(t.output)
	_, _ = fmt.Fprintln(t.output, element.Text)

	return nil
}

// DisplayTree renders one canonical path per element, children indented.
func (t *TUI) DisplayTree(ctx context.Context, elements []m.CodeElement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, element := range elements {
		indent := strings.Repeat("  ", len(element.Path.Segments))

		label := element.Path.String()
		if element.Kind != m.KindFile {
			label = element.Path.Last().String()
		}

		_, _ = fmt.Fprintf(t.output, "%s%s\n", indent, label)
	}

	return nil
}

// resultBrowser is the bubbletea model behind DisplayResults.
type resultBrowser struct {
	table      table.Model
	results    []m.ModificationResult
	showDetail bool
}

func newResultBrowser(results []m.ModificationResult) resultBrowser {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Operation", Width: 16},
		{Title: "Target", Width: 56},
		{Title: "Status", Width: 8},
	}

	rows := make([]table.Row, 0, len(results))

	for i, result := range results {
		status := okStyle.Render(statusOK)
		target := result.AffectedPath

		if !result.Succeeded() {
			status = failStyle.Render(statusFailed)
			target = result.Modification.Path
		}

		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			string(result.Modification.Type),
			target,
			status,
		})
	}

	height := len(rows)
	if height > 15 {
		height = 15
	}

	resultTable := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height+1),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	resultTable.SetStyles(styles)

	return resultBrowser{table: resultTable, results: results}
}

func (b resultBrowser) Init() tea.Cmd {
	return nil
}

func (b resultBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return b, tea.Quit
		case "enter":
			b.showDetail = !b.showDetail
			return b, nil
		}
	}

	var cmd tea.Cmd

	b.table, cmd = b.table.Update(msg)

	return b, cmd
}

func (b resultBrowser) View() string {
	var view strings.Builder

	view.WriteString(b.table.View())
	view.WriteString("\n")

	if b.showDetail {
		cursor := b.table.Cursor()
		if cursor >= 0 && cursor < len(b.results) {
			view.WriteString(detailStyle.Render(b.detail(b.results[cursor])))
			view.WriteString("\n")
		}
	}

	view.WriteString(faintStyle.Render("enter: detail · q: close"))
	view.WriteString("\n")

	return view.String()
}

func (b resultBrowser) detail(result m.ModificationResult) string {
	if !result.Succeeded() {
		return failStyle.Render(fmt.Sprintf("%s\n%v", result.Modification.Describe(), result.Err))
	}

	text := result.Text
	if text == "" {
		text = faintStyle.Render("(no resulting text)")
	}

	return fmt.Sprintf("%s\n%s", result.AffectedPath, text)
}
