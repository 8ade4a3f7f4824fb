package controller

import (
	"fmt"
	"io"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	m "github.com/mouse-blink/qidicom/internal/model"
	"golang.org/x/term"
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// DisplayHierarchy lists every instance under its hierarchy path.
func (t *TUI) DisplayHierarchy(instances []m.Instance) error {
	counts := countHierarchy(instances)

	items := make([]rowItem, 0, len(instances))
	for _, inst := range instances {
		items = append(items, rowItem{
			count: strconv.Itoa(inst.Hierarchy.Instance),
			label: fmt.Sprintf("%s/%s/%s  %s",
				inst.Hierarchy.Subject, inst.Hierarchy.Study, inst.Hierarchy.Series, inst.File),
		})
	}

	summary := fmt.Sprintf("Subjects: %s   Studies: %s   Series: %s   Instances: %s",
		accent(counts.subjects), accent(counts.studies), accent(counts.series), accent(len(instances)))

	return t.run(newListModel("DICOM Hierarchy", summary, "Instance", "Subject/Study/Series  File", items))
}

// DisplayGroups lists the group keys with their file counts.
func (t *TUI) DisplayGroups(tagName string, groups m.GroupMapping) error {
	items := make([]rowItem, 0, groups.Len())
	total := 0

	for _, key := range groups.Keys() {
		n := len(groups.Files(key))
		total += n

		items = append(items, rowItem{count: strconv.Itoa(n), label: fmt.Sprint(key)})
	}

	summary := fmt.Sprintf("Groups: %s   Files: %s", accent(groups.Len()), accent(total))

	return t.run(newListModel("Grouped by "+tagName, summary, "Files", tagName, items))
}

// DisplayEditProgress prints a line for a completed write.
func (t *TUI) DisplayEditProgress(rec m.WriteRecord) {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	pathStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	sizeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	_, _ = fmt.Fprintf(t.output, "%s %s → %s %s\n",
		okStyle.Render("✓"),
		pathStyle.Render(string(rec.Source)),
		pathStyle.Render(string(rec.Dest)),
		sizeStyle.Render(humanize.IBytes(uint64(max(rec.Bytes, 0)))),
	)
}

// DisplayEditSummary prints the run totals or error.
func (t *TUI) DisplayEditSummary(stats m.EditStats, err error) error {
	if err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		_, _ = fmt.Fprintf(t.output, "%s %v\n", errStyle.Render("edit error:"), err)
	}

	_, _ = fmt.Fprintf(t.output, "\nFiles: %s   Written: %s   Skipped: %s   Bytes: %s\n",
		accent(stats.Total),
		accent(stats.Written),
		accent(stats.Skipped),
		accent(humanize.IBytes(uint64(max(stats.Bytes, 0)))),
	)

	return err
}

func (t *TUI) run(model listModel) error {
	if f, ok := t.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model.width = width
			model.height = height
		}
	}

	// If list is small, just print and exit
	if !model.needsPagination() {
		_, err := fmt.Fprint(t.output, model.View())
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(t.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

func accent(v any) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Render(fmt.Sprint(v))
}
