package controller

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	countWidth = 8
	// Title, summary, footer, border and column header.
	chromeHeight = 9
	minListRows  = 5

	scrollPause = 5
	scrollGap   = "   "
)

type tickMsg time.Time

type rowDelegate struct {
	offset int
}

func (d rowDelegate) Height() int  { return 1 }
func (d rowDelegate) Spacing() int { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(rowItem)
	if !ok {
		return
	}

	width := m.Width() - countWidth - 2

	var labelStyle, countStyle lipgloss.Style

	var label string

	if index == m.Index() {
		labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")).
			Bold(true)
		countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")).
			Bold(true).
			Width(countWidth).
			Align(lipgloss.Right)

		label = marquee(row.label, width, d.offset)
	} else {
		labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
		countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true).
			Width(countWidth).
			Align(lipgloss.Right)

		label = ellipsize(row.label, width)
	}

	_, _ = fmt.Fprintf(w, "%s  %s", countStyle.Render(row.count), labelStyle.Render(label))
}

// marquee shows the label of the selected row as a loop that advances one
// cell per tick, after holding the ellipsized label for scrollPause ticks.
func marquee(text string, width, offset int) string {
	if width <= 0 {
		return ""
	}

	if ansi.StringWidth(text) <= width || offset < scrollPause {
		return ellipsize(text, width)
	}

	loop := []rune(text + scrollGap)
	start := (offset - scrollPause) % len(loop)

	return ansi.Truncate(string(loop[start:])+string(loop[:start])+text, width, "")
}

// ellipsize cuts text to width terminal cells, marking the cut with "…".
func ellipsize(text string, width int) string {
	if width <= 0 {
		return ""
	}

	return ansi.Truncate(text, width, "…")
}

// listModel is a read-only, filterable two-column listing.
type listModel struct {
	title        string
	summary      string
	countHeader  string
	labelHeader  string
	width        int
	height       int
	rows         list.Model
	delegate     rowDelegate
	animOffset   int
	lastSelected int
}

func newListModel(title, summary, countHeader, labelHeader string, items []rowItem) listModel {
	delegate := rowDelegate{}

	listItems := make([]list.Item, 0, len(items))
	for _, item := range items {
		listItems = append(listItems, item)
	}

	rows := list.New(listItems, delegate, 80, 20)
	rows.SetShowPagination(false)
	rows.SetShowFilter(true)
	rows.SetShowHelp(false)
	rows.SetShowTitle(false)
	rows.SetShowStatusBar(false)
	rows.FilterInput.Placeholder = "Filter…"

	return listModel{
		title:       title,
		summary:     summary,
		countHeader: countHeader,
		labelHeader: labelHeader,
		rows:        rows,
		delegate:    delegate,
	}
}

func (lm listModel) Init() tea.Cmd {
	return tea.Tick(time.Second/2, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (lm listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		lm.width = msg.Width
		lm.height = msg.Height

	case tickMsg:
		if lm.rows.FilterState() == list.Filtering {
			return lm, nil
		}

		lm.animOffset++
		lm.delegate.offset = lm.animOffset
		lm.rows.SetDelegate(lm.delegate)

		return lm, tea.Tick(time.Millisecond*150, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})

	case tea.KeyMsg:
		if lm.rows.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				return lm, tea.Quit
			}
		}

		lm.rows, cmd = lm.rows.Update(msg)

		if lm.rows.Index() != lm.lastSelected {
			lm.lastSelected = lm.rows.Index()
			lm.animOffset = 0
			lm.delegate.offset = 0
			lm.rows.SetDelegate(lm.delegate)
		}
	}

	return lm, cmd
}

// needsPagination reports whether the rows overflow a known screen height.
func (lm listModel) needsPagination() bool {
	if lm.height <= 0 {
		return false
	}

	return len(lm.rows.Items()) > lm.listHeight()
}

func (lm listModel) listHeight() int {
	// Unknown height: leave room for every row plus the filter bar.
	if lm.height <= 0 {
		return len(lm.rows.Items()) + 4
	}

	return max(lm.height-chromeHeight, minListRows)
}

func (lm listModel) listWidth() int {
	width := lm.width
	if width <= 0 {
		width = 80
	}

	return width - 6
}

func (lm listModel) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2)

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2)

	sections := []string{
		titleStyle.Render(lm.title),
		summaryStyle.Render(lm.summary),
		lm.renderTable(),
	}

	if lm.needsPagination() {
		footerStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Align(lipgloss.Center).
			Width(lm.width)

		sections = append(sections, footerStyle.Render("↑/k up • ↓/j down • g/G top/bottom • / filter • q quit"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (lm listModel) renderTable() string {
	listWidth := lm.listWidth()

	lm.rows.SetHeight(lm.listHeight())
	lm.rows.SetWidth(listWidth)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("8")).
		Width(listWidth)

	headers := headerStyle.Render(fmt.Sprintf("%*s  %s", countWidth, lm.countHeader, lm.labelHeader))

	tableContainer := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("6")).
		Margin(0, 1).
		Padding(0, 1)

	return tableContainer.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			headers,
			lm.rows.View(),
		),
	)
}
