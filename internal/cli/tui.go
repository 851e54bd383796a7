package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/autotag/pkg/pipeline"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	detailStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// ResultListModel - Interactive decision browser
// =============================================================================

// ResultListModel is the bubbletea model for browsing a run's decisions.
// Enter toggles the detail pane, "a" confirms applying, q aborts.
type ResultListModel struct {
	Result    *pipeline.Result
	Cursor    int
	Height    int
	Offset    int
	Detail    bool
	Confirmed bool
}

// NewResultListModel creates a browser for res.
func NewResultListModel(res *pipeline.Result) ResultListModel {
	return ResultListModel{Result: res, Height: 15}
}

func (m ResultListModel) Init() tea.Cmd {
	return nil
}

func (m ResultListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := len(m.Result.Results)
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "a":
			m.Confirmed = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ResultListModel) View() string {
	var b strings.Builder
	results := m.Result.Results

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Tag placements · %s", m.Result.View)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  a apply  q abort"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(results) {
		end = len(results)
	}

	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		r := results[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		status, symbol, anchor := r.Skip.String(), "—", "—"
		if r.Placed() {
			status = "placed"
			symbol = r.Directive.Symbol.String()
			anchor = r.Directive.Anchor.String()
		}
		rows = append(rows, []string{cursor, r.ElementID, status, symbol, anchor})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Element", "Status", "Symbol", "Anchor").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(results) {
				return lipgloss.NewStyle()
			}
			style := lipgloss.NewStyle().Foreground(colorDim)
			if results[idx].Placed() {
				style = lipgloss.NewStyle().Foreground(colorGreen)
			}
			if idx == m.Cursor {
				style = style.Bold(true)
			}
			return style
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	if m.Detail && m.Cursor < len(results) {
		b.WriteString(detailStyle.Render(describeResult(results[m.Cursor])))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d placed · %d skipped",
		m.Cursor+1, len(results), m.Result.Stats.Placed, m.Result.Stats.Skipped())))

	return b.String()
}

// describeResult renders every field of one decision.
func describeResult(r pipeline.ElementResult) string {
	if !r.Placed() {
		s := fmt.Sprintf("%s: skipped (%s)", r.ElementID, r.Skip)
		if r.Detail != "" {
			s += "\n" + r.Detail
		}
		return s
	}
	d := r.Directive
	lines := []string{
		fmt.Sprintf("%s → %s", r.ElementID, d.Symbol),
		fmt.Sprintf("mode:        %s", d.Mode),
		fmt.Sprintf("anchor:      %s", d.Anchor),
		fmt.Sprintf("orientation: %s  leader: %v", d.Orientation, d.Leader),
	}
	if d.PlanPoint != nil {
		lines = append(lines, fmt.Sprintf("plan point:  (%g, %g)", d.PlanPoint.U, d.PlanPoint.V))
	}
	if d.TagHead != nil {
		lines = append(lines, fmt.Sprintf("tag head:    %s", *d.TagHead))
	}
	if d.PostOffset != nil {
		lines = append(lines, fmt.Sprintf("then move:   %s", *d.PostOffset))
	}
	return strings.Join(lines, "\n")
}
