package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/trellis-dev/trellis/internal/store"
)

// --- Color palette ---
var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

// --- Styles ---
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	dimStyle    = lipgloss.NewStyle().Foreground(clrDim)
	subtleStyle = lipgloss.NewStyle().Foreground(clrSubtle)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrSubtle).
			Padding(0, 1).
			Width(28)

	columnActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(clrHighlight).
				Padding(0, 1).
				Width(28)

	cardSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	cardBlockedStyle  = lipgloss.NewStyle().Foreground(clrRed)
	cardDoneStyle     = lipgloss.NewStyle().Foreground(clrGreen)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrHighlight).
			Padding(1, 2).
			Width(60)

	statusStyle = lipgloss.NewStyle().Foreground(clrYellow).Bold(true)

	footerKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	footerDescStyle = lipgloss.NewStyle().Foreground(clrSubtle)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.currentView {
	case viewDetail:
		content = m.viewDetail()
	case viewCreate:
		content = m.viewCreate()
	default:
		content = m.viewBoard()
	}

	footer := m.viewFooter()
	if m.statusMsg != "" {
		footer = statusStyle.Render(m.statusMsg) + "\n" + footer
	}
	return content + "\n" + footer
}

func (m Model) viewBoard() string {
	header := titleStyle.Render(fmt.Sprintf("Project #%d", m.projectID))

	cols := make([]string, numColumns)
	for i := 0; i < numColumns; i++ {
		var b strings.Builder
		b.WriteString(subtleStyle.Render(fmt.Sprintf("%s (%d)", columnLabels[i], len(m.columns[i]))))
		b.WriteString("\n")

		for row, t := range m.columns[i] {
			line := fmt.Sprintf("#%d %s", t.ID, truncate(t.Title, 20))
			if m.blocked[t.ID] {
				line += " ⛔"
			}

			style := lipgloss.NewStyle()
			switch {
			case i == m.cursorCol && row == m.cursorRow:
				style = cardSelectedStyle
			case m.blocked[t.ID]:
				style = cardBlockedStyle
			case t.Status == store.StatusDone:
				style = cardDoneStyle
			}
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
		if len(m.columns[i]) == 0 {
			b.WriteString(dimStyle.Render("—"))
			b.WriteString("\n")
		}

		frame := columnStyle
		if i == m.cursorCol {
			frame = columnActiveStyle
		}
		cols[i] = frame.Render(b.String())
	}

	board := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	return header + "\n" + board
}

func (m Model) viewDetail() string {
	t := m.selectedTask
	if t == nil {
		return dimStyle.Render("No task selected.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Task #%d: %s", t.ID, t.Title)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Status:   %s\n", t.Status))
	b.WriteString(fmt.Sprintf("Priority: %s\n", t.Priority))
	if t.Description != "" {
		b.WriteString(fmt.Sprintf("Desc:     %s\n", t.Description))
	}

	if len(m.taskDeps) > 0 {
		b.WriteString("\nDepends on:\n")
		for _, d := range m.taskDeps {
			style := cardDoneStyle
			if d.Status != store.StatusDone {
				style = cardBlockedStyle
			}
			b.WriteString("  " + style.Render(fmt.Sprintf("#%d %s [%s]", d.ID, d.Title, d.Status)) + "\n")
		}
	}
	if len(m.taskBlocks) > 0 {
		b.WriteString("\nBlocks:\n")
		for _, d := range m.taskBlocks {
			b.WriteString(fmt.Sprintf("  #%d %s [%s]\n", d.ID, d.Title, d.Status))
		}
	}

	return popupStyle.Render(b.String())
}

func (m Model) viewCreate() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New task"))
	b.WriteString("\n\n")
	b.WriteString(m.titleInput.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("enter: create   esc: cancel"))
	return popupStyle.Render(b.String())
}

func (m Model) viewFooter() string {
	keys := [][2]string{
		{"←/→/↑/↓", "move"},
		{"enter", "detail"},
		{"space", "advance"},
		{"n", "new"},
		{"r", "refresh"},
		{"q", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = footerKeyStyle.Render(k[0]) + " " + footerDescStyle.Render(k[1])
	}
	return strings.Join(parts, "   ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
