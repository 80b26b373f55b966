package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/trolley/metrics"
)

// StatsModel is a Bubble Tea model for the session stats view.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "stats_session":
		content = m.renderSessionStats()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderSessionStats() string {
	snap, ok := m.data.(metrics.Snapshot)
	if !ok {
		return "Invalid data type for stats_session"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Session %s", snap.SessionID)))
	b.WriteString("\n\n")

	requestBoxes := []string{
		m.renderStatBox("Requests", snap.RequestsStarted, highlightColor),
		m.renderStatBox("Succeeded", snap.RequestsSucceeded, successColor),
		m.renderStatBox("Failed", snap.RequestsFailed, errorColor),
		m.renderStatBox("Retries", snap.Retries, warningColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, requestBoxes...))
	b.WriteString("\n\n")

	cartBoxes := []string{
		m.renderStatBox("Mutations", snap.Mutations, highlightColor),
		m.renderStatBox("Fallbacks", snap.LocalFallbacks, warningColor),
		m.renderStatBox("Merges", snap.Merges, successColor),
		m.renderStatBox("Saves", snap.SnapshotSaves, highlightColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cartBoxes...))

	if len(snap.FailuresByKind) > 0 {
		b.WriteString("\n\n")
		b.WriteString(TitleStyle.Render("Failures by kind"))
		b.WriteString("\n")

		kinds := make([]string, 0, len(snap.FailuresByKind))
		for kind := range snap.FailuresByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)

		for _, kind := range kinds {
			b.WriteString(fmt.Sprintf("%s %s\n",
				LabelStyle.Render(kind+":"),
				ErrorStyle.Render(fmt.Sprintf("%d", snap.FailuresByKind[kind]))))
		}
	}

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
