package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/trolley/types"
)

// CartModel is a Bubble Tea model for the cart view.
type CartModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewCartModel creates a new cart model.
func NewCartModel(viewType string, data any) CartModel {
	return CartModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m CartModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m CartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (m CartModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "show_cart":
		content = m.renderCart()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m CartModel) renderCart() string {
	state, ok := m.data.(types.CartState)
	if !ok {
		if p, isPtr := m.data.(*types.CartState); isPtr {
			state = *p
		} else {
			return "Invalid data type for show_cart"
		}
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Cart"))
	b.WriteString("\n\n")

	if len(state.Lines) == 0 {
		b.WriteString(ValueStyle.Render("(empty)"))
		b.WriteString("\n")
	}

	for _, line := range state.Lines {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render(line.ProductID+":"),
			ValueStyle.Render(fmt.Sprintf("%d × %s = %s",
				line.Quantity, formatMinor(line.UnitPrice), formatMinor(int64(line.Quantity)*line.UnitPrice)))))
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Items:"),
		ValueStyle.Render(fmt.Sprintf("%d", state.Lines.ItemCount()))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Subtotal:"),
		ValueStyle.Render(formatMinor(state.Lines.Subtotal()))))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Source:"),
		SourceStyle(string(state.Source)).Render(string(state.Source))))
	if state.LastSyncedAt != nil {
		b.WriteString(fmt.Sprintf("%s %s\n",
			LabelStyle.Render("Last Synced:"),
			ValueStyle.Render(state.LastSyncedAt.Format("2006-01-02 15:04:05"))))
	}

	return BoxStyle.Render(b.String())
}

// formatMinor renders minor units as a decimal amount.
func formatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunCartTUI runs the cart TUI.
func RunCartTUI(viewType string, data any) error {
	model := NewCartModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderCartStatic renders cart data without full TUI (for fallback).
func RenderCartStatic(viewType string, data any) string {
	model := NewCartModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
