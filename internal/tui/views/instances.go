package views

import (
	"fmt"

	"wmm/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DeleteInstanceMsg is sent to delete an instance
type DeleteInstanceMsg struct {
	Instance domain.Instance
}

// Instances is the game instances view
type Instances struct {
	instances []*domain.Instance
	selected  int
	width     int
	height    int
}

// NewInstances creates a new instances view
func NewInstances() Instances {
	return Instances{
		selected: 0,
		width:    80,
		height:   24,
	}
}

// SetInstances replaces the displayed instances
func (m Instances) SetInstances(instances []*domain.Instance) Instances {
	m.instances = instances
	if m.selected >= len(instances) {
		m.selected = len(instances) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	return m
}

// Selected returns the currently selected index
func (m Instances) Selected() int {
	return m.selected
}

// SelectedInstance returns the currently selected instance
func (m Instances) SelectedInstance() *domain.Instance {
	if len(m.instances) == 0 || m.selected >= len(m.instances) {
		return nil
	}
	return m.instances[m.selected]
}

// Init implements tea.Model
func (m Instances) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Instances) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m Instances) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.instances) == 0 {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.selected--
		if m.selected < 0 {
			m.selected = len(m.instances) - 1
		}
		return m, nil

	case "down", "j":
		m.selected++
		if m.selected >= len(m.instances) {
			m.selected = 0
		}
		return m, nil

	case "home", "g":
		m.selected = 0
		return m, nil

	case "end", "G":
		m.selected = len(m.instances) - 1
		return m, nil

	case "d", "delete":
		inst := m.SelectedInstance()
		if inst != nil {
			return m, func() tea.Msg {
				return DeleteInstanceMsg{Instance: *inst}
			}
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model
func (m Instances) View() string {
	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("69")).
		MarginBottom(1)

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	itemStyle := lipgloss.NewStyle().
		PaddingLeft(2)

	selectedStyle := lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(lipgloss.Color("205")).
		Bold(true)

	detailStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		PaddingLeft(4)

	// Title
	output := titleStyle.Render("Instances") + "\n"

	// Empty state
	if len(m.instances) == 0 {
		output += itemStyle.Render("No instances yet.") + "\n\n"
		output += infoStyle.Render("Create one with 'wmm instance create <name>'") + "\n"
		return output
	}

	output += infoStyle.Render(fmt.Sprintf("%d instances:", len(m.instances))) + "\n\n"

	// Instance list
	for i, inst := range m.instances {
		cursor := "  "
		style := itemStyle
		if i == m.selected {
			cursor = "▸ "
			style = selectedStyle
		}

		line := fmt.Sprintf("%s%s  [%s]  %d mods", cursor, inst.Name, inst.Status, inst.ModsCount)
		output += style.Render(line) + "\n"

		// Show details for selected instance
		if i == m.selected {
			if inst.Description != "" {
				output += detailStyle.Render(inst.Description) + "\n"
			}
			output += detailStyle.Render("ID: "+inst.ID) + "\n"
			output += detailStyle.Render("Path: "+inst.Path) + "\n"
			if inst.CollectionID != "" {
				output += detailStyle.Render("Collection: "+inst.CollectionID) + "\n"
			}
			output += detailStyle.Render(fmt.Sprintf("Created: %s", inst.CreatedAt.Format("2006-01-02"))) + "\n"
			output += "\n"
		}
	}

	// Help
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	output += helpStyle.Render("↑/↓: navigate  d: delete")

	return output
}
