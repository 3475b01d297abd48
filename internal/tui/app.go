// Package tui is the interactive dashboard: a live view of the download
// queue and the configured game instances.
package tui

import (
	"fmt"
	"time"

	"wmm/internal/core"
	"wmm/internal/domain"
	"wmm/internal/tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ViewType represents different screens in the TUI
type ViewType int

const (
	ViewDownloads ViewType = iota
	ViewInstances
)

const refreshInterval = 500 * time.Millisecond

// RefreshMsg carries a fresh snapshot of queue and instance state
type RefreshMsg struct {
	Downloads []*domain.Download
	Stats     domain.Stats
	Instances []*domain.Instance
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Err error
}

type tickMsg time.Time

// App is the main TUI application model
type App struct {
	service     *core.Service
	currentView ViewType
	width       int
	height      int
	err         error
	showHelp    bool
	keys        *KeyMap

	downloads views.Downloads
	instances views.Instances
}

// NewApp creates a new TUI application
func NewApp(service *core.Service) App {
	return App{
		service:     service,
		currentView: ViewDownloads,
		width:       80,
		height:      24,
		keys:        NewKeyMap("vim"),
		downloads:   views.NewDownloads(),
		instances:   views.NewInstances(),
	}
}

// CurrentView returns the current view type
func (a App) CurrentView() ViewType {
	return a.currentView
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	return tea.Batch(a.refresh(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh snapshots queue and instance state off the UI loop
func (a App) refresh() tea.Cmd {
	svc := a.service
	return func() tea.Msg {
		if svc == nil {
			return RefreshMsg{}
		}
		instances, err := svc.Instances().List()
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return RefreshMsg{
			Downloads: svc.Queue().List(),
			Stats:     svc.Queue().Stats(),
			Instances: instances,
		}
	}
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a.updateCurrentView(msg)

	case tickMsg:
		return a, tea.Batch(a.refresh(), tick())

	case RefreshMsg:
		a.downloads = a.downloads.SetDownloads(msg.Downloads, msg.Stats)
		a.instances = a.instances.SetInstances(msg.Instances)
		return a, nil

	case views.PauseMsg:
		a.service.Queue().Pause(msg.ID)
		return a, a.refresh()

	case views.ResumeMsg:
		a.service.Queue().Resume(msg.ID)
		return a, a.refresh()

	case views.CancelMsg:
		a.service.Queue().Cancel(msg.ID)
		return a, a.refresh()

	case views.RetryMsg:
		a.service.Queue().Retry(msg.ID)
		return a, a.refresh()

	case views.ClearFinishedMsg:
		a.service.Queue().ClearFinished()
		return a, a.refresh()

	case views.DeleteInstanceMsg:
		if err := a.service.Instances().Delete(msg.Instance.ID, false); err != nil {
			a.err = err
			return a, nil
		}
		return a, a.refresh()

	case ErrorMsg:
		a.err = msg.Err
		return a, nil
	}

	return a.updateCurrentView(msg)
}

func (a App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keybindings
	if a.keys.IsQuit(msg) {
		return a, tea.Quit
	}
	if a.keys.IsHelp(msg) {
		a.showHelp = !a.showHelp
		return a, nil
	}

	switch msg.String() {
	case "1":
		a.currentView = ViewDownloads
		return a, nil

	case "2":
		a.currentView = ViewInstances
		return a, nil

	case "tab":
		if a.currentView == ViewDownloads {
			a.currentView = ViewInstances
		} else {
			a.currentView = ViewDownloads
		}
		return a, nil
	}

	// Any keypress clears a sticky error
	a.err = nil

	return a.updateCurrentView(msg)
}

func (a App) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var model tea.Model

	switch a.currentView {
	case ViewDownloads:
		model, cmd = a.downloads.Update(msg)
		a.downloads = model.(views.Downloads)
	case ViewInstances:
		model, cmd = a.instances.Update(msg)
		a.instances = model.(views.Instances)
	}

	return a, cmd
}

// View implements tea.Model
func (a App) View() string {
	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	// Header
	header := titleStyle.Render("wmm - Workshop Mod Manager")

	// Tab bar
	tabs := []string{"[1]Downloads", "[2]Instances"}
	tabBar := ""
	for i, tab := range tabs {
		if ViewType(i) == a.currentView {
			tabBar += activeTabStyle.Render(tab) + "  "
		} else {
			tabBar += tabStyle.Render(tab) + "  "
		}
	}

	// Content
	content := a.renderCurrentView()

	if a.showHelp {
		content = a.keys.FullHelp()
	}

	// Error display
	if a.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		content = errStyle.Render(fmt.Sprintf("Error: %v", a.err))
	}

	// Footer
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	footer := footerStyle.Render("q: quit  ?: help  tab: switch view")

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", header, tabBar, content, footer)
}

func (a App) renderCurrentView() string {
	switch a.currentView {
	case ViewDownloads:
		return a.downloads.View()
	case ViewInstances:
		return a.instances.View()
	default:
		return "Unknown view"
	}
}

// Run starts the TUI application
func Run(service *core.Service) error {
	app := NewApp(service)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
