package views

import (
	"fmt"

	"wmm/internal/domain"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PauseMsg is sent to pause a download
type PauseMsg struct {
	ID string
}

// ResumeMsg is sent to resume a paused download
type ResumeMsg struct {
	ID string
}

// CancelMsg is sent to cancel a download
type CancelMsg struct {
	ID string
}

// RetryMsg is sent to retry a failed or cancelled download
type RetryMsg struct {
	ID string
}

// ClearFinishedMsg is sent to remove finished downloads from the queue
type ClearFinishedMsg struct{}

// Downloads is the download queue view
type Downloads struct {
	downloads []*domain.Download
	stats     domain.Stats
	selected  int
	width     int
	height    int
	bar       progress.Model
}

// NewDownloads creates a new download queue view
func NewDownloads() Downloads {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30
	bar.ShowPercentage = false
	return Downloads{
		selected: 0,
		width:    80,
		height:   24,
		bar:      bar,
	}
}

// SetDownloads replaces the displayed queue contents
func (m Downloads) SetDownloads(downloads []*domain.Download, stats domain.Stats) Downloads {
	m.downloads = downloads
	m.stats = stats
	if m.selected >= len(downloads) {
		m.selected = len(downloads) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	return m
}

// Selected returns the currently selected index
func (m Downloads) Selected() int {
	return m.selected
}

// SelectedDownload returns the currently selected download
func (m Downloads) SelectedDownload() *domain.Download {
	if len(m.downloads) == 0 || m.selected >= len(m.downloads) {
		return nil
	}
	return m.downloads[m.selected]
}

// Init implements tea.Model
func (m Downloads) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Downloads) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

func (m Downloads) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "x":
		return m, func() tea.Msg { return ClearFinishedMsg{} }
	}

	if len(m.downloads) == 0 {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.selected--
		if m.selected < 0 {
			m.selected = len(m.downloads) - 1
		}
		return m, nil

	case "down", "j":
		m.selected++
		if m.selected >= len(m.downloads) {
			m.selected = 0
		}
		return m, nil

	case "home", "g":
		m.selected = 0
		return m, nil

	case "end", "G":
		m.selected = len(m.downloads) - 1
		return m, nil

	case "p":
		if d := m.SelectedDownload(); d != nil && d.Status == domain.StatusDownloading {
			id := d.ID
			return m, func() tea.Msg { return PauseMsg{ID: id} }
		}
		return m, nil

	case "r":
		if d := m.SelectedDownload(); d != nil && d.Status == domain.StatusPaused {
			id := d.ID
			return m, func() tea.Msg { return ResumeMsg{ID: id} }
		}
		return m, nil

	case "c", "delete":
		if d := m.SelectedDownload(); d != nil && !d.Status.Terminal() {
			id := d.ID
			return m, func() tea.Msg { return CancelMsg{ID: id} }
		}
		return m, nil

	case "R":
		if d := m.SelectedDownload(); d != nil &&
			(d.Status == domain.StatusFailed || d.Status == domain.StatusCancelled) {
			id := d.ID
			return m, func() tea.Msg { return RetryMsg{ID: id} }
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model
func (m Downloads) View() string {
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

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		PaddingLeft(4)

	// Title
	output := titleStyle.Render("Downloads") + "\n"

	// Queue summary
	output += infoStyle.Render(fmt.Sprintf("Active: %d  Paused: %d  Completed: %d  Failed: %d  %s",
		m.stats.Active, m.stats.Paused, m.stats.Completed, m.stats.Failed,
		formatSpeed(m.stats.AvgSpeed))) + "\n\n"

	// Empty state
	if len(m.downloads) == 0 {
		output += itemStyle.Render("The download queue is empty.") + "\n\n"
		output += infoStyle.Render("Queue a mod with 'wmm download <item-id>' or a collection with 'wmm collection <id>'") + "\n"
		return output
	}

	// Download list
	for i, d := range m.downloads {
		cursor := "  "
		style := itemStyle
		if i == m.selected {
			cursor = "▸ "
			style = selectedStyle
		}

		line := fmt.Sprintf("%s%s %s", cursor, statusGlyph(d.Status), d.Name)
		if d.Status == domain.StatusDownloading {
			line += "  " + m.bar.ViewAs(float64(d.Progress)/100)
			line += fmt.Sprintf(" %3d%%", d.Progress)
		} else {
			line += fmt.Sprintf("  [%s]", d.Status)
		}
		output += style.Render(line) + "\n"

		// Show details for selected download
		if i == m.selected {
			output += detailStyle.Render(fmt.Sprintf("Kind: %s  Progress: %d%%", kindLabel(d.Kind), d.Progress)) + "\n"
			if d.Status == domain.StatusDownloading {
				output += detailStyle.Render(fmt.Sprintf("%s / %s at %s",
					formatBytes(d.DownloadedBytes), formatBytes(d.SizeBytes), formatSpeed(d.SpeedBPS))) + "\n"
			}
			if d.TargetInstanceID != "" {
				output += detailStyle.Render("Instance: "+d.TargetInstanceID) + "\n"
			}
			if d.Error != "" {
				output += errorStyle.Render("Error: "+d.Error) + "\n"
			}
			output += "\n"
		}
	}

	// Help
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	output += helpStyle.Render("↑/↓: navigate  p: pause  r: resume  c: cancel  R: retry  x: clear finished")

	return output
}

func statusGlyph(s domain.Status) string {
	switch s {
	case domain.StatusDownloading:
		return "↓"
	case domain.StatusPaused:
		return "⏸"
	case domain.StatusComplete:
		return "✓"
	case domain.StatusFailed:
		return "✗"
	case domain.StatusCancelled:
		return "∅"
	default:
		return "·"
	}
}

func kindLabel(k domain.Kind) string {
	switch k {
	case domain.KindItem:
		return "item"
	case domain.KindCollection:
		return "collection"
	default:
		return "unknown"
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatSpeed(bps float64) string {
	if bps <= 0 {
		return "0 B/s"
	}
	return formatBytes(int64(bps)) + "/s"
}
