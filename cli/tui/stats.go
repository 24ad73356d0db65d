package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/types"
)

// StatsModel is a Bubble Tea model for static views.
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
	case ViewHealth:
		content = m.renderHealth()
	case ViewStats:
		content = m.renderMissionStats()
	case ViewMetrics:
		content = m.renderSessionMetrics()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderHealth() string {
	data, ok := m.data.(*types.HealthStatus)
	if !ok {
		return "Invalid data type for health"
	}
	return renderHealthBox(data)
}

func (m StatsModel) renderMissionStats() string {
	data, ok := m.data.(*types.MissionStats)
	if !ok {
		return "Invalid data type for stats"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Mission Statistics"))
	b.WriteString("\n\n")
	b.WriteString(renderMissionStatBoxes(data))
	return b.String()
}

func (m StatsModel) renderSessionMetrics() string {
	data, ok := m.data.(*metrics.Snapshot)
	if !ok {
		return "Invalid data type for metrics"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Session Metrics"))
	b.WriteString("\n\n")

	missions := []string{
		renderStatBox("Started", fmt.Sprint(data.MissionsStarted), highlightColor),
		renderStatBox("Completed", fmt.Sprint(data.MissionsCompleted), successColor),
		renderStatBox("Failed", fmt.Sprint(data.MissionsFailed), errorColor),
		renderStatBox("Canceled", fmt.Sprint(data.MissionsCanceled), warningColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, missions...))
	b.WriteString("\n")

	stream := []string{
		renderStatBox("Chunks", fmt.Sprint(data.ChunksReceived), highlightColor),
		renderStatBox("Dropped", fmt.Sprint(data.FramesDropped), warningColor),
		renderStatBox("Late", fmt.Sprint(data.LateChunks), mutedColor),
		renderStatBox("Errors", fmt.Sprint(data.TransportErrors+data.NetworkErrors+data.StreamUnavailableErrors+data.TimeoutErrors), errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, stream...))

	return b.String()
}

func renderHealthBox(data *types.HealthStatus) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Backend Health"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"Status", data.Status},
		{"Database", data.Database},
		{"ChromaDB", data.ChromaDB},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(row[0]+":"), StateStyle(row[1]).Render(row[1]))
	}
	fmt.Fprintf(&b, "%s %s", LabelStyle.Render("Server Time:"), ValueStyle.Render(data.Timestamp))

	return BoxStyle.Render(b.String())
}

func renderMissionStatBoxes(data *types.MissionStats) string {
	boxes := []string{
		renderStatBox("Total", fmt.Sprint(data.Total), highlightColor),
		renderStatBox("Completed", fmt.Sprint(data.Completed), successColor),
		renderStatBox("Failed", fmt.Sprint(data.Failed), errorColor),
		renderStatBox("In Progress", fmt.Sprint(data.InProgress), warningColor),
		renderStatBox("Success Rate", fmt.Sprintf("%.2f%%", data.SuccessRate), primaryColor),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func renderStatBox(label, value string, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(value)
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RunStatsTUI runs the static TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders a view without the full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
