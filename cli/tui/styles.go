// Package tui provides Bubble Tea TUI components for the intel CLI.
//
// TUI rules:
//   - TUI is opt-in only (--tui flag)
//   - Static views (health, stats, metrics) use the same payloads as
//     non-TUI rendering
//   - The dashboard and agent terminal are the only interactive views
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/intel/types"
)

// Color palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	// TitleStyle for headers and titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(16)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// SuccessStyle for success states.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// WarningStyle for warning states.
	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// ErrorStyle for error states.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// MutedStyle for secondary text such as thinking chunks.
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// ToolStyle for tool invocations.
	ToolStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	// BoxStyle for bordered containers.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	// StatBoxStyle for stat display boxes.
	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlightColor).
			Padding(0, 2).
			Width(20).
			Align(lipgloss.Center)

	// StatLabelStyle for stat labels.
	StatLabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Align(lipgloss.Center)

	// StatValueStyle for stat values.
	StatValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Align(lipgloss.Center)
)

// StateStyle returns a style based on a health, component or mission state.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case types.HealthHealthy, types.ComponentOnline, "COMPLETED", "completed":
		return SuccessStyle
	case types.HealthDegraded, "IN_PROGRESS", "PENDING", "streaming":
		return WarningStyle
	case types.HealthDown, types.ComponentOffline, "FAILED", "failed", "canceled", "error":
		return ErrorStyle
	default:
		return ValueStyle
	}
}

// ChunkStyle returns the style used to print a chunk of the given type.
func ChunkStyle(t types.ChunkType) lipgloss.Style {
	switch t {
	case types.ChunkTypeThinking:
		return MutedStyle
	case types.ChunkTypeTool:
		return ToolStyle
	case types.ChunkTypeComplete:
		return SuccessStyle
	case types.ChunkTypeError:
		return ErrorStyle
	default:
		return ValueStyle
	}
}
