package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Shared styles for the CLI package
// All terminal colors and styling definitions are centralized here
var (
	// Primary styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	// Progress view
	stepDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	stepWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F59E0B"))

	// Status badges
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	upgradeBadgeStyle = badgeStyle.
				Background(lipgloss.Color("#7D56F4"))

	currentBadgeStyle = badgeStyle.
				Background(lipgloss.Color("#10B981"))

	newBadgeStyle = badgeStyle.
			Background(lipgloss.Color("#3B82F6"))

	// Layout
	labelStyle = lipgloss.NewStyle().
			Width(16).
			Foreground(lipgloss.Color("#9CA3AF"))
)
