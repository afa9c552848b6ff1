package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	primaryColor = lipgloss.Color("39")  // Cyan
	successColor = lipgloss.Color("82")  // Green
	warningColor = lipgloss.Color("214") // Orange/Yellow
	dimColor     = lipgloss.Color("240") // Gray
)

// Styles
var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimColor).
			Padding(0, 1)

	currentCardStyle = cardStyle.
				BorderForeground(primaryColor)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Width(12)

	learnedStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	learningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	overrideStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)
)
