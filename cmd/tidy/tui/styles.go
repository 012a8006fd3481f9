// Package tui holds the interactive terminal pieces of the tidy CLI,
// built on Bubble Tea, Lip Gloss and Bubbles.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7D56F4")
	warningColor = lipgloss.Color("#FFC107")
	successColor = lipgloss.Color("#28A745")
	mutedColor   = lipgloss.Color("#666666")
	subtleColor  = lipgloss.Color("#444444")
)

var (
	dialogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	dialogTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor)

	detailStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	warningTextStyle = lipgloss.NewStyle().
				Foreground(warningColor)

	activeButtonStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Margin(0, 1).
				Background(successColor).
				Foreground(lipgloss.Color("#FFFFFF")).
				Bold(true)

	inactiveButtonStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Margin(0, 1).
				Background(subtleColor).
				Foreground(lipgloss.Color("#CCCCCC"))

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)
