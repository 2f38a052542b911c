package main

import "github.com/charmbracelet/lipgloss"

// Styles adapted from the teacher client's palette, trimmed to what a
// read-only operator dashboard renders: seats, board, pot, and a title bar.
// There is no input-focused style here since tablewatch never solicits
// keyboard input for table actions.
var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).MarginLeft(1)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	cardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	redCardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	seatStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Margin(0, 1)

	actingSeatStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("46")).
			Padding(1, 2).
			Margin(0, 1).
			Background(lipgloss.Color("22"))

	foldedSeatStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Foreground(lipgloss.Color("241")).
			Padding(1, 2).
			Margin(0, 1)

	potStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("22")).
			Foreground(lipgloss.Color("46")).
			Padding(1, 2).
			Margin(1).
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("46")).
			Align(lipgloss.Center).
			Bold(true)

	tableStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("28")).
			Padding(2).
			Margin(1)
)

// redSuit reports whether a one-character suit code renders in red, matching
// the teacher's card-color convention.
func redSuit(code byte) bool {
	return code == 'h' || code == 'd'
}
