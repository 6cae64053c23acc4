package ui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("213")).
		MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true)

	ownMessageStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("111")).
		Align(lipgloss.Right)

	peerMessageStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("120"))

	timestampStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true)

	imageStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("117"))

	overlayStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("229")).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	pickerStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	pickerSelectedStyle = lipgloss.NewStyle().
		Bold(true).
		Background(lipgloss.Color("57"))

	blockedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Italic(true)
)
