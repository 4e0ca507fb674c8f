package main

import "github.com/charmbracelet/lipgloss"

type uiTheme struct {
	root         lipgloss.Style
	header       lipgloss.Style
	title        lipgloss.Style
	panel        lipgloss.Style
	panelTitle   lipgloss.Style
	card         lipgloss.Style
	cardHeading  lipgloss.Style
	footer       lipgloss.Style
	status       lipgloss.Style
	errorStatus  lipgloss.Style
	inputPanel   lipgloss.Style
	button       lipgloss.Style
	buttonMuted  lipgloss.Style
	helpText     lipgloss.Style
	code         lipgloss.Style
	healthOK     lipgloss.Style
	healthBad    lipgloss.Style
	modal        lipgloss.Style
	modalConfirm lipgloss.Style
}

func newTheme() uiTheme {
	slate := lipgloss.Color("#475569")
	slateLight := lipgloss.Color("#64748b")
	blue := lipgloss.Color("#60a5fa")
	white := lipgloss.Color("#f8fafc")
	gray := lipgloss.Color("#e5e7eb")
	muted := lipgloss.Color("#94a3b8")
	ink := lipgloss.Color("#1f2937")
	red := lipgloss.Color("#f87171")
	green := lipgloss.Color("#4ade80")

	return uiTheme{
		root: lipgloss.NewStyle().
			Foreground(white).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		title: lipgloss.NewStyle().
			Foreground(white).
			Bold(true),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(slateLight).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),
		card: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(gray).
			Foreground(muted).
			Padding(0, 1),
		cardHeading: lipgloss.NewStyle().
			Background(slate).
			Foreground(slate),
		footer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(slate).
			Foreground(muted).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(red).Bold(true),
		inputPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(white).
			Padding(0, 1),
		button: lipgloss.NewStyle().
			Background(slate).
			Foreground(white).
			Bold(true).
			Padding(0, 2),
		buttonMuted: lipgloss.NewStyle().
			Background(lipgloss.Color("#334155")).
			Foreground(muted).
			Padding(0, 2),
		helpText:  lipgloss.NewStyle().Foreground(muted),
		code:      lipgloss.NewStyle().Foreground(ink).Background(gray).Padding(0, 1),
		healthOK:  lipgloss.NewStyle().Foreground(green),
		healthBad: lipgloss.NewStyle().Foreground(red),
		modal: lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		modalConfirm: lipgloss.NewStyle().Foreground(red).Bold(true),
	}
}
