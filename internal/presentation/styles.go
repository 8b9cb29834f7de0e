package presentation

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	section   lipgloss.Style
	label     lipgloss.Style
	muted     lipgloss.Style
	link      lipgloss.Style
	error     lipgloss.Style
	progress  lipgloss.Style
	completed lipgloss.Style
	failed    lipgloss.Style
	other     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	system    lipgloss.Style
	panel     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	badge := r.NewStyle().Bold(true).Padding(0, 1)
	bubble := r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return styles{
		title:     r.NewStyle().Bold(true),
		section:   r.NewStyle().Bold(true).Underline(true).MarginTop(1),
		label:     r.NewStyle().Foreground(lipgloss.Color("8")),
		muted:     r.NewStyle().Foreground(lipgloss.Color("8")),
		link:      r.NewStyle().Foreground(lipgloss.Color("14")).Underline(true),
		error:     r.NewStyle().Foreground(lipgloss.Color("9")),
		progress:  r.NewStyle().Foreground(lipgloss.Color("12")).Italic(true),
		completed: badge.Copy().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")),
		failed:    badge.Copy().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")),
		other:     badge.Copy().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("12")),
		user:      bubble.Copy().BorderForeground(lipgloss.Color("7")),
		assistant: bubble.Copy().BorderForeground(lipgloss.Color("12")),
		system:    bubble.Copy().BorderForeground(lipgloss.Color("8")),
		panel:     r.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1),
	}
}
