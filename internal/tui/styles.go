package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Label    lipgloss.Style
	Post     lipgloss.Style
	Selected lipgloss.Style
	Meta     lipgloss.Style
	Help     lipgloss.Style
	Status   lipgloss.Style
}

func defaultStyles() styles {
	accent := lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#9D8CFF"}
	muted := lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		Section: lipgloss.NewStyle().Bold(true).Underline(true),
		Label:   lipgloss.NewStyle().Width(10).Foreground(muted),
		Post: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Meta:   lipgloss.NewStyle().Foreground(muted),
		Help:   lipgloss.NewStyle().Foreground(muted).MarginTop(1),
		Status: lipgloss.NewStyle().Italic(true).Foreground(accent),
	}
}
